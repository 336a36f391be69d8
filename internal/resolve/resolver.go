// Package resolve turns loose baker references from recipe cards into
// baker row ids.
package resolve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gbbo-crawler/internal/scrape"
	"gbbo-crawler/internal/store"
)

// BakerStore is the slice of the persistence layer the resolver needs.
type BakerStore interface {
	BakerByName(ctx context.Context, name string) (*store.Baker, error)
	BakerByFuzzyName(ctx context.Context, name string) (*store.Baker, error)
	EnsureBaker(ctx context.Context, b store.Baker) (int64, error)
}

// Resolver resolves a card's baker reference to a stored baker id.
// Names arriving here are already normalized through the page's filter
// panel where one was present.
type Resolver struct {
	store  BakerStore
	logger *zap.Logger
}

// New constructs a Resolver.
func New(st BakerStore, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: st, logger: logger}
}

// Resolve walks the resolution chain: exact stored name, substring
// match in either direction, create when the card carries an image,
// and finally nil when nothing can anchor an identity. A nil id is a
// valid outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, ref *scrape.BakerRef) (*int64, error) {
	if ref == nil || ref.Name == "" {
		return nil, nil
	}

	b, err := r.store.BakerByName(ctx, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve baker %q: %w", ref.Name, err)
	}
	if b != nil {
		return &b.ID, nil
	}

	b, err = r.store.BakerByFuzzyName(ctx, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve baker %q: %w", ref.Name, err)
	}
	if b != nil {
		r.logger.Debug("fuzzy baker match",
			zap.String("candidate", ref.Name),
			zap.String("matched", b.Name))
		return &b.ID, nil
	}

	if ref.Img == "" {
		r.logger.Debug("baker unresolved, no image to create from",
			zap.String("candidate", ref.Name))
		return nil, nil
	}

	id, err := r.store.EnsureBaker(ctx, store.Baker{
		Name:   ref.Name,
		Img:    ref.Img,
		Season: ref.Season,
	})
	if err != nil {
		return nil, fmt.Errorf("create baker %q: %w", ref.Name, err)
	}
	r.logger.Info("created baker from recipe card", zap.String("name", ref.Name))
	return &id, nil
}
