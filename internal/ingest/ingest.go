// Package ingest wires the crawl engine, extractors, resolver, and
// store into per-entity harvest pipelines.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gbbo-crawler/internal/crawl"
	"gbbo-crawler/internal/scrape"
	"gbbo-crawler/internal/store"
)

// Store is the slice of the persistence layer the pipelines need.
type Store interface {
	EnsureBaker(ctx context.Context, b store.Baker) (int64, error)
	UpsertRecipe(ctx context.Context, r store.Recipe) (int64, error)
	RecipeIDByLink(ctx context.Context, link string) (int64, error)
	EnsureTag(ctx context.Context, kind store.TagKind, name string) (int64, error)
	LinkRecipeTag(ctx context.Context, kind store.TagKind, recipeID, tagID int64) error
}

// BakerResolver resolves a card's baker reference to a stored id.
type BakerResolver interface {
	Resolve(ctx context.Context, ref *scrape.BakerRef) (*int64, error)
}

// Config holds the listing URLs the pipelines crawl.
type Config struct {
	RecipesURL string
	BakersURL  string
}

// Pipelines runs the per-entity harvests against a shared engine and store.
type Pipelines struct {
	engine   *crawl.Engine
	fetcher  crawl.Fetcher
	store    Store
	resolver BakerResolver
	logger   *zap.Logger
	cfg      Config
}

// NewPipelines constructs the pipeline set.
func NewPipelines(
	engine *crawl.Engine,
	fetcher crawl.Fetcher,
	st Store,
	resolver BakerResolver,
	logger *zap.Logger,
	cfg Config,
) *Pipelines {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipelines{
		engine:   engine,
		fetcher:  fetcher,
		store:    st,
		resolver: resolver,
		logger:   logger,
		cfg:      cfg,
	}
}

// RunBakers harvests the single-page baker listing.
func (p *Pipelines) RunBakers(ctx context.Context) (crawl.Result, error) {
	src := crawl.Source[scrape.BakerItem]{
		Name:         "bakers",
		PageURL:      crawl.SinglePageURL(p.cfg.BakersURL),
		CardSelector: scrape.BakerCardSelector,
		Extract:      scrape.NewBakerExtractor(p.logger).Extract,
		Persist:      p.persistBakers,
		MaxPage:      1,
	}
	return crawl.Run(ctx, p.engine, src)
}

func (p *Pipelines) persistBakers(ctx context.Context, items []scrape.BakerItem) error {
	for _, item := range items {
		_, err := p.store.EnsureBaker(ctx, store.Baker{
			Name:   item.Name,
			Img:    item.Img,
			Season: item.Season,
		})
		if err != nil {
			return fmt.Errorf("ensure baker %q: %w", item.Name, err)
		}
	}
	return nil
}

// RunRecipes harvests the paginated recipe listing: recipe rows, their
// baker foreign keys, and diet memberships read off the cards.
func (p *Pipelines) RunRecipes(ctx context.Context) (crawl.Result, error) {
	src := crawl.Source[scrape.RecipeItem]{
		Name:         "recipes",
		PageURL:      crawl.PathPageURL(p.cfg.RecipesURL, "", ""),
		CardSelector: scrape.RecipeCardSelector,
		Extract:      scrape.NewRecipeExtractor(p.logger).Extract,
		Persist:      p.persistRecipes,
	}
	return crawl.Run(ctx, p.engine, src)
}

func (p *Pipelines) persistRecipes(ctx context.Context, items []scrape.RecipeItem) error {
	for _, item := range items {
		bakerID, err := p.resolver.Resolve(ctx, item.Baker)
		if err != nil {
			return err
		}

		recipeID, err := p.store.UpsertRecipe(ctx, store.Recipe{
			Title:      item.Title,
			Link:       item.Link,
			Img:        item.Img,
			Difficulty: item.Difficulty,
			Time:       item.Time,
			BakerID:    bakerID,
		})
		if err != nil {
			return fmt.Errorf("upsert recipe %q: %w", item.Link, err)
		}

		for _, diet := range item.Diets {
			tagID, err := p.store.EnsureTag(ctx, store.TagDiet, diet)
			if err != nil {
				return fmt.Errorf("ensure diet %q: %w", diet, err)
			}
			if err := p.store.LinkRecipeTag(ctx, store.TagDiet, recipeID, tagID); err != nil {
				return fmt.Errorf("link diet %q: %w", diet, err)
			}
		}
	}
	return nil
}

// RunTag harvests the recipe listing filtered to one tag value and
// records junction rows for recipes already stored. Recipes that the
// main pass never stored are skipped, not created.
func (p *Pipelines) RunTag(ctx context.Context, kind store.TagKind, param, value string) (crawl.Result, error) {
	tagID, err := p.store.EnsureTag(ctx, kind, value)
	if err != nil {
		return crawl.Result{}, fmt.Errorf("ensure %s %q: %w", kind, value, err)
	}

	src := crawl.Source[scrape.TagItem]{
		Name:         fmt.Sprintf("%s:%s", kind, value),
		PageURL:      crawl.PathPageURL(p.cfg.RecipesURL, param, value),
		CardSelector: scrape.RecipeCardSelector,
		Extract:      scrape.ExtractTagRecipes,
		Persist: func(ctx context.Context, items []scrape.TagItem) error {
			return p.persistTagItems(ctx, kind, value, tagID, items)
		},
	}
	return crawl.Run(ctx, p.engine, src)
}

func (p *Pipelines) persistTagItems(
	ctx context.Context,
	kind store.TagKind,
	value string,
	tagID int64,
	items []scrape.TagItem,
) error {
	for _, item := range items {
		recipeID, err := p.store.RecipeIDByLink(ctx, item.Link)
		if err != nil {
			return fmt.Errorf("lookup recipe %q: %w", item.Link, err)
		}
		if recipeID == 0 {
			p.logger.Debug("tagged recipe not stored, skipping",
				zap.String("kind", kind.String()),
				zap.String("value", value),
				zap.String("link", item.Link),
			)
			continue
		}
		if err := p.store.LinkRecipeTag(ctx, kind, recipeID, tagID); err != nil {
			return fmt.Errorf("link %s %q: %w", kind, value, err)
		}
	}
	return nil
}
