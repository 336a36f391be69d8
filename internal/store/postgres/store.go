// Package postgres provides the pgx-backed persistence layer.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gbbo-crawler/internal/metrics"
	"gbbo-crawler/internal/store"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// Store persists harvested records into Postgres. All writes are
// idempotent so re-ingesting the same pages is safe.
type Store struct {
	pool querier
}

// New creates a pooled Postgres store from the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool querier) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureBaker inserts the baker unless its (name, img) key already
// exists, then returns the id of the surviving row. When the key is
// duplicated across historic rows the newest one wins.
func (s *Store) EnsureBaker(ctx context.Context, b store.Baker) (int64, error) {
	const insert = `
INSERT INTO bakers (name, img, season)
VALUES ($1, $2, $3)
ON CONFLICT (name, img) DO NOTHING`
	if _, err := s.pool.Exec(ctx, insert, b.Name, b.Img, b.Season); err != nil {
		return 0, fmt.Errorf("insert baker: %w", err)
	}
	metrics.ObserveWrite("bakers")

	const lookup = `
SELECT id FROM bakers
WHERE name = $1 AND img = $2
ORDER BY id DESC
LIMIT 1`
	var id int64
	if err := s.pool.QueryRow(ctx, lookup, b.Name, b.Img).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup baker: %w", err)
	}
	return id, nil
}

// BakerByName returns the newest baker whose name matches exactly, or
// nil when none does.
func (s *Store) BakerByName(ctx context.Context, name string) (*store.Baker, error) {
	const query = `
SELECT id, name, img, season FROM bakers
WHERE name = $1
ORDER BY id DESC
LIMIT 1`
	return s.scanBaker(ctx, query, name)
}

// BakerByFuzzyName returns the newest baker whose name contains, or is
// contained by, the given name. Used when exact matching fails on a
// loose card reference like a bare first name.
func (s *Store) BakerByFuzzyName(ctx context.Context, name string) (*store.Baker, error) {
	const query = `
SELECT id, name, img, season FROM bakers
WHERE name ILIKE '%' || $1 || '%' OR $1 ILIKE '%' || name || '%'
ORDER BY id DESC
LIMIT 1`
	return s.scanBaker(ctx, query, name)
}

func (s *Store) scanBaker(ctx context.Context, query string, args ...any) (*store.Baker, error) {
	var b store.Baker
	err := s.pool.QueryRow(ctx, query, args...).Scan(&b.ID, &b.Name, &b.Img, &b.Season)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query baker: %w", err)
	}
	return &b, nil
}

// UpsertRecipe inserts the recipe or, when its link already exists,
// updates the stored row in place. Returns the recipe id either way.
func (s *Store) UpsertRecipe(ctx context.Context, r store.Recipe) (int64, error) {
	const query = `
INSERT INTO recipes (title, link, img, difficulty, "time", baker_id)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (link) DO UPDATE SET
	title = EXCLUDED.title,
	img = EXCLUDED.img,
	difficulty = EXCLUDED.difficulty,
	"time" = EXCLUDED."time",
	baker_id = EXCLUDED.baker_id
RETURNING id`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		r.Title, r.Link, r.Img, r.Difficulty, r.Time, r.BakerID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert recipe: %w", err)
	}
	metrics.ObserveWrite("recipes")
	return id, nil
}

// RecipeIDByLink returns the id of the recipe with the given link, or
// 0 when no such recipe is stored yet.
func (s *Store) RecipeIDByLink(ctx context.Context, link string) (int64, error) {
	const query = `SELECT id FROM recipes WHERE link = $1`
	var id int64
	err := s.pool.QueryRow(ctx, query, link).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup recipe by link: %w", err)
	}
	return id, nil
}

// EnsureTag inserts the tag name into the kind's reference table
// unless it already exists, then returns the id of the row.
func (s *Store) EnsureTag(ctx context.Context, kind store.TagKind, name string) (int64, error) {
	if err := kind.Validate(); err != nil {
		return 0, err
	}
	insert := fmt.Sprintf(`
INSERT INTO %s (name)
VALUES ($1)
ON CONFLICT (name) DO NOTHING`, kind.Table())
	if _, err := s.pool.Exec(ctx, insert, name); err != nil {
		return 0, fmt.Errorf("insert %s: %w", kind, err)
	}
	metrics.ObserveWrite(kind.Table())

	lookup := fmt.Sprintf(`SELECT id FROM %s WHERE name = $1`, kind.Table())
	var id int64
	if err := s.pool.QueryRow(ctx, lookup, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup %s: %w", kind, err)
	}
	return id, nil
}

// LinkRecipeTag records the (recipe, tag) association for the kind.
// Duplicate pairs are ignored.
func (s *Store) LinkRecipeTag(ctx context.Context, kind store.TagKind, recipeID, tagID int64) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (recipe_id, %s)
VALUES ($1, $2)
ON CONFLICT (recipe_id, %s) DO NOTHING`, kind.JunctionTable(), kind.FKColumn(), kind.FKColumn())
	if _, err := s.pool.Exec(ctx, query, recipeID, tagID); err != nil {
		return fmt.Errorf("link recipe %s: %w", kind, err)
	}
	metrics.ObserveWrite(kind.JunctionTable())
	return nil
}
