package postgres

import (
	"context"
	"fmt"
)

// dropStatements tear tables down children first so foreign keys never
// block a drop.
var dropStatements = []string{
	`DROP TABLE IF EXISTS recipe_diets`,
	`DROP TABLE IF EXISTS recipe_categories`,
	`DROP TABLE IF EXISTS recipe_bake_types`,
	`DROP TABLE IF EXISTS recipes`,
	`DROP TABLE IF EXISTS diets`,
	`DROP TABLE IF EXISTS categories`,
	`DROP TABLE IF EXISTS bake_types`,
	`DROP TABLE IF EXISTS bakers`,
}

var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS bakers (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	img TEXT NOT NULL,
	season INT,
	UNIQUE (name, img)
)`,
	`CREATE TABLE IF NOT EXISTS diets (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS bake_types (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS recipes (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	link TEXT NOT NULL UNIQUE,
	img TEXT NOT NULL,
	difficulty INT,
	"time" INT,
	baker_id BIGINT REFERENCES bakers (id)
)`,
	`CREATE TABLE IF NOT EXISTS recipe_diets (
	id BIGSERIAL PRIMARY KEY,
	recipe_id BIGINT NOT NULL REFERENCES recipes (id),
	diet_id BIGINT NOT NULL REFERENCES diets (id),
	UNIQUE (recipe_id, diet_id)
)`,
	`CREATE TABLE IF NOT EXISTS recipe_categories (
	id BIGSERIAL PRIMARY KEY,
	recipe_id BIGINT NOT NULL REFERENCES recipes (id),
	category_id BIGINT NOT NULL REFERENCES categories (id),
	UNIQUE (recipe_id, category_id)
)`,
	`CREATE TABLE IF NOT EXISTS recipe_bake_types (
	id BIGSERIAL PRIMARY KEY,
	recipe_id BIGINT NOT NULL REFERENCES recipes (id),
	bake_type_id BIGINT NOT NULL REFERENCES bake_types (id),
	UNIQUE (recipe_id, bake_type_id)
)`,
}

// CreateSchema creates all harvest tables if they are absent. With
// drop set it removes the existing tables first, discarding their data.
func (s *Store) CreateSchema(ctx context.Context, drop bool) error {
	if drop {
		for _, stmt := range dropStatements {
			if _, err := s.pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("drop table: %w", err)
			}
		}
	}
	for _, stmt := range createStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
