// Package store defines the relational records the harvester persists
// and the closed set of tag kinds that share a common table shape.
package store

import "fmt"

// Baker is a row in the bakers table. Name and Img together form the
// natural key.
type Baker struct {
	ID     int64
	Name   string
	Img    string
	Season *int
}

// Recipe is a row in the recipes table. Link is the natural key; a
// recipe without a resolvable baker carries a nil BakerID.
type Recipe struct {
	ID         int64
	Title      string
	Link       string
	Img        string
	Difficulty *int
	Time       *int
	BakerID    *int64
}

// TagKind selects one of the three reference tables that hold simple
// named tags with a recipe junction table.
type TagKind string

const (
	TagDiet     TagKind = "diet"
	TagCategory TagKind = "category"
	TagBakeType TagKind = "bake_type"
)

// Valid reports whether k is one of the known tag kinds.
func (k TagKind) Valid() bool {
	switch k {
	case TagDiet, TagCategory, TagBakeType:
		return true
	}
	return false
}

// Table returns the reference table for the kind.
func (k TagKind) Table() string {
	switch k {
	case TagDiet:
		return "diets"
	case TagCategory:
		return "categories"
	case TagBakeType:
		return "bake_types"
	}
	return ""
}

// JunctionTable returns the recipe junction table for the kind.
func (k TagKind) JunctionTable() string {
	switch k {
	case TagDiet:
		return "recipe_diets"
	case TagCategory:
		return "recipe_categories"
	case TagBakeType:
		return "recipe_bake_types"
	}
	return ""
}

// FKColumn returns the tag foreign key column in the junction table.
func (k TagKind) FKColumn() string {
	switch k {
	case TagDiet:
		return "diet_id"
	case TagCategory:
		return "category_id"
	case TagBakeType:
		return "bake_type_id"
	}
	return ""
}

func (k TagKind) String() string { return string(k) }

// Validate returns an error naming the kind when it is unknown.
func (k TagKind) Validate() error {
	if !k.Valid() {
		return fmt.Errorf("unknown tag kind %q", string(k))
	}
	return nil
}
