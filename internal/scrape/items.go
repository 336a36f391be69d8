package scrape

// BakerRef is the loose baker reference found on a recipe card. Name and
// Img come straight from the thumbnail; Season is filled in when the
// page's baker filter panel knows the baker.
type BakerRef struct {
	Name   string
	Img    string
	Season *int
}

// RecipeItem is one extracted recipe card. Link is the natural key.
type RecipeItem struct {
	Title      string
	Link       string
	Img        string
	Difficulty *int
	Time       *int
	Baker      *BakerRef
	Diets      []string
}

// BakerItem is one extracted baker tile.
type BakerItem struct {
	Name   string
	Img    string
	Season *int
}

// TagItem is a recipe sighted under a tag-filtered listing. Only the link
// is needed; the recipe row itself comes from the recipe crawl.
type TagItem struct {
	Link string
}
