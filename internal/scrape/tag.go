package scrape

import (
	"github.com/PuerkitoBio/goquery"
)

// ExtractTagRecipes reads recipe cards sighted under a tag-filtered
// listing. Only the link matters; cards without one are skipped.
func ExtractTagRecipes(_ *goquery.Document, cards *goquery.Selection) []TagItem {
	var items []TagItem
	cards.Each(func(_ int, card *goquery.Selection) {
		link := Attr(card, "a[href]", "href", "")
		if link == "" {
			return
		}
		items = append(items, TagItem{Link: link})
	})
	return items
}
