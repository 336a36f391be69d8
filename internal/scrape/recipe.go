package scrape

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// RecipeCardSelector enumerates recipe cards on a listing page.
const RecipeCardSelector = ".recipes-loop__item"

// RecipeExtractor turns recipe cards into RecipeItems, normalizing baker
// references through the page's filter panel when one is present.
type RecipeExtractor struct {
	logger *zap.Logger
}

// NewRecipeExtractor constructs a RecipeExtractor.
func NewRecipeExtractor(logger *zap.Logger) *RecipeExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeExtractor{logger: logger}
}

// Extract produces one item per well-formed card. Cards missing the
// title, link, or image are skipped individually; the page never fails
// because of a single bad card.
func (x *RecipeExtractor) Extract(doc *goquery.Document, cards *goquery.Selection) []RecipeItem {
	index := BuildBakerIndex(doc)

	var items []RecipeItem
	cards.Each(func(i int, card *goquery.Selection) {
		item, ok := x.extractCard(card, index)
		if !ok {
			x.logger.Warn("skipping malformed recipe card", zap.Int("card", i))
			return
		}
		items = append(items, item)
	})
	return items
}

func (x *RecipeExtractor) extractCard(card *goquery.Selection, index BakerIndex) (RecipeItem, bool) {
	img := Attr(card, "figure img", "src", "")
	if img == "" {
		return RecipeItem{}, false
	}

	content := card.Find(".recipes-loop__item__content").First()
	if content.Length() == 0 {
		return RecipeItem{}, false
	}

	title := Text(content, "h5", "")
	link := Attr(card, "a[href]", "href", "")
	if title == "" || link == "" {
		return RecipeItem{}, false
	}

	item := RecipeItem{
		Title:      title,
		Link:       link,
		Img:        img,
		Difficulty: extractDifficulty(card),
		Baker:      extractBakerRef(card, content, index),
		Diets:      extractTitleTags(card),
	}

	if timeText := Text(card, ".recipes-loop__item__time, time", ""); timeText != "" {
		minutes := ParseDurationMinutes(timeText)
		item.Time = &minutes
	}

	return item, true
}

// extractDifficulty resolves the card's difficulty through a chain of
// progressively weaker signals. Absence of all of them means unknown
// difficulty, never zero.
func extractDifficulty(card *goquery.Selection) *int {
	// Enabled tick marks inside the difficulty widget.
	if level := card.Find(".difficulty-level").First(); level.Length() > 0 {
		enabled := 0
		level.Find("span").Each(func(_ int, tick *goquery.Selection) {
			if cls, _ := tick.Attr("class"); !strings.Contains(cls, "disabled") {
				enabled++
			}
		})
		if enabled >= 1 && enabled <= 3 {
			return &enabled
		}
	}

	// Accessibility label spelling the level out.
	if label := Attr(card, "[aria-label]", "aria-label", ""); label != "" {
		if d := difficultyFromKeywords(label); d != nil {
			return d
		}
	}

	// Numeric data attribute.
	if raw := Attr(card, "[data-difficulty]", "data-difficulty", ""); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= 3 {
			return &n
		}
	}

	// Last resort: keywords anywhere in the card text.
	return difficultyFromKeywords(card.Text())
}

// difficultyKeywords is ordered so resolution stays deterministic when a
// card mentions more than one level.
var difficultyKeywords = []struct {
	word  string
	level int
}{
	{"easy", 1},
	{"medium", 2},
	{"hard", 3},
}

func difficultyFromKeywords(s string) *int {
	lowered := strings.ToLower(s)
	for _, kw := range difficultyKeywords {
		if strings.Contains(lowered, kw.word) {
			d := kw.level
			return &d
		}
	}
	return nil
}

// extractBakerRef prefers the dedicated baker thumbnail and falls back to
// the first image inside the content block. The raw name/image is then
// normalized through the filter-panel index when the baker is known there.
func extractBakerRef(card, content *goquery.Selection, index BakerIndex) *BakerRef {
	thumb := card.Find(".thumbnail-baker img").First()
	if thumb.Length() == 0 {
		thumb = content.Find("img").First()
	}
	if thumb.Length() == 0 {
		return nil
	}

	ref := BakerRef{
		Name: strings.TrimSpace(thumb.AttrOr("alt", "")),
		Img:  strings.TrimSpace(thumb.AttrOr("src", "")),
	}
	if ref.Name == "" && ref.Img == "" {
		return nil
	}

	if entry, ok := index.Lookup(ref.Name); ok {
		ref.Name = entry.Name
		ref.Season = entry.Season
		if ref.Img == "" {
			ref.Img = entry.Img
		}
	}
	return &ref
}

// extractTitleTags collects hover-title attributes on the card, which is
// how the listing marks dietary membership. The "All" sentinel is
// excluded and duplicates collapse, preserving first-seen order.
func extractTitleTags(card *goquery.Selection) []string {
	var tags []string
	seen := map[string]bool{}
	card.Find("[title]").Each(func(_ int, s *goquery.Selection) {
		v := strings.TrimSpace(s.AttrOr("title", ""))
		if v == "" || strings.EqualFold(v, filterAll) || seen[v] {
			return
		}
		seen[v] = true
		tags = append(tags, v)
	})
	return tags
}
