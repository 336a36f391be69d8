package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// BakerCardSelector enumerates per-season baker groups on the bakers page.
const BakerCardSelector = ".baker-avatars__group"

// BakerExtractor turns baker avatar groups into BakerItems. One card is a
// whole season's group; every avatar inside yields an item.
type BakerExtractor struct {
	logger *zap.Logger
}

// NewBakerExtractor constructs a BakerExtractor.
func NewBakerExtractor(logger *zap.Logger) *BakerExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BakerExtractor{logger: logger}
}

// Extract walks each season group, reading the season number from the
// group title and one baker per avatar image. Avatars without both a name
// and an image are skipped.
func (x *BakerExtractor) Extract(_ *goquery.Document, cards *goquery.Selection) []BakerItem {
	var items []BakerItem
	cards.Each(func(i int, group *goquery.Selection) {
		season := parseSeason(Text(group, ".baker-avatars__group__title", ""))

		group.Find(".baker-avatars__list__item img").Each(func(_ int, avatar *goquery.Selection) {
			name := strings.TrimSpace(avatar.AttrOr("alt", ""))
			img := strings.TrimSpace(avatar.AttrOr("src", ""))
			if name == "" || img == "" {
				x.logger.Warn("skipping baker avatar without name or image", zap.Int("group", i))
				return
			}
			items = append(items, BakerItem{Name: name, Img: img, Season: season})
		})
	})
	return items
}
