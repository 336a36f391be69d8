package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sentinel filter value meaning "no filter applied".
const filterAll = "all"

var digitsPattern = regexp.MustCompile(`\d+`)

// BakerIndexEntry is the canonical identity of one baker as advertised by
// the listing page's filter panel.
type BakerIndexEntry struct {
	Name   string
	Img    string
	Season *int
}

// BakerIndex maps a lowercased baker name to its canonical entry.
type BakerIndex map[string]BakerIndexEntry

// Lookup finds the canonical entry for a raw name, case-insensitively.
func (idx BakerIndex) Lookup(name string) (BakerIndexEntry, bool) {
	entry, ok := idx[strings.ToLower(strings.TrimSpace(name))]
	return entry, ok
}

// BuildBakerIndex reads the baker filter panel off a listing page. Each
// panel entry is an input[name="baker"] whose value is the canonical
// name; the surrounding label carries the avatar image and, when the site
// exposes it, a data-season attribute.
func BuildBakerIndex(doc *goquery.Document) BakerIndex {
	idx := BakerIndex{}
	doc.Find(`input[name="baker"]`).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.AttrOr("value", ""))
		if name == "" || strings.EqualFold(name, filterAll) {
			return
		}
		entry := BakerIndexEntry{Name: name}

		label := s.Closest("label")
		if label.Length() == 0 {
			label = s.Parent()
		}
		entry.Img = Attr(label, "img", "src", "")

		if raw, ok := s.Attr("data-season"); ok {
			if season, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
				entry.Season = &season
			}
		}
		idx[strings.ToLower(name)] = entry
	})
	return idx
}

// FilterValues lists the values of the named filter input group on a
// listing page, excluding the "All" sentinel, de-duplicated in document
// order. Used to discover which category/type crawls to run.
func FilterValues(doc *goquery.Document, param string) []string {
	var values []string
	seen := map[string]bool{}
	doc.Find(`input[name="` + param + `"]`).Each(func(_ int, s *goquery.Selection) {
		v := strings.TrimSpace(s.AttrOr("value", ""))
		if v == "" || strings.EqualFold(v, filterAll) || seen[v] {
			return
		}
		seen[v] = true
		values = append(values, v)
	})
	return values
}

// parseSeason pulls the digits out of a season heading like "Series 12".
func parseSeason(s string) *int {
	joined := strings.Join(digitsPattern.FindAllString(s, -1), "")
	if joined == "" {
		return nil
	}
	season, err := strconv.Atoi(joined)
	if err != nil {
		return nil
	}
	return &season
}
