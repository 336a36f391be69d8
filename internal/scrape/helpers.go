// Package scrape holds the site-specific extraction layer: DOM helpers,
// the duration parser, and the per-entity card extractors.
package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Text returns the trimmed text of the first node matching selector under
// s, or def when nothing matches. An empty selector reads s itself.
func Text(s *goquery.Selection, selector, def string) string {
	target := s
	if selector != "" {
		target = s.Find(selector).First()
	}
	if target.Length() == 0 {
		return def
	}
	if v := strings.TrimSpace(target.Text()); v != "" {
		return v
	}
	return def
}

// Attr returns the trimmed attribute value of the first node matching
// selector under s, or def when absent. An empty selector reads s itself.
func Attr(s *goquery.Selection, selector, attr, def string) string {
	target := s
	if selector != "" {
		target = s.Find(selector).First()
	}
	if target.Length() == 0 {
		return def
	}
	if v, ok := target.Attr(attr); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return def
}

var durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(days?|hours?|mins?|d|h|m)`)

// ParseDurationMinutes converts free text like "1h 30m" or "2 days" into
// total minutes. Unrecognized text contributes nothing; empty input is 0.
func ParseDurationMinutes(s string) int {
	if s == "" {
		return 0
	}
	total := 0
	for _, m := range durationPattern.FindAllStringSubmatch(s, -1) {
		value, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch strings.ToLower(m[2])[0] {
		case 'd':
			total += value * 24 * 60
		case 'h':
			total += value * 60
		default:
			total += value
		}
	}
	return total
}
