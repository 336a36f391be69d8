// Package crawl implements the generic batch crawl engine: page URL
// strategies, lazy upper-bound discovery, and concurrent-within-batch
// fetching of paginated listings.
package crawl

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Page is the outcome of fetching a single listing page.
type Page struct {
	URL string
	Doc *goquery.Document
	// Missing marks a 404/410 response. The page is treated as empty
	// rather than as a fetch failure.
	Missing bool
}

// Fetcher retrieves listing pages and probes page existence.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
	Exists(ctx context.Context, url string) (bool, error)
}

// Source describes one entity kind to harvest. The engine stays generic;
// everything entity-specific is injected here.
type Source[T any] struct {
	// Name labels log lines and metrics.
	Name string
	// PageURL maps a 1-based page number to a request URL.
	PageURL PageURLFunc
	// CardSelector enumerates the item fragments on a fetched page.
	CardSelector string
	// Extract turns a page's cards into structured items. Malformed cards
	// are skipped inside the extractor, never surfaced as errors.
	Extract func(doc *goquery.Document, cards *goquery.Selection) []T
	// Persist writes the items collected over the whole crawl.
	Persist func(ctx context.Context, items []T) error
	// MaxPage optionally fixes the upper bound up front. Zero means the
	// bound is unknown and must be discovered by probing. Single-page
	// listings set this to 1.
	MaxPage int
}

// State is the coordinator's position in the crawl lifecycle.
type State int

const (
	// StateBoundUnknown means the page upper bound has not been discovered yet.
	StateBoundUnknown State = iota
	// StateCrawling means batches are being fetched.
	StateCrawling
	// StateDone is the terminal success state.
	StateDone
	// StateFailed is the terminal failure state.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBoundUnknown:
		return "bound_unknown"
	case StateCrawling:
		return "crawling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// transitions is the allowed state transition table.
var transitions = map[State][]State{
	StateBoundUnknown: {StateCrawling, StateDone, StateFailed},
	StateCrawling:     {StateBoundUnknown, StateDone, StateFailed},
	StateDone:         {},
	StateFailed:       {},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Result summarizes a finished crawl.
type Result struct {
	State   State
	Pages   int // pages fetched (probes excluded)
	Probes  int // existence probes issued
	Items   int // items collected across all batches
	MaxPage int // discovered or fixed upper bound, 0 if never established
}
