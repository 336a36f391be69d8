package crawl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned HTML per URL. URLs without an entry are
// missing pages; URLs in failURLs return a transport-level error.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	failURLs map[string]bool
	fetches  int
	probes   int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (Page, error) {
	f.mu.Lock()
	f.fetches++
	html, ok := f.pages[url]
	fail := f.failURLs[url]
	f.mu.Unlock()

	if fail {
		return Page{}, fmt.Errorf("server returned 500 for %s", url)
	}
	if !ok {
		return Page{URL: url, Missing: true}, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, err
	}
	return Page{URL: url, Doc: doc}, nil
}

func (f *fakeFetcher) Exists(_ context.Context, url string) (bool, error) {
	f.mu.Lock()
	f.probes++
	_, ok := f.pages[url]
	f.mu.Unlock()
	return ok, nil
}

func cardsHTML(n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<div class="card">item-%d</div>`, i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func listingSource(persisted *[]string) Source[string] {
	return Source[string]{
		Name:         "test",
		PageURL:      QueryPageURL("https://example.test/list"),
		CardSelector: ".card",
		Extract: func(_ *goquery.Document, cards *goquery.Selection) []string {
			var items []string
			cards.Each(func(_ int, s *goquery.Selection) {
				items = append(items, strings.TrimSpace(s.Text()))
			})
			return items
		},
		Persist: func(_ context.Context, items []string) error {
			*persisted = append(*persisted, items...)
			return nil
		},
	}
}

func TestRunDiscoversBound(t *testing.T) {
	t.Parallel()

	// Pages 1..13 have 2 cards each; everything beyond is missing.
	fetcher := &fakeFetcher{pages: map[string]string{}}
	urls := QueryPageURL("https://example.test/list")
	for p := 1; p <= 13; p++ {
		fetcher.pages[urls(p)] = cardsHTML(2)
	}

	var persisted []string
	src := listingSource(&persisted)

	engine := NewEngine(fetcher, nil, Config{BatchSize: 10})
	res, err := Run(context.Background(), engine, src)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 13, res.MaxPage)
	assert.Len(t, persisted, 26)

	// Probes: one for page 20 (miss), then 19..13 walking backward.
	// Batch one probed page 10 (hit) before that.
	assert.Equal(t, 9, fetcher.probes)
	assert.Equal(t, 13, fetcher.fetches)
}

func TestRunStopsOnEmptyBatch(t *testing.T) {
	t.Parallel()

	// Every page responds (no missing-page signal); only pages 1..3
	// carry cards. The all-empty second batch terminates the crawl.
	fetcher := &fakeFetcher{pages: map[string]string{}}
	urls := QueryPageURL("https://example.test/list")
	for p := 1; p <= 30; p++ {
		n := 0
		if p <= 3 {
			n = 4
		}
		fetcher.pages[urls(p)] = cardsHTML(n)
	}

	var persisted []string
	src := listingSource(&persisted)

	engine := NewEngine(fetcher, nil, Config{BatchSize: 10})
	res, err := Run(context.Background(), engine, src)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Zero(t, res.MaxPage)
	assert.Len(t, persisted, 12)
	assert.Equal(t, 20, fetcher.fetches)
}

func TestRunTreatsMissingPagesAsEmpty(t *testing.T) {
	t.Parallel()

	// Probes report every page as present, but fetches beyond page 2
	// come back 404. Missing pages count as empty, not as failures.
	fetcher := &fakeFetcher{pages: map[string]string{}}
	urls := QueryPageURL("https://example.test/list")
	fetcher.pages[urls(1)] = cardsHTML(1)
	fetcher.pages[urls(2)] = cardsHTML(1)

	probeAll := &probeAlwaysFetcher{inner: fetcher}

	var persisted []string
	src := listingSource(&persisted)

	engine := NewEngine(probeAll, nil, Config{BatchSize: 10})
	res, err := Run(context.Background(), engine, src)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Len(t, persisted, 2)
}

// probeAlwaysFetcher wraps a fetcher but claims every page exists.
type probeAlwaysFetcher struct {
	inner *fakeFetcher
}

func (p *probeAlwaysFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	return p.inner.Fetch(ctx, url)
}

func (p *probeAlwaysFetcher) Exists(context.Context, string) (bool, error) {
	return true, nil
}

func TestRunFatalFetchErrorKeepsPriorItems(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{}, failURLs: map[string]bool{}}
	urls := QueryPageURL("https://example.test/list")
	for p := 1; p <= 20; p++ {
		fetcher.pages[urls(p)] = cardsHTML(1)
	}
	fetcher.failURLs[urls(12)] = true

	var persisted []string
	src := listingSource(&persisted)

	engine := NewEngine(fetcher, nil, Config{BatchSize: 10})
	res, err := Run(context.Background(), engine, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 12")

	assert.Equal(t, StateFailed, res.State)
	// Batch one completed before the failure, so its items survive.
	assert.Len(t, persisted, 10)
}

func TestRunPersistErrorPropagates(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{}}
	urls := QueryPageURL("https://example.test/list")
	fetcher.pages[urls(1)] = cardsHTML(1)

	src := Source[string]{
		Name:         "test",
		PageURL:      urls,
		CardSelector: ".card",
		Extract: func(_ *goquery.Document, cards *goquery.Selection) []string {
			return []string{"x"}
		},
		Persist: func(context.Context, []string) error {
			return fmt.Errorf("constraint violation")
		},
	}

	engine := NewEngine(fetcher, nil, Config{BatchSize: 10})
	res, err := Run(context.Background(), engine, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint violation")
	assert.Equal(t, StateDone, res.State)
}

func TestRunFixedMaxPageSkipsProbing(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.test/bakers": cardsHTML(3),
	}}

	var persisted []string
	src := listingSource(&persisted)
	src.PageURL = SinglePageURL("https://example.test/bakers")
	src.MaxPage = 1

	engine := NewEngine(fetcher, nil, Config{BatchSize: 10})
	res, err := Run(context.Background(), engine, src)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 1, res.MaxPage)
	assert.Equal(t, 0, fetcher.probes)
	assert.Equal(t, 1, fetcher.fetches)
	assert.Len(t, persisted, 3)
}

func TestRunNoPagesAtAll(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{}}

	var persisted []string
	src := listingSource(&persisted)

	engine := NewEngine(fetcher, nil, Config{BatchSize: 10})
	res, err := Run(context.Background(), engine, src)
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Zero(t, res.Pages)
	assert.Empty(t, persisted)
}

func TestStateTransitionTable(t *testing.T) {
	t.Parallel()

	assert.True(t, StateBoundUnknown.CanTransition(StateCrawling))
	assert.True(t, StateBoundUnknown.CanTransition(StateDone))
	assert.True(t, StateBoundUnknown.CanTransition(StateFailed))
	assert.True(t, StateCrawling.CanTransition(StateBoundUnknown))
	assert.True(t, StateCrawling.CanTransition(StateDone))
	assert.True(t, StateCrawling.CanTransition(StateFailed))

	assert.False(t, StateDone.CanTransition(StateCrawling))
	assert.False(t, StateDone.CanTransition(StateFailed))
	assert.False(t, StateFailed.CanTransition(StateCrawling))
	assert.False(t, StateFailed.CanTransition(StateDone))
}

func TestPageWindow(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{1, 2, 3}, pageWindow(1, 3, 0))
	assert.Equal(t, []int{11, 12, 13}, pageWindow(11, 10, 13))
	assert.Empty(t, pageWindow(14, 10, 13))
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bound_unknown", StateBoundUnknown.String())
	assert.Equal(t, "crawling", StateCrawling.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}
