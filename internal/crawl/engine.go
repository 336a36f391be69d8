package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gbbo-crawler/internal/metrics"
)

const (
	defaultBatchSize    = 10
	defaultFetchTimeout = 15 * time.Second
)

// Config controls Engine behavior.
type Config struct {
	// BatchSize is the number of pages fetched concurrently per batch.
	BatchSize int
	// FetchTimeout bounds each individual fetch or probe.
	FetchTimeout time.Duration
	// BatchDelay is the fixed pause between batches.
	BatchDelay time.Duration
}

// Engine coordinates batched crawls over paginated listings. A single
// Engine is reusable across sources and safe for sequential runs.
type Engine struct {
	fetcher Fetcher
	logger  *zap.Logger
	cfg     Config
}

// NewEngine constructs an Engine.
func NewEngine(fetcher Fetcher, logger *zap.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Engine{fetcher: fetcher, logger: logger, cfg: cfg}
}

// Run crawls src until a terminal state is reached and then persists every
// item collected along the way. Items gathered before a batch failure are
// still handed to src.Persist.
func Run[T any](ctx context.Context, e *Engine, src Source[T]) (Result, error) {
	res := Result{MaxPage: src.MaxPage}
	maxPage := src.MaxPage

	state := StateBoundUnknown
	if maxPage > 0 {
		state = StateCrawling
	}

	var (
		items    []T
		crawlErr error
	)
	start := 1

	for {
		pages := pageWindow(start, e.cfg.BatchSize, maxPage)
		if len(pages) == 0 {
			state = e.advance(src.Name, state, StateDone)
			break
		}

		if state == StateBoundUnknown {
			bound, fixed := discoverBound(ctx, e, src.Name, src.PageURL, pages, &res)
			if fixed {
				maxPage = bound
				res.MaxPage = bound
				e.logger.Info("page bound discovered",
					zap.String("source", src.Name),
					zap.Int("max_page", bound),
				)
				// Bound fell below the current batch: nothing left to fetch.
				if maxPage < pages[0] {
					state = e.advance(src.Name, state, StateDone)
					break
				}
				pages = pageWindow(start, e.cfg.BatchSize, maxPage)
			}
		}
		state = e.advance(src.Name, state, StateCrawling)

		e.logger.Debug("processing batch",
			zap.String("source", src.Name),
			zap.Int("first_page", pages[0]),
			zap.Int("last_page", pages[len(pages)-1]),
		)

		batchItems, allEmpty, err := fetchBatch(ctx, e, src, pages)
		res.Pages += len(pages)
		if err != nil {
			metrics.ObserveBatch(src.Name, "failed")
			crawlErr = err
			state = e.advance(src.Name, state, StateFailed)
			break
		}
		items = append(items, batchItems...)
		res.Items = len(items)
		metrics.ObserveItems(src.Name, len(batchItems))

		if allEmpty {
			metrics.ObserveBatch(src.Name, "empty")
			state = e.advance(src.Name, state, StateDone)
			break
		}
		metrics.ObserveBatch(src.Name, "ok")

		if maxPage == 0 {
			state = e.advance(src.Name, state, StateBoundUnknown)
		}
		start += e.cfg.BatchSize

		if !e.pause(ctx) {
			crawlErr = ctx.Err()
			state = e.advance(src.Name, state, StateFailed)
			break
		}
	}

	res.State = state
	e.logger.Info("crawl finished",
		zap.String("source", src.Name),
		zap.Stringer("state", res.State),
		zap.Int("pages", res.Pages),
		zap.Int("probes", res.Probes),
		zap.Int("items", res.Items),
	)

	if len(items) > 0 && src.Persist != nil {
		if perr := src.Persist(ctx, items); perr != nil {
			perr = fmt.Errorf("persist %s items: %w", src.Name, perr)
			if crawlErr != nil {
				return res, errors.Join(crawlErr, perr)
			}
			return res, perr
		}
	}
	return res, crawlErr
}

// discoverBound probes the batch tail; when the tail page is missing it
// walks backward one page at a time to locate the highest page that still
// exists. The second return value reports whether the bound was fixed.
func discoverBound(
	ctx context.Context,
	e *Engine,
	name string,
	pageURL PageURLFunc,
	pages []int,
	res *Result,
) (int, bool) {
	tail := pages[len(pages)-1]
	if e.probe(ctx, name, pageURL(tail), res) {
		return 0, false
	}
	for p := tail - 1; p >= pages[0]; p-- {
		if e.probe(ctx, name, pageURL(p), res) {
			return p, true
		}
	}
	return pages[0] - 1, true
}

// probe issues a single existence check. Probe transport errors are logged
// and treated as "missing" so bound discovery degrades to a shorter crawl
// instead of failing it.
func (e *Engine) probe(ctx context.Context, name, url string, res *Result) bool {
	res.Probes++
	metrics.ObserveProbe(name)

	pctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	ok, err := e.fetcher.Exists(pctx, url)
	if err != nil {
		e.logger.Warn("existence probe failed; treating page as missing",
			zap.String("source", name),
			zap.String("url", url),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// fetchBatch fetches every page in the batch concurrently. Any fetch error
// aborts the whole batch. The bool result reports whether every page in
// the batch came back without items.
func fetchBatch[T any](ctx context.Context, e *Engine, src Source[T], pages []int) ([]T, bool, error) {
	type pageResult struct {
		items []T
		empty bool
	}
	results := make([]pageResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		g.Go(func() error {
			url := src.PageURL(page)
			fctx, cancel := context.WithTimeout(gctx, e.cfg.FetchTimeout)
			defer cancel()

			p, err := e.fetcher.Fetch(fctx, url)
			if err != nil {
				metrics.ObservePage(src.Name, "error")
				return fmt.Errorf("fetch page %d (%s): %w", page, url, err)
			}
			if p.Missing || p.Doc == nil {
				metrics.ObservePage(src.Name, "missing")
				results[i] = pageResult{empty: true}
				return nil
			}

			cards := p.Doc.Find(src.CardSelector)
			if cards.Length() == 0 {
				metrics.ObservePage(src.Name, "empty")
				results[i] = pageResult{empty: true}
				return nil
			}

			items := src.Extract(p.Doc, cards)
			metrics.ObservePage(src.Name, "ok")
			results[i] = pageResult{items: items, empty: len(items) == 0}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	var items []T
	allEmpty := true
	for _, r := range results {
		if !r.empty {
			allEmpty = false
		}
		items = append(items, r.items...)
	}
	return items, allEmpty, nil
}

// advance applies a state transition, enforcing the transition table.
func (e *Engine) advance(name string, from, to State) State {
	if from == to {
		return from
	}
	if !from.CanTransition(to) {
		e.logger.Error("illegal state transition",
			zap.String("source", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
		return from
	}
	return to
}

// pause waits out the configured inter-batch delay. Returns false when the
// context finished first.
func (e *Engine) pause(ctx context.Context) bool {
	if e.cfg.BatchDelay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(e.cfg.BatchDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// pageWindow lists the page numbers for the batch starting at start,
// clipped to maxPage when the bound is known.
func pageWindow(start, size, maxPage int) []int {
	pages := make([]int, 0, size)
	for p := start; p < start+size; p++ {
		if maxPage > 0 && p > maxPage {
			break
		}
		pages = append(pages, p)
	}
	return pages
}
