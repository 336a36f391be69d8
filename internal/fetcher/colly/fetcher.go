// Package collyfetcher retrieves listing pages using gocolly.
package collyfetcher

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"gbbo-crawler/internal/crawl"
)

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
}

// Fetcher implements crawl.Fetcher using the Colly collector. Each
// request runs on a clone of the base collector so per-collector
// visited-URL state never interferes across pages.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single GET and parses the body. A 404 or 410
// response is reported as a missing page, not an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (crawl.Page, error) {
	collector := f.newCollector()

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	err := runCollector(ctx, func() error { return collector.Visit(url) })
	if err != nil || fetchErr != nil {
		if status == http.StatusNotFound || status == http.StatusGone {
			return crawl.Page{URL: url, Missing: true}, nil
		}
		if err == nil {
			err = fetchErr
		}
		return crawl.Page{}, fmt.Errorf("fetch %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return crawl.Page{}, fmt.Errorf("parse %s: %w", url, err)
	}
	return crawl.Page{URL: url, Doc: doc}, nil
}

// Exists issues a HEAD probe. A method-not-allowed or not-implemented
// response still counts as existing, since some origins reject HEAD
// for pages they happily serve over GET.
func (f *Fetcher) Exists(ctx context.Context, url string) (bool, error) {
	collector := f.newCollector()

	var (
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	err := runCollector(ctx, func() error { return collector.Head(url) })
	switch {
	case status >= 200 && status < 300:
		return true, nil
	case status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented:
		return true, nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return false, nil
	}
	if err == nil {
		err = fetchErr
	}
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", url, err)
	}
	return false, nil
}

func (f *Fetcher) newCollector() *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	return collector
}

func runCollector(ctx context.Context, visit func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- visit()
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly request canceled: %w", ctx.Err())
	case err := <-done:
		return err
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
