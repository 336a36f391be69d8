package crawl

import (
	"fmt"
	"net/url"
	"strings"
)

// PageURLFunc maps a 1-based page number to a concrete request URL.
type PageURLFunc func(page int) string

// QueryPageURL paginates with a query parameter: base?page=N.
func QueryPageURL(base string) PageURLFunc {
	trimmed := strings.TrimRight(base, "/")
	return func(page int) string {
		return fmt.Sprintf("%s?page=%d", trimmed, page)
	}
}

// PathPageURL paginates with a path segment: base/page/N, optionally
// carrying a filter query parameter: base/page/N?param=value.
func PathPageURL(base, param, value string) PageURLFunc {
	trimmed := strings.TrimRight(base, "/")
	return func(page int) string {
		u := fmt.Sprintf("%s/page/%d", trimmed, page)
		if param != "" && value != "" {
			u += "?" + param + "=" + url.QueryEscape(value)
		}
		return u
	}
}

// SinglePageURL ignores the page number: listings whose content is all on
// one page. Pair with Source.MaxPage = 1.
func SinglePageURL(base string) PageURLFunc {
	return func(int) string {
		return base
	}
}
