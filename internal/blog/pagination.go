// ABOUTME: Comment pagination defaults and parameter parsing
// ABOUTME: Invalid or out-of-range values fall back to defaults rather than failing

package blog

import (
	"math"
	"strconv"

	"github.com/2389/quill/internal/store"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit within int for any accepted limit.
	MaxPage = math.MaxInt / MaxLimit
)

// NormalizePage applies defaults to page and limit, caps limit at MaxLimit
// and page at MaxPage. A page past the last comment is simply empty.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// ParsePage parses query string values. Missing or non-numeric values use the defaults.
func ParsePage(pageParam, limitParam string) (int, int) {
	page, err := strconv.Atoi(pageParam)
	if err != nil {
		page = DefaultPage
	}
	limit, err := strconv.Atoi(limitParam)
	if err != nil {
		limit = DefaultLimit
	}
	return NormalizePage(page, limit)
}

func window(page, limit int) store.Page {
	return store.Page{Skip: (page - 1) * limit, Limit: limit}
}
