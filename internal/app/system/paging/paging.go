// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size used when ?limit= is absent.
const DefaultLimit = 20

// MaxLimit caps ?limit= so a single request cannot pull a whole collection.
const MaxLimit = 200

// Params is a 1-based page request.
type Params struct {
	Page  int
	Limit int
}

// Parse reads ?page= and ?limit=. Missing or invalid values fall back to
// page 1 and DefaultLimit; limit is clamped to MaxLimit.
func Parse(r *http.Request) Params {
	return Params{
		Page:  positive(query.Get(r, "page"), 1),
		Limit: min(positive(query.Get(r, "limit"), DefaultLimit), MaxLimit),
	}
}

func positive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Skip returns the number of documents to skip.
func (p Params) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// ApplyToFind sets skip and limit on a Find.
func (p Params) ApplyToFind(find *options.FindOptions) *options.FindOptions {
	return find.SetSkip(p.Skip()).SetLimit(int64(p.Limit))
}

// Meta describes the page returned alongside list results.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// MetaFor builds Meta for a total count.
func (p Params) MetaFor(total int64) Meta {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Meta{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// Page is a list response with its paging metadata.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// NewPage pairs items with metadata, normalizing nil to an empty slice.
func NewPage[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Meta: p.MetaFor(total)}
}
