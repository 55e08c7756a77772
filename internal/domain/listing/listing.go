// Package listing describes keyset-paginated listings served straight from
// the relational store.
package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/mapsearch/internal/domain/listing/cursor"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/request"
)

// Sort selects the timestamp column a latest listing is ordered by.
type Sort string

// Latest listing sort fields.
const (
	SortCreated      Sort = "CREATED"
	SortSongsUpdated Sort = "SONGS_UPDATED"
	SortUpdated      Sort = "UPDATED"
	SortCurated      Sort = "CURATED"
)

// ParseSort maps a request value onto a Sort. Empty selects SortCreated.
func ParseSort(s string) (Sort, error) {
	if s == "" {
		return SortCreated, nil
	}
	for _, v := range []Sort{SortCreated, SortSongsUpdated, SortUpdated, SortCurated} {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid sort: %q", s)
}

// RequiresValue reports whether rows with a NULL sort column are excluded.
func (s Sort) RequiresValue() bool { return s == SortCurated }

// Latest is a validated latest-listing request.
type Latest struct {
	sort     Sort
	boundary *cursor.Cursor
	pageSize int
}

// NewLatest validates a latest-listing request. A cursor token takes
// precedence over timestamps, and before wins over after.
func NewLatest(sort Sort, token string, before, after *time.Time, pageSize int) (Latest, error) {
	l := Latest{sort: sort, pageSize: request.ClampPageSize(pageSize)}

	switch {
	case token != "":
		c, err := cursor.Decode(token)
		if err != nil {
			return Latest{}, err
		}
		if c.Sort() != string(sort) {
			return Latest{}, fmt.Errorf("cursor was issued for sort %s", c.Sort())
		}
		l.boundary = &c
	case before != nil:
		c := cursor.Before(string(sort), *before)
		l.boundary = &c
	case after != nil:
		c := cursor.After(string(sort), *after)
		l.boundary = &c
	}
	return l, nil
}

// Sort returns the sort field.
func (l *Latest) Sort() Sort { return l.sort }

// Boundary returns the keyset boundary, nil for the first page.
func (l *Latest) Boundary() *cursor.Cursor { return l.boundary }

// PageSize returns the clamped page size.
func (l *Latest) PageSize() int { return l.pageSize }

// Ascending reports whether the store must be read oldest-first.
func (l *Latest) Ascending() bool {
	return l.boundary != nil && l.boundary.Direction() == cursor.Newer
}

// Page is one page of a latest listing, always newest first.
type Page[T any] struct {
	Items []T
	Next  string
	Prev  string
}
