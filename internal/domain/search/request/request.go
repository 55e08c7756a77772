// Package request holds the validated search request.
package request

import (
	"errors"
	"math"
	"time"

	"github.com/kailas-cloud/mapsearch/internal/domain/search/order"
)

// Paging limits.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps page*pageSize within int32 for any page size.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// ErrSeedRequired is returned for Random sort without a seed.
var ErrSeedRequired = errors.New("seed is required for Random sort order")

// Params carries raw request parameters. Nil pointers mean "not supplied".
type Params struct {
	Query        string
	SortOrder    string
	Page         int
	PageSize     int
	MinNps       *float64
	MaxNps       *float64
	From         *time.Time
	To           *time.Time
	Curated      *bool
	Verified     *bool
	IncludeEmpty bool
	Seed         *int64
}

// Search is a validated search request.
type Search struct {
	query        string
	sortOrder    order.Order
	page         int
	pageSize     int
	minNps       *float64
	maxNps       *float64
	from         *time.Time
	to           *time.Time
	curated      *bool
	verified     *bool
	includeEmpty bool
	seed         int64
}

// New validates and normalizes search parameters.
// Out-of-range paging clamps: page is kept in [0, MaxPage], pageSize falls back
// to DefaultPageSize when unset and is capped at MaxPageSize.
// Cross-field combinations such as minNps > maxNps are accepted as-is.
func New(p Params) (Search, error) {
	sortOrder := order.Parse(p.SortOrder)

	var seed int64
	if sortOrder == order.Random {
		if p.Seed == nil {
			return Search{}, ErrSeedRequired
		}
		seed = *p.Seed
	}

	return Search{
		query:        p.Query,
		sortOrder:    sortOrder,
		page:         ClampPage(p.Page),
		pageSize:     ClampPageSize(p.PageSize),
		minNps:       p.MinNps,
		maxNps:       p.MaxNps,
		from:         p.From,
		to:           p.To,
		curated:      p.Curated,
		verified:     p.Verified,
		includeEmpty: p.IncludeEmpty,
		seed:         seed,
	}, nil
}

// ClampPage keeps a zero-based page number in [0, MaxPage].
func ClampPage(n int) int {
	return min(max(n, 0), MaxPage)
}

// ClampPageSize applies the default and the [1, MaxPageSize] window.
func ClampPageSize(n int) int {
	switch {
	case n <= 0:
		return DefaultPageSize
	case n > MaxPageSize:
		return MaxPageSize
	}
	return n
}

// Query returns the raw query text.
func (s *Search) Query() string { return s.query }

// SortOrder returns the requested (not yet resolved) sort order.
func (s *Search) SortOrder() order.Order { return s.sortOrder }

// Page returns the zero-based page number.
func (s *Search) Page() int { return s.page }

// PageSize returns the clamped page size.
func (s *Search) PageSize() int { return s.pageSize }

// Offset returns the index offset of the first result on the page.
func (s *Search) Offset() int { return s.page * s.pageSize }

// MinNps returns the lower nps bound, nil if unbounded.
func (s *Search) MinNps() *float64 { return s.minNps }

// MaxNps returns the upper nps bound, nil if unbounded.
func (s *Search) MaxNps() *float64 { return s.maxNps }

// From returns the earliest creation time, nil if unbounded.
func (s *Search) From() *time.Time { return s.from }

// To returns the latest creation time, nil if unbounded.
func (s *Search) To() *time.Time { return s.to }

// Curated returns the curation flag filter, nil if not filtered.
func (s *Search) Curated() *bool { return s.curated }

// Verified returns the verified-mapper flag filter, nil if not filtered.
func (s *Search) Verified() *bool { return s.verified }

// IncludeEmpty reports whether playlists without maps are returned.
func (s *Search) IncludeEmpty() bool { return s.includeEmpty }

// Seed returns the random seed (only meaningful for Random).
func (s *Search) Seed() int64 { return s.seed }
