// Package plan holds a search compiled for one index call.
package plan

import (
	"github.com/kailas-cloud/mapsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/order"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/query"
)

// Query is one compiled index query: text to match, the filter tree, the
// resolved sort and the paging window.
type Query struct {
	Parsed query.Parsed
	Filter filter.Expr
	Order  order.Spec
	Offset int
	Limit  int
}
