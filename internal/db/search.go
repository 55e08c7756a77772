package db

import "github.com/kailas-cloud/mapsearch/internal/domain/search/filter"

// ScoreProperty is the per-row text-match score added by AggregateQuery.WithScores.
const ScoreProperty = "__score"

// SortKey is one SORTBY property.
type SortKey struct {
	Property string
	Desc     bool
}

// Apply computes a derived property for every row.
type Apply struct {
	Expr string
	As   string
}

// AggregateQuery is the input for a ranked FT.AGGREGATE query.
type AggregateQuery struct {
	IndexName string
	// Text is free text matched against TEXT fields. Empty matches all.
	Text string
	// Phrases must each match verbatim.
	Phrases    []string
	Filter     filter.Expr
	WithScores bool
	Applies    []Apply
	SortBy     []SortKey
	Load       []string
	Offset     int
	Limit      int
}

// AggregateResult is the output of an aggregate query, rows in sort order.
type AggregateResult struct {
	Total int
	Rows  []map[string]string
}
