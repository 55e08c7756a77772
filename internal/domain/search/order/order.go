// Package order resolves a requested sort order into the ordered clause list
// the index sorts by.
package order

import (
	"strings"

	"github.com/kailas-cloud/mapsearch/internal/domain/search/query"
)

// Order is the requested sort strategy.
type Order string

// Sort strategies.
const (
	Relevance Order = "Relevance"
	Rating    Order = "Rating"
	Latest    Order = "Latest"
	Curated   Order = "Curated"
	// Random is a per-seed permutation that is stable across pages.
	Random Order = "Random"
)

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	switch o {
	case Relevance, Rating, Latest, Curated, Random:
		return true
	}
	return false
}

// Parse maps a request value onto an Order case-insensitively.
// Empty or unknown values fall back to Relevance.
func Parse(s string) Order {
	for _, o := range []Order{Relevance, Rating, Latest, Curated, Random} {
		if strings.EqualFold(s, string(o)) {
			return o
		}
	}
	return Relevance
}

// Field is a sortable index field.
type Field string

// Sortable fields. Score and Random are computed per query.
const (
	FieldScore     Field = "score"
	FieldVoteScore Field = "vote_score"
	FieldCreated   Field = "created"
	FieldCurated   Field = "curated"
	FieldRandom    Field = "random"
)

// Direction is the sort direction of a clause.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Clause is a single (field, direction) sort key.
type Clause struct {
	field     Field
	direction Direction
}

// NewClause creates a sort clause.
func NewClause(f Field, d Direction) Clause { return Clause{field: f, direction: d} }

// Field returns the sort field.
func (c Clause) Field() Field { return c.field }

// Direction returns the sort direction.
func (c Clause) Direction() Direction { return c.direction }

// Spec is a resolved sort strategy.
type Spec struct {
	order      Order
	clauses    []Clause
	seed       int64
	downgraded bool
}

// Resolve picks the concrete strategy for a request. Relevance without free
// text left after quote and attribute stripping is downgraded to Latest.
// seed is only kept for Random.
func Resolve(requested Order, parsed query.Parsed, seed int64) Spec {
	if !requested.IsValid() {
		requested = Relevance
	}

	s := Spec{order: requested}
	if requested == Relevance && !parsed.HasFreeText() {
		s.order = Latest
		s.downgraded = true
	}

	switch s.order {
	case Relevance:
		s.clauses = []Clause{{FieldScore, Desc}}
	case Rating:
		s.clauses = []Clause{{FieldVoteScore, Desc}, {FieldCreated, Desc}}
	case Latest:
		s.clauses = []Clause{{FieldCreated, Desc}}
	case Curated:
		s.clauses = []Clause{{FieldCurated, Desc}, {FieldCreated, Desc}}
	case Random:
		s.clauses = []Clause{{FieldRandom, Desc}}
		s.seed = seed
	}
	return s
}

// Order returns the strategy after fallback rules.
func (s Spec) Order() Order { return s.order }

// Clauses returns a copy of the ordered sort clauses.
func (s Spec) Clauses() []Clause {
	out := make([]Clause, len(s.clauses))
	copy(out, s.clauses)
	return out
}

// Seed returns the random seed (zero unless the order is Random).
func (s Spec) Seed() int64 { return s.seed }

// Downgraded reports whether Relevance was replaced by Latest.
func (s Spec) Downgraded() bool { return s.downgraded }

// NeedsScore reports whether the index must compute a text-match score.
func (s Spec) NeedsScore() bool { return s.order == Relevance }
