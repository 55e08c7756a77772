package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/mapsearch/internal/db"
	"github.com/kailas-cloud/mapsearch/internal/domain"
	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/order"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/plan"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/result"
)

// Computed sort properties.
const (
	relevanceProperty = "__relevance"
	randomProperty    = "__random"
	// randomModulus is prime, so (id*m + a) mod p permutes ids below p.
	randomModulus = 1000003
)

// store is the consumer interface for index queries (ISP).
type store interface {
	Aggregate(ctx context.Context, q *db.AggregateQuery) (*db.AggregateResult, error)
}

// Config holds index addressing for the repository.
type Config struct {
	IndexName    string
	QueryTimeout time.Duration
}

// Repo implements usecase/search.Index.
type Repo struct {
	store store
	cfg   Config
}

// New creates a search repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// Execute runs q against the playlist index and returns ids in rank order.
// A failed call never yields a partial result.
func (r *Repo) Execute(ctx context.Context, q plan.Query) (result.Set, error) {
	aq, err := r.buildAggregate(q)
	if err != nil {
		return result.Set{}, err
	}

	if r.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.QueryTimeout)
		defer cancel()
	}

	res, err := r.store.Aggregate(ctx, aq)
	if errors.Is(err, db.ErrUnsatisfiable) {
		return result.New(nil, 0), nil
	}
	if err != nil {
		return result.Set{}, fmt.Errorf("%w: %w", domain.ErrSearchBackendUnavailable, err)
	}

	if res == nil {
		return result.New(nil, 0), nil
	}
	ids, err := parseIDs(res.Rows)
	if err != nil {
		return result.Set{}, fmt.Errorf("%w: %w", domain.ErrSearchBackendUnavailable, err)
	}
	return result.New(ids, res.Total), nil
}

func (r *Repo) buildAggregate(q plan.Query) (*db.AggregateQuery, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidRequest)
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidRequest)
	}

	aq := &db.AggregateQuery{
		IndexName: r.cfg.IndexName,
		Text:      q.Parsed.FreeText(),
		Phrases:   q.Parsed.QuotedSections(),
		Filter:    q.Filter,
		Load:      []string{playlist.FieldID},
		Offset:    q.Offset,
		Limit:     q.Limit,
	}

	loaded := map[string]bool{playlist.FieldID: true}
	load := func(field string) {
		if !loaded[field] {
			loaded[field] = true
			aq.Load = append(aq.Load, field)
		}
	}

	for _, c := range q.Order.Clauses() {
		desc := c.Direction() == order.Desc
		switch c.Field() {
		case order.FieldScore:
			load(playlist.FieldVoteScore)
			aq.WithScores = true
			aq.Applies = append(aq.Applies, db.Apply{
				Expr: "@" + db.ScoreProperty + " * @" + playlist.FieldVoteScore,
				As:   relevanceProperty,
			})
			aq.SortBy = append(aq.SortBy, db.SortKey{Property: relevanceProperty, Desc: desc})
		case order.FieldRandom:
			aq.Applies = append(aq.Applies, db.Apply{
				Expr: randomExpr(q.Order.Seed()),
				As:   randomProperty,
			})
			aq.SortBy = append(aq.SortBy, db.SortKey{Property: randomProperty, Desc: desc})
		default:
			field := indexField(c.Field())
			load(field)
			aq.SortBy = append(aq.SortBy, db.SortKey{Property: field, Desc: desc})
		}
	}

	// Total order: equal sort values fall back to the id.
	aq.SortBy = append(aq.SortBy, db.SortKey{Property: playlist.FieldID})
	return aq, nil
}

func indexField(f order.Field) string {
	switch f {
	case order.FieldVoteScore:
		return playlist.FieldVoteScore
	case order.FieldCreated:
		return playlist.FieldCreated
	case order.FieldCurated:
		return playlist.FieldCurated
	}
	return string(f)
}

// randomExpr derives an affine permutation from the seed. Equal seeds give
// equal orderings on every page.
func randomExpr(seed int64) string {
	m, a := randomCoefficients(seed)
	return fmt.Sprintf("(@%s * %d + %d) %% %d", playlist.FieldID, m, a, randomModulus)
}

func randomCoefficients(seed int64) (m, a int64) {
	u := uint64(seed)
	m = int64(u%(randomModulus-1)) + 1
	a = int64((u / (randomModulus - 1)) % randomModulus)
	return m, a
}

func parseIDs(rows []map[string]string) ([]int64, error) {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		raw, ok := row[playlist.FieldID]
		if !ok {
			return nil, fmt.Errorf("row without %s", playlist.FieldID)
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
