package search

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/mapsearch/internal/db"
	"github.com/kailas-cloud/mapsearch/internal/domain"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/order"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/plan"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/query"
)

func testQuery(raw string, o order.Order, seed int64) plan.Query {
	parsed := query.Parse(raw)
	return plan.Query{
		Parsed: parsed,
		Filter: filter.Equals("type", "Public"),
		Order:  order.Resolve(o, parsed, seed),
		Offset: 20,
		Limit:  20,
	}
}

// --- Execute ---

func TestExecute_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.aggregateFn = func(_ context.Context, _ *db.AggregateQuery) (*db.AggregateResult, error) {
		return &db.AggregateResult{Total: 57, Rows: rows("12", "7", "12", "3")}, nil
	}

	set, err := repo.Execute(context.Background(), testQuery(`boss "epic fight"`, order.Relevance, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(set.IDs(), []int64{12, 7, 3}) {
		t.Errorf("IDs() = %v", set.IDs())
	}
	if set.Total() != 57 {
		t.Errorf("Total() = %d, want 57", set.Total())
	}

	q := ms.last
	if q.IndexName != "mapsearch:playlists:idx" {
		t.Errorf("IndexName = %q", q.IndexName)
	}
	if q.Text != "boss" || !reflect.DeepEqual(q.Phrases, []string{"epic fight"}) {
		t.Errorf("Text = %q, Phrases = %q", q.Text, q.Phrases)
	}
	if q.Offset != 20 || q.Limit != 20 {
		t.Errorf("window = %d/%d", q.Offset, q.Limit)
	}
}

func TestExecute_RelevanceScoresByVotes(t *testing.T) {
	repo, ms := newTestRepo(t)

	if _, err := repo.Execute(context.Background(), testQuery("boss", order.Relevance, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := ms.last
	if !q.WithScores {
		t.Error("expected WithScores")
	}
	wantApply := []db.Apply{{Expr: "@__score * @vote_score", As: "__relevance"}}
	if !reflect.DeepEqual(q.Applies, wantApply) {
		t.Errorf("Applies = %v", q.Applies)
	}
	wantSort := []db.SortKey{{Property: "__relevance", Desc: true}, {Property: "id"}}
	if !reflect.DeepEqual(q.SortBy, wantSort) {
		t.Errorf("SortBy = %v", q.SortBy)
	}
	if !reflect.DeepEqual(q.Load, []string{"id", "vote_score"}) {
		t.Errorf("Load = %v", q.Load)
	}
}

func TestExecute_SortClauses(t *testing.T) {
	tests := []struct {
		order order.Order
		want  []db.SortKey
	}{
		{order.Rating, []db.SortKey{{Property: "vote_score", Desc: true}, {Property: "created", Desc: true}, {Property: "id"}}},
		{order.Latest, []db.SortKey{{Property: "created", Desc: true}, {Property: "id"}}},
		{order.Curated, []db.SortKey{{Property: "curated", Desc: true}, {Property: "created", Desc: true}, {Property: "id"}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			repo, ms := newTestRepo(t)
			if _, err := repo.Execute(context.Background(), testQuery("boss", tt.order, 0)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(ms.last.SortBy, tt.want) {
				t.Errorf("SortBy = %v, want %v", ms.last.SortBy, tt.want)
			}
			if ms.last.WithScores {
				t.Error("only Relevance needs scores")
			}
		})
	}
}

func TestExecute_DowngradedRelevanceSortsByCreated(t *testing.T) {
	repo, ms := newTestRepo(t)

	if _, err := repo.Execute(context.Background(), testQuery(`"only a phrase"`, order.Relevance, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []db.SortKey{{Property: "created", Desc: true}, {Property: "id"}}
	if !reflect.DeepEqual(ms.last.SortBy, want) {
		t.Errorf("SortBy = %v", ms.last.SortBy)
	}
}

func TestExecute_RandomIsSeeded(t *testing.T) {
	repo, ms := newTestRepo(t)

	if _, err := repo.Execute(context.Background(), testQuery("", order.Random, 42)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := ms.last.Applies

	if _, err := repo.Execute(context.Background(), testQuery("", order.Random, 42)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, ms.last.Applies) {
		t.Errorf("same seed produced %v and %v", first, ms.last.Applies)
	}
	if len(first) != 1 || first[0].Expr != "(@id * 43 + 0) % 1000003" || first[0].As != "__random" {
		t.Errorf("Applies = %v", first)
	}

	if _, err := repo.Execute(context.Background(), testQuery("", order.Random, 7)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reflect.DeepEqual(first, ms.last.Applies) {
		t.Error("different seeds should produce different permutations")
	}
}

func TestRandomCoefficients(t *testing.T) {
	for _, seed := range []int64{0, 1, -1, 1000002, 1 << 40} {
		m, a := randomCoefficients(seed)
		if m < 1 || m >= randomModulus {
			t.Errorf("seed %d: m = %d out of range", seed, m)
		}
		if a < 0 || a >= randomModulus {
			t.Errorf("seed %d: a = %d out of range", seed, a)
		}
	}
}

func TestRandomPermutation_IsBijective(t *testing.T) {
	m, a := randomCoefficients(987654321)
	seen := make(map[int64]int64)
	for id := int64(1); id <= 5000; id++ {
		v := (id*m + a) % randomModulus
		if prev, dup := seen[v]; dup {
			t.Fatalf("ids %d and %d collide", prev, id)
		}
		seen[v] = id
	}
}

func TestExecute_BackendError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.aggregateFn = func(_ context.Context, _ *db.AggregateQuery) (*db.AggregateResult, error) {
		return nil, &db.Error{Op: db.OpAggregate, Err: errors.New("connection refused")}
	}

	set, err := repo.Execute(context.Background(), testQuery("boss", order.Latest, 0))
	if !errors.Is(err, domain.ErrSearchBackendUnavailable) {
		t.Fatalf("expected ErrSearchBackendUnavailable, got %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("failed call must not return ids, got %v", set.IDs())
	}
}

func TestExecute_UnparsableRowFailsWhole(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.aggregateFn = func(_ context.Context, _ *db.AggregateQuery) (*db.AggregateResult, error) {
		return &db.AggregateResult{Total: 2, Rows: rows("1", "abc")}, nil
	}

	if _, err := repo.Execute(context.Background(), testQuery("boss", order.Latest, 0)); !errors.Is(err, domain.ErrSearchBackendUnavailable) {
		t.Fatalf("expected ErrSearchBackendUnavailable, got %v", err)
	}
}

func TestExecute_UnsatisfiableFilterIsEmpty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.aggregateFn = func(_ context.Context, _ *db.AggregateQuery) (*db.AggregateResult, error) {
		return nil, db.ErrUnsatisfiable
	}

	set, err := repo.Execute(context.Background(), testQuery("boss", order.Latest, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.IsEmpty() {
		t.Errorf("expected empty set, got %v", set.IDs())
	}
}

func TestExecute_InvalidWindow(t *testing.T) {
	repo, ms := newTestRepo(t)
	q := testQuery("boss", order.Latest, 0)
	q.Limit = 0

	if _, err := repo.Execute(context.Background(), q); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if ms.last != nil {
		t.Error("store must not be called")
	}
}

func TestExecute_AppliesQueryTimeout(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, Config{IndexName: "idx", QueryTimeout: 50 * time.Millisecond})
	ms.aggregateFn = func(ctx context.Context, _ *db.AggregateQuery) (*db.AggregateResult, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a deadline on the index call")
		}
		return &db.AggregateResult{}, nil
	}

	if _, err := repo.Execute(context.Background(), testQuery("boss", order.Latest, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
