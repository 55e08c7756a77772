package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/mapsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	aggregateFn func(ctx context.Context, q *db.AggregateQuery) (*db.AggregateResult, error)
	last        *db.AggregateQuery
}

func (m *mockStore) Aggregate(ctx context.Context, q *db.AggregateQuery) (*db.AggregateResult, error) {
	m.last = q
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx, q)
	}
	return &db.AggregateResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, Config{IndexName: "mapsearch:playlists:idx"})
	return repo, ms
}

func rows(ids ...string) []map[string]string {
	out := make([]map[string]string, len(ids))
	for i, id := range ids {
		out[i] = map[string]string{"id": id}
	}
	return out
}
