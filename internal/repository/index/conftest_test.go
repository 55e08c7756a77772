package index

import (
	"context"
	"testing"

	"github.com/kailas-cloud/mapsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	replaceHashesFn func(ctx context.Context, items []db.Hash) error
	unlinkKeysFn    func(ctx context.Context, keys []string) error
	scanFn          func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn   func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn     func(ctx context.Context, name string) error
	indexExistsFn   func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) ReplaceHashes(ctx context.Context, items []db.Hash) error {
	if m.replaceHashesFn != nil {
		return m.replaceHashesFn(ctx, items)
	}
	return nil
}

func (m *mockStore) UnlinkKeys(ctx context.Context, keys []string) error {
	if m.unlinkKeysFn != nil {
		return m.unlinkKeysFn(ctx, keys)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, Config{IndexName: "mapsearch:playlists:idx", KeyPrefix: "mapsearch:playlist:"})
	return repo, ms
}
