package search

import (
	"context"

	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/plan"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/result"
)

// Index runs compiled queries against the search index.
type Index interface {
	Execute(ctx context.Context, q plan.Query) (result.Set, error)
}

// Records reads playlists and users from the relational store.
type Records interface {
	FetchByIDs(ctx context.Context, ids []int64) ([]playlist.Playlist, error)
	FindUserIDsByName(ctx context.Context, names []string) ([]int64, error)
}

// Transactor runs a function inside one read-only snapshot.
type Transactor interface {
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
