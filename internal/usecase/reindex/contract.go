package reindex

import (
	"context"

	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
)

// Source streams playlists from the system of record in id order.
type Source interface {
	ScanForIndex(ctx context.Context, afterID int64, limit int) ([]playlist.Document, error)
}

// Index is the writable side of the search index.
type Index interface {
	EnsureIndex(ctx context.Context, recreate bool) (bool, error)
	Upsert(ctx context.Context, docs []playlist.Document) error
	Delete(ctx context.Context, ids []int64) error
	IndexedIDs(ctx context.Context) ([]int64, error)
}
