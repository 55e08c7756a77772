package listing

import (
	"context"

	"github.com/kailas-cloud/mapsearch/internal/domain/listing"
	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
)

// Records lists playlists straight from the relational store.
type Records interface {
	ListLatest(ctx context.Context, l *listing.Latest, vis playlist.Visibility, limit int) ([]playlist.Playlist, error)
	ListByUser(ctx context.Context, userID int64, vis playlist.Visibility, page int) ([]playlist.Playlist, error)
	ListByUserBasic(ctx context.Context, userID int64, vis playlist.Visibility, page int) ([]playlist.Basic, error)
}
