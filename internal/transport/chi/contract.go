package chi

import (
	"context"

	"github.com/kailas-cloud/mapsearch/internal/domain/listing"
	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/mapsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/mapsearch/internal/usecase/search"
)

// Searcher runs ranked playlist searches.
type Searcher interface {
	Search(ctx context.Context, req *request.Search, vis playlist.Visibility) (searchuc.Page, error)
}

// Lister serves listings straight from the relational store.
type Lister interface {
	Latest(ctx context.Context, l *listing.Latest, vis playlist.Visibility) (listing.Page[playlist.Playlist], error)
	ByUser(ctx context.Context, userID int64, vis playlist.Visibility, page int) ([]playlist.Playlist, error)
	ByUserBasic(ctx context.Context, userID int64, vis playlist.Visibility, page int) ([]playlist.Basic, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
