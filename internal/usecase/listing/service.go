package listing

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mapsearch/internal/domain/listing"
	"github.com/kailas-cloud/mapsearch/internal/domain/listing/cursor"
	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/logger"
	"github.com/kailas-cloud/mapsearch/internal/metrics"
)

// Service serves keyset and by-user playlist listings.
type Service struct {
	records Records
}

// New creates a listing service.
func New(records Records) *Service {
	return &Service{records: records}
}

// Latest returns one page of the latest listing, newest first. Next pages
// older records and Prev pages newer ones; either is empty when the store
// has nothing further in that direction as far as this page can tell.
func (s *Service) Latest(
	ctx context.Context, l *listing.Latest, vis playlist.Visibility,
) (listing.Page[playlist.Playlist], error) {
	items, err := s.records.ListLatest(ctx, l, vis, l.PageSize()+1)
	metrics.ListingRequestsTotal.WithLabelValues("latest", metrics.StatusLabel(err)).Inc()
	if err != nil {
		return listing.Page[playlist.Playlist]{}, fmt.Errorf("list latest: %w", err)
	}

	more := len(items) > l.PageSize()
	if more {
		items = items[:l.PageSize()]
	}
	if l.Ascending() {
		slices.Reverse(items)
	}

	page := listing.Page[playlist.Playlist]{Items: items}
	if len(items) == 0 {
		return page, nil
	}

	// Reading ascending walked away from older records, so older ones exist;
	// reading descending from a boundary walked away from newer ones.
	hasOlder := more
	hasNewer := l.Boundary() != nil
	if l.Ascending() {
		hasOlder, hasNewer = true, more
	}

	if hasOlder {
		last := items[len(items)-1]
		page.Next = cursor.New(string(l.Sort()), SortValue(last, l.Sort()), last.ID, cursor.Older).Encode()
	}
	if hasNewer {
		first := items[0]
		page.Prev = cursor.New(string(l.Sort()), SortValue(first, l.Sort()), first.ID, cursor.Newer).Encode()
	}

	logger.FromContext(ctx).Debug("latest listing",
		zap.String("sort", string(l.Sort())),
		zap.Int("items", len(items)),
		zap.Bool("ascending", l.Ascending()),
	)
	return page, nil
}

// ByUser returns one page of a user's playlists.
func (s *Service) ByUser(
	ctx context.Context, userID int64, vis playlist.Visibility, page int,
) ([]playlist.Playlist, error) {
	items, err := s.records.ListByUser(ctx, userID, vis, page)
	metrics.ListingRequestsTotal.WithLabelValues("user", metrics.StatusLabel(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("list by user: %w", err)
	}
	return items, nil
}

// ByUserBasic returns one page of a user's playlists without joined records.
func (s *Service) ByUserBasic(
	ctx context.Context, userID int64, vis playlist.Visibility, page int,
) ([]playlist.Basic, error) {
	items, err := s.records.ListByUserBasic(ctx, userID, vis, page)
	metrics.ListingRequestsTotal.WithLabelValues("user_basic", metrics.StatusLabel(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("list basic by user: %w", err)
	}
	return items, nil
}

// SortValue returns the column a latest listing sorts p by.
func SortValue(p playlist.Playlist, sort listing.Sort) time.Time {
	switch sort {
	case listing.SortSongsUpdated:
		return p.SongsChangedAt
	case listing.SortUpdated:
		return p.UpdatedAt
	case listing.SortCurated:
		if p.CuratedAt != nil {
			return *p.CuratedAt
		}
		return time.Time{}
	}
	return p.CreatedAt
}
