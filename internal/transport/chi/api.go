package chi

import (
	"time"

	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
)

// ErrorCode is the machine-readable error kind in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeNotFound           ErrorCode = "not_found"
	CodeBackendUnavailable ErrorCode = "search_backend_unavailable"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// UserResponse is an owner or curator.
type UserResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar,omitempty"`
	VerifiedMapper bool   `json:"verifiedMapper"`
	Curator        bool   `json:"curator"`
}

// StatsResponse carries map-derived playlist aggregates.
type StatsResponse struct {
	TotalMaps     int     `json:"totalMaps"`
	MapperCount   int     `json:"mapperCount"`
	TotalDuration int     `json:"totalDuration"`
	MinNps        float64 `json:"minNps"`
	MaxNps        float64 `json:"maxNps"`
	UpVotes       int     `json:"upVotes"`
	DownVotes     int     `json:"downVotes"`
	AvgScore      float64 `json:"avgScore"`
}

// PlaylistResponse is one playlist with owner, curator and stats.
type PlaylistResponse struct {
	PlaylistID     int64         `json:"playlistId"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Type           string        `json:"type"`
	Owner          UserResponse  `json:"owner"`
	Curator        *UserResponse `json:"curator,omitempty"`
	Stats          StatsResponse `json:"stats"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	SongsChangedAt time.Time     `json:"songsChangedAt"`
	CuratedAt      *time.Time    `json:"curatedAt,omitempty"`
}

// SearchResponse is a page of ranked search results.
type SearchResponse struct {
	Docs      []PlaylistResponse `json:"docs"`
	SortOrder string             `json:"sortOrder"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"pageSize"`
}

// LatestResponse is a keyset page of the latest listing.
type LatestResponse struct {
	Docs []PlaylistResponse `json:"docs"`
	Next string             `json:"next,omitempty"`
	Prev string             `json:"prev,omitempty"`
}

// UserPlaylistsResponse is an offset page of a user's playlists.
type UserPlaylistsResponse struct {
	Docs []PlaylistResponse `json:"docs"`
	Page int                `json:"page"`
}

// PlaylistBasicResponse is a playlist without owner, curator or stats.
type PlaylistBasicResponse struct {
	PlaylistID int64     `json:"playlistId"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	OwnerID    int64     `json:"ownerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserPlaylistsBasicResponse is an offset page of a user's basic playlists.
type UserPlaylistsBasicResponse struct {
	Docs []PlaylistBasicResponse `json:"docs"`
	Page int                     `json:"page"`
}

// HealthResponse reports per-component status.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func playlistToResponse(p *playlist.Playlist) PlaylistResponse {
	resp := PlaylistResponse{
		PlaylistID:  p.ID,
		Name:        p.Name,
		Description: p.Description,
		Type:        string(p.Type),
		Owner:       userToResponse(&p.Owner),
		Stats: StatsResponse{
			TotalMaps:     p.Stats.TotalMaps,
			MapperCount:   p.Stats.MapperCount,
			TotalDuration: p.Stats.TotalDuration,
			MinNps:        p.Stats.MinNps,
			MaxNps:        p.Stats.MaxNps,
			UpVotes:       p.Stats.UpVotes,
			DownVotes:     p.Stats.DownVotes,
			AvgScore:      p.Stats.AvgScore,
		},
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		SongsChangedAt: p.SongsChangedAt,
		CuratedAt:      p.CuratedAt,
	}
	if p.Curator != nil {
		c := userToResponse(p.Curator)
		resp.Curator = &c
	}
	return resp
}

func userToResponse(u *playlist.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Avatar:         u.Avatar,
		VerifiedMapper: u.Verified,
		Curator:        u.Curator,
	}
}

func playlistsToResponse(items []playlist.Playlist) []PlaylistResponse {
	out := make([]PlaylistResponse, len(items))
	for i := range items {
		out[i] = playlistToResponse(&items[i])
	}
	return out
}

func basicsToResponse(items []playlist.Basic) []PlaylistBasicResponse {
	out := make([]PlaylistBasicResponse, len(items))
	for i, b := range items {
		out[i] = PlaylistBasicResponse{
			PlaylistID: b.ID,
			Name:       b.Name,
			Type:       string(b.Type),
			OwnerID:    b.OwnerID,
			CreatedAt:  b.CreatedAt,
		}
	}
	return out
}
