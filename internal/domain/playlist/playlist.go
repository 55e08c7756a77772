// Package playlist holds the playlist record as served to clients.
package playlist

import "time"

// Type is the playlist visibility variant.
type Type string

// Playlist types.
const (
	TypePrivate Type = "Private"
	TypePublic  Type = "Public"
	TypeSystem  Type = "System"
	// TypeSearch playlists are generated from a saved search and have no fixed maps.
	TypeSearch Type = "Search"
)

// Types lists every playlist type in a stable order.
func Types() []Type { return []Type{TypePrivate, TypePublic, TypeSystem, TypeSearch} }

// IsValid checks if the type is supported.
func (t Type) IsValid() bool {
	switch t {
	case TypePrivate, TypePublic, TypeSystem, TypeSearch:
		return true
	}
	return false
}

// AnonymousAllowed reports whether playlists of this type may be listed to
// anyone, including unauthenticated callers.
func (t Type) AnonymousAllowed() bool {
	return t == TypePublic || t == TypeSearch
}

// AnonymousTypes returns the types visible without a viewer.
func AnonymousTypes() []Type {
	var out []Type
	for _, t := range Types() {
		if t.AnonymousAllowed() {
			out = append(out, t)
		}
	}
	return out
}

// User is the owner or curator sub-record.
type User struct {
	ID       int64
	Name     string
	Avatar   string
	Verified bool
	Curator  bool
}

// Stats are aggregates derived from the maps in a playlist.
type Stats struct {
	TotalMaps     int
	MapperCount   int
	TotalDuration int
	MinNps        float64
	MaxNps        float64
	UpVotes       int
	DownVotes     int
	AvgScore      float64
}

// Playlist is a playlist row enriched with its owner, optional curator and stats.
type Playlist struct {
	ID             int64
	Name           string
	Description    string
	Type           Type
	Owner          User
	Curator        *User
	CuratedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	SongsChangedAt time.Time
	Stats          Stats
}

// Basic is the playlist row alone, without owner, curator or map aggregates.
type Basic struct {
	ID        int64
	Name      string
	Type      Type
	OwnerID   int64
	CreatedAt time.Time
}
