// Package playlist reads playlists and their aggregates from PostgreSQL.
package playlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/mapsearch/internal/db/postgres"
	"github.com/kailas-cloud/mapsearch/internal/domain"
	"github.com/kailas-cloud/mapsearch/internal/domain/listing"
	"github.com/kailas-cloud/mapsearch/internal/domain/listing/cursor"
	domplaylist "github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/request"
)

// ByUserPageSize is the fixed page size of by-user listings.
const ByUserPageSize = 20

// store hands out the querier bound to the request context (ISP).
type store interface {
	Querier(ctx context.Context) postgres.Querier
}

// Repo implements the relational reads of the search and listing use cases.
type Repo struct {
	store store
}

// New creates a playlist repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// selectFull projects a playlist with owner, optional curator and map stats.
// Deleted maps do not count towards stats.
const selectFull = `
SELECT p.id, p.name, p.description, p.type,
       p.created_at, p.updated_at, p.songs_changed_at, p.curated_at,
       o.id, o.name, o.avatar, o.verified_mapper, o.curator,
       c.id, c.name, c.avatar, c.verified_mapper, c.curator,
       count(m.id), count(DISTINCT m.uploader_id), coalesce(sum(m.duration), 0),
       coalesce(min(m.min_nps), 0), coalesce(max(m.max_nps), 0),
       coalesce(sum(m.upvotes), 0), coalesce(sum(m.downvotes), 0), coalesce(avg(m.score), 0)
FROM playlists p
JOIN users o ON o.id = p.owner_id
LEFT JOIN users c ON c.id = p.curator_id
LEFT JOIN playlist_maps pm ON pm.playlist_id = p.id
LEFT JOIN maps m ON m.id = pm.map_id AND m.deleted_at IS NULL`

const groupFull = `GROUP BY p.id, o.id, c.id`

var sortColumns = map[listing.Sort]string{
	listing.SortCreated:      "created_at",
	listing.SortSongsUpdated: "songs_changed_at",
	listing.SortUpdated:      "updated_at",
	listing.SortCurated:      "curated_at",
}

// FetchByIDs loads the non-deleted playlists among ids in one query. Result
// order is unspecified; missing ids are simply absent.
func (r *Repo) FetchByIDs(ctx context.Context, ids []int64) ([]domplaylist.Playlist, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql := selectFull + `
WHERE p.id = ANY($1) AND p.deleted_at IS NULL
` + groupFull

	rows, err := r.store.Querier(ctx).Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch %d playlists: %w: %w", len(ids), domain.ErrRecordStore, err)
	}
	out, err := collectPlaylists(rows)
	if err != nil {
		return nil, fmt.Errorf("fetch %d playlists: %w: %w", len(ids), domain.ErrRecordStore, err)
	}
	return out, nil
}

// ListLatest returns up to limit playlists on the far side of the listing
// boundary, ordered by (sort column, id). Rows come oldest first when the
// listing is ascending and newest first otherwise.
func (r *Repo) ListLatest(
	ctx context.Context, l *listing.Latest, vis domplaylist.Visibility, limit int,
) ([]domplaylist.Playlist, error) {
	col, ok := sortColumns[l.Sort()]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported sort %s", domain.ErrInvalidRequest, l.Sort())
	}
	col = "p." + col

	args := []any{string(domplaylist.TypePublic)}
	where := []string{"p.deleted_at IS NULL"}
	if viewer, ok := vis.Viewer(); ok {
		args = append(args, viewer)
		where = append(where, "(p.type = $1 OR p.owner_id = $2)")
	} else {
		where = append(where, "p.type = $1")
	}
	if l.Sort().RequiresValue() {
		where = append(where, col+" IS NOT NULL")
	}

	dir := "DESC"
	if l.Ascending() {
		dir = "ASC"
	}

	if b := l.Boundary(); b != nil {
		op := "<"
		if b.Direction() == cursor.Newer {
			op = ">"
		}
		args = append(args, b.Value(), b.ID())
		where = append(where, fmt.Sprintf("(%s, p.id) %s ($%d::timestamptz, $%d::bigint)", col, op, len(args)-1, len(args)))
	}
	args = append(args, limit)

	sql := fmt.Sprintf(`
WITH page AS (
    SELECT p.id FROM playlists p
    WHERE %s
    ORDER BY %s %s, p.id %s
    LIMIT $%d
)`, strings.Join(where, " AND "), col, dir, dir, len(args)) + selectFull + `
WHERE p.id IN (SELECT id FROM page)
` + groupFull + fmt.Sprintf(`
ORDER BY %s %s, p.id %s`, col, dir, dir)

	rows, err := r.store.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list latest: %w: %w", domain.ErrRecordStore, err)
	}
	out, err := collectPlaylists(rows)
	if err != nil {
		return nil, fmt.Errorf("list latest: %w: %w", domain.ErrRecordStore, err)
	}
	return out, nil
}

// ListByUser returns one page of a user's playlists: system playlists first,
// then newest first. Only the owner sees non-public playlists.
func (r *Repo) ListByUser(
	ctx context.Context, userID int64, vis domplaylist.Visibility, page int,
) ([]domplaylist.Playlist, error) {
	cte, orderBy, args := byUserPage(userID, vis, page)
	sql := cte + selectFull + `
WHERE p.id IN (SELECT id FROM page)
` + groupFull + `
ORDER BY ` + orderBy

	rows, err := r.store.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list by user %d: %w: %w", userID, domain.ErrRecordStore, err)
	}
	out, err := collectPlaylists(rows)
	if err != nil {
		return nil, fmt.Errorf("list by user %d: %w: %w", userID, domain.ErrRecordStore, err)
	}
	return out, nil
}

// ListByUserBasic is ListByUser without the owner, curator and map joins.
func (r *Repo) ListByUserBasic(
	ctx context.Context, userID int64, vis domplaylist.Visibility, page int,
) ([]domplaylist.Basic, error) {
	cte, orderBy, args := byUserPage(userID, vis, page)
	sql := cte + `
SELECT p.id, p.name, p.type, p.owner_id, p.created_at
FROM playlists p
WHERE p.id IN (SELECT id FROM page)
ORDER BY ` + orderBy

	rows, err := r.store.Querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list basic by user %d: %w: %w", userID, domain.ErrRecordStore, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domplaylist.Basic, error) {
		var (
			b   domplaylist.Basic
			typ string
		)
		err := row.Scan(&b.ID, &b.Name, &typ, &b.OwnerID, &b.CreatedAt)
		b.Type = domplaylist.Type(typ)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("list basic by user %d: %w: %w", userID, domain.ErrRecordStore, err)
	}
	return out, nil
}

// byUserPage selects the ids of one by-user page in a "page" CTE. The
// returned ORDER BY expression reuses its parameters.
func byUserPage(userID int64, vis domplaylist.Visibility, page int) (cte, orderBy string, args []any) {
	page = request.ClampPage(page)

	args = []any{userID, string(domplaylist.TypeSystem), ByUserPageSize, page * ByUserPageSize}
	where := "p.owner_id = $1 AND p.deleted_at IS NULL"
	if !vis.Owns(userID) {
		args = append(args, string(domplaylist.TypePublic))
		where += " AND p.type = $5"
	}

	orderBy = `(p.type = $2) DESC, p.created_at DESC, p.id DESC`
	cte = `
WITH page AS (
    SELECT p.id FROM playlists p
    WHERE ` + where + `
    ORDER BY ` + orderBy + `
    LIMIT $3 OFFSET $4
)`
	return cte, orderBy, args
}

// FindUserIDsByName resolves user names case-insensitively. Unknown names
// are skipped; ids come back ascending.
func (r *Repo) FindUserIDsByName(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}

	rows, err := r.store.Querier(ctx).Query(ctx,
		`SELECT id FROM users WHERE lower(name) = ANY($1) ORDER BY id`, lowered)
	if err != nil {
		return nil, fmt.Errorf("find users: %w: %w", domain.ErrRecordStore, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("find users: %w: %w", domain.ErrRecordStore, err)
	}
	return ids, nil
}

// ScanForIndex returns up to limit playlists with id > afterID, ascending,
// in their index document form. Deleted playlists are included and flagged.
func (r *Repo) ScanForIndex(ctx context.Context, afterID int64, limit int) ([]domplaylist.Document, error) {
	const sql = `
SELECT p.id, p.owner_id, p.curator_id, p.name, p.description, p.type,
       p.created_at, p.curated_at, p.deleted_at IS NOT NULL, o.verified_mapper,
       count(m.id), coalesce(min(m.min_nps), 0), coalesce(max(m.max_nps), 0), coalesce(avg(m.score), 0),
       coalesce(array_agg(DISTINCT m.uploader_id) FILTER (WHERE m.id IS NOT NULL), '{}')
FROM playlists p
JOIN users o ON o.id = p.owner_id
LEFT JOIN playlist_maps pm ON pm.playlist_id = p.id
LEFT JOIN maps m ON m.id = pm.map_id AND m.deleted_at IS NULL
WHERE p.id > $1
GROUP BY p.id, o.id
ORDER BY p.id
LIMIT $2`

	rows, err := r.store.Querier(ctx).Query(ctx, sql, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("scan for index: %w: %w", domain.ErrRecordStore, err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domplaylist.Document, error) {
		var (
			d   domplaylist.Document
			typ string
		)
		err := row.Scan(
			&d.ID, &d.OwnerID, &d.CuratorID, &d.Name, &d.Description, &typ,
			&d.CreatedAt, &d.CuratedAt, &d.Deleted, &d.Verified,
			&d.TotalMaps, &d.MinNps, &d.MaxNps, &d.VoteScore, &d.MapperIDs,
		)
		d.Type = domplaylist.Type(typ)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan for index: %w: %w", domain.ErrRecordStore, err)
	}
	return docs, nil
}

func collectPlaylists(rows pgx.Rows) ([]domplaylist.Playlist, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domplaylist.Playlist, error) {
		return scanPlaylist(row)
	})
}

func scanPlaylist(row pgx.Row) (domplaylist.Playlist, error) {
	var (
		p   domplaylist.Playlist
		typ string

		curatorID       *int64
		curatorName     *string
		curatorAvatar   *string
		curatorVerified *bool
		curatorCurator  *bool
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &typ,
		&p.CreatedAt, &p.UpdatedAt, &p.SongsChangedAt, &p.CuratedAt,
		&p.Owner.ID, &p.Owner.Name, &p.Owner.Avatar, &p.Owner.Verified, &p.Owner.Curator,
		&curatorID, &curatorName, &curatorAvatar, &curatorVerified, &curatorCurator,
		&p.Stats.TotalMaps, &p.Stats.MapperCount, &p.Stats.TotalDuration,
		&p.Stats.MinNps, &p.Stats.MaxNps,
		&p.Stats.UpVotes, &p.Stats.DownVotes, &p.Stats.AvgScore,
	)
	if err != nil {
		return domplaylist.Playlist{}, err
	}
	p.Type = domplaylist.Type(typ)

	if curatorID != nil {
		p.Curator = &domplaylist.User{
			ID:       *curatorID,
			Name:     deref(curatorName),
			Avatar:   deref(curatorAvatar),
			Verified: deref(curatorVerified),
			Curator:  deref(curatorCurator),
		}
	}
	return p, nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
