package playlist_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/mapsearch/internal/db/postgres"
	"github.com/kailas-cloud/mapsearch/internal/db/postgres/pgtest"
	"github.com/kailas-cloud/mapsearch/internal/domain/listing"
	"github.com/kailas-cloud/mapsearch/internal/domain/listing/cursor"
	domplaylist "github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/repository/playlist"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t   *testing.T
	db  *postgres.DB
	ctx context.Context
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, db: pgtest.Start(t), ctx: context.Background()}
}

func (f *fixture) user(name string, verified bool) int64 {
	f.t.Helper()
	var id int64
	err := f.db.Querier(f.ctx).QueryRow(f.ctx,
		`INSERT INTO users (name, verified_mapper) VALUES ($1, $2) RETURNING id`, name, verified,
	).Scan(&id)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) mapOf(uploader int64, minNps, maxNps, score float64, deleted bool) int64 {
	f.t.Helper()
	var deletedAt *time.Time
	if deleted {
		deletedAt = &base
	}
	var id int64
	err := f.db.Querier(f.ctx).QueryRow(f.ctx, `
INSERT INTO maps (uploader_id, name, duration, min_nps, max_nps, upvotes, downvotes, score, deleted_at)
VALUES ($1, 'map', 120, $2, $3, 10, 2, $4, $5) RETURNING id`,
		uploader, minNps, maxNps, score, deletedAt,
	).Scan(&id)
	require.NoError(f.t, err)
	return id
}

type playlistRow struct {
	owner     int64
	curator   *int64
	typ       domplaylist.Type
	created   time.Time
	curatedAt *time.Time
	deleted   bool
	maps      []int64
}

func (f *fixture) playlist(r playlistRow) int64 {
	f.t.Helper()
	var deletedAt *time.Time
	if r.deleted {
		deletedAt = &base
	}
	var id int64
	err := f.db.Querier(f.ctx).QueryRow(f.ctx, `
INSERT INTO playlists (owner_id, curator_id, name, type, created_at, updated_at, songs_changed_at, curated_at, deleted_at)
VALUES ($1, $2, 'pl', $3, $4, $4, $4, $5, $6) RETURNING id`,
		r.owner, r.curator, string(r.typ), r.created, r.curatedAt, deletedAt,
	).Scan(&id)
	require.NoError(f.t, err)

	for i, m := range r.maps {
		_, err := f.db.Querier(f.ctx).Exec(f.ctx,
			`INSERT INTO playlist_maps (playlist_id, map_id, ord) VALUES ($1, $2, $3)`, id, m, float64(i))
		require.NoError(f.t, err)
	}
	return id
}

func ids(ps []domplaylist.Playlist) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func cursorAt(p domplaylist.Playlist) string {
	return cursor.New(string(listing.SortCreated), p.CreatedAt, p.ID, cursor.Older).Encode()
}

func TestFetchByIDs_JoinsOwnerCuratorAndStats(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)

	owner := f.user("Rustic", true)
	curator := f.user("Curly", false)
	other := f.user("Other", false)
	m1 := f.mapOf(owner, 2, 6, 0.9, false)
	m2 := f.mapOf(other, 4, 9.5, 0.7, false)
	m3 := f.mapOf(other, 1, 20, 0.1, true)

	curatedAt := base.Add(time.Hour)
	withStats := f.playlist(playlistRow{
		owner: owner, curator: &curator, typ: domplaylist.TypePublic,
		created: base, curatedAt: &curatedAt, maps: []int64{m1, m2, m3},
	})
	empty := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypeSearch, created: base})
	deleted := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base, deleted: true})

	got, err := repo.FetchByIDs(f.ctx, []int64{withStats, empty, deleted, 999999})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[int64]domplaylist.Playlist{}
	for _, p := range got {
		byID[p.ID] = p
	}

	p := byID[withStats]
	assert.Equal(t, domplaylist.TypePublic, p.Type)
	assert.Equal(t, "Rustic", p.Owner.Name)
	assert.True(t, p.Owner.Verified)
	require.NotNil(t, p.Curator)
	assert.Equal(t, curator, p.Curator.ID)
	require.NotNil(t, p.CuratedAt)
	assert.True(t, p.CuratedAt.Equal(curatedAt))
	assert.Equal(t, 2, p.Stats.TotalMaps, "deleted maps are not counted")
	assert.Equal(t, 2, p.Stats.MapperCount)
	assert.Equal(t, 240, p.Stats.TotalDuration)
	assert.InDelta(t, 2.0, p.Stats.MinNps, 1e-9)
	assert.InDelta(t, 9.5, p.Stats.MaxNps, 1e-9)
	assert.Equal(t, 20, p.Stats.UpVotes)
	assert.InDelta(t, 0.8, p.Stats.AvgScore, 1e-9)

	e := byID[empty]
	assert.Nil(t, e.Curator)
	assert.Nil(t, e.CuratedAt)
	assert.Equal(t, 0, e.Stats.TotalMaps)
}

func TestFetchByIDs_Empty(t *testing.T) {
	f := newFixture(t)
	got, err := playlist.New(f.db).FetchByIDs(f.ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListLatest_KeysetWalkIsComplete(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)
	owner := f.user("Owner", false)

	// Pairs share a timestamp so the id tiebreak is exercised.
	var want []int64
	for i := 0; i < 7; i++ {
		want = append(want, f.playlist(playlistRow{
			owner: owner, typ: domplaylist.TypePublic, created: base.Add(time.Duration(i/2) * time.Minute),
		}))
	}
	// newest first: higher timestamp, then higher id
	for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
		want[i], want[j] = want[j], want[i]
	}

	var seen []int64
	token := ""
	for page := 0; page < 10; page++ {
		l, err := listing.NewLatest(listing.SortCreated, token, nil, nil, 3)
		require.NoError(t, err)
		got, err := repo.ListLatest(f.ctx, &l, domplaylist.Anonymous(), l.PageSize())
		require.NoError(t, err)
		if len(got) == 0 {
			break
		}
		seen = append(seen, ids(got)...)
		last := got[len(got)-1]
		token = cursorAt(last)
	}
	assert.Equal(t, want, seen)
}

func TestListLatest_AfterReadsAscending(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)
	owner := f.user("Owner", false)

	a := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base})
	b := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base.Add(time.Minute)})
	c := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base.Add(2 * time.Minute)})

	after := base
	l, err := listing.NewLatest(listing.SortCreated, "", nil, &after, 10)
	require.NoError(t, err)
	got, err := repo.ListLatest(f.ctx, &l, domplaylist.Anonymous(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{b, c}, ids(got))

	before := base.Add(2 * time.Minute)
	l, err = listing.NewLatest(listing.SortCreated, "", &before, &after, 10)
	require.NoError(t, err)
	got, err = repo.ListLatest(f.ctx, &l, domplaylist.Anonymous(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{b, a}, ids(got), "before wins over after")
}

func TestListLatest_Visibility(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)
	me := f.user("Me", false)
	other := f.user("Other", false)

	public := f.playlist(playlistRow{owner: other, typ: domplaylist.TypePublic, created: base})
	f.playlist(playlistRow{owner: other, typ: domplaylist.TypePrivate, created: base})
	mine := f.playlist(playlistRow{owner: me, typ: domplaylist.TypePrivate, created: base})
	f.playlist(playlistRow{owner: me, typ: domplaylist.TypePublic, created: base, deleted: true})

	l, err := listing.NewLatest(listing.SortCreated, "", nil, nil, 10)
	require.NoError(t, err)

	got, err := repo.ListLatest(f.ctx, &l, domplaylist.Anonymous(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{public}, ids(got))

	got, err = repo.ListLatest(f.ctx, &l, domplaylist.ViewerOf(me), 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{public, mine}, ids(got))
}

func TestListLatest_CuratedRequiresValue(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)
	owner := f.user("Owner", false)
	curatedAt := base.Add(time.Hour)

	curated := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base, curatedAt: &curatedAt})
	f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base})

	l, err := listing.NewLatest(listing.SortCurated, "", nil, nil, 10)
	require.NoError(t, err)
	got, err := repo.ListLatest(f.ctx, &l, domplaylist.Anonymous(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{curated}, ids(got))
}

func TestListByUser_SystemFirstAndOwnerVisibility(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)
	owner := f.user("Owner", false)

	old := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base})
	newer := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base.Add(time.Hour)})
	private := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePrivate, created: base.Add(2 * time.Hour)})
	system := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypeSystem, created: base.Add(-time.Hour)})

	got, err := repo.ListByUser(f.ctx, owner, domplaylist.ViewerOf(owner), 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{system, private, newer, old}, ids(got))

	got, err = repo.ListByUser(f.ctx, owner, domplaylist.Anonymous(), 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{newer, old}, ids(got))

	got, err = repo.ListByUser(f.ctx, owner, domplaylist.ViewerOf(owner), 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListByUserBasic_SameOrderWithoutJoins(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)
	owner := f.user("Owner", false)

	public := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base})
	private := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePrivate, created: base.Add(time.Hour)})
	system := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypeSystem, created: base.Add(-time.Hour)})

	got, err := repo.ListByUserBasic(f.ctx, owner, domplaylist.ViewerOf(owner), 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{system, private, public}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, domplaylist.TypeSystem, got[0].Type)
	assert.Equal(t, owner, got[0].OwnerID)

	got, err = repo.ListByUserBasic(f.ctx, owner, domplaylist.Anonymous(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, public, got[0].ID)
}

func TestListByUser_HugePageIsEmptyNotError(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)
	owner := f.user("Owner", false)
	f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base})

	got, err := repo.ListByUser(f.ctx, owner, domplaylist.Anonymous(), math.MaxInt64)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindUserIDsByName_CaseInsensitive(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)
	rustic := f.user("Rustic", false)
	joe := f.user("joe", false)

	got, err := repo.FindUserIDsByName(f.ctx, []string{"rUSTIC", "JOE", "nobody"})
	require.NoError(t, err)
	assert.Equal(t, []int64{rustic, joe}, got)

	got, err = repo.FindUserIDsByName(f.ctx, []string{"nobody"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanForIndex_PagesByID(t *testing.T) {
	f := newFixture(t)
	repo := playlist.New(f.db)
	owner := f.user("Owner", true)
	mapper := f.user("Mapper", false)
	m1 := f.mapOf(mapper, 3, 7, 0.5, false)
	m2 := f.mapOf(owner, 2, 8, 1.0, false)

	first := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePublic, created: base, maps: []int64{m1, m2}})
	second := f.playlist(playlistRow{owner: owner, typ: domplaylist.TypePrivate, created: base, deleted: true})

	docs, err := repo.ScanForIndex(f.ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	d := docs[0]
	assert.Equal(t, first, d.ID)
	assert.Equal(t, 2, d.TotalMaps)
	assert.InDelta(t, 2.0, d.MinNps, 1e-9)
	assert.InDelta(t, 8.0, d.MaxNps, 1e-9)
	assert.InDelta(t, 0.75, d.VoteScore, 1e-9)
	assert.True(t, d.Verified)
	assert.ElementsMatch(t, []int64{owner, mapper}, d.MapperIDs)
	assert.False(t, d.Deleted)

	docs, err = repo.ScanForIndex(f.ctx, first, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, second, docs[0].ID)
	assert.True(t, docs[0].Deleted)
	assert.Empty(t, docs[0].MapperIDs)
}
