// Package index maintains the playlist search index: its FT schema and the
// hash documents it covers.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/mapsearch/internal/db"
	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
)

// store is the consumer interface for index maintenance (ISP).
type store interface {
	ReplaceHashes(ctx context.Context, items []db.Hash) error
	UnlinkKeys(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Config names the index and the hash key prefix it covers.
type Config struct {
	IndexName string
	KeyPrefix string
}

// Repo implements usecase/reindex.Index.
type Repo struct {
	store store
	cfg   Config
}

// New creates an index maintenance repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// Definition returns the FT schema of the playlist index.
func (r *Repo) Definition() (*db.IndexDefinition, error) {
	def, err := db.NewIndex(r.cfg.IndexName).
		Prefix(r.cfg.KeyPrefix).
		NoStopwords().
		SortableNumeric(playlist.FieldID).
		TextWeighted(playlist.FieldName, 2).
		Text(playlist.FieldDescription).
		Tag(playlist.FieldType).
		Tag(playlist.FieldOwnerID).
		Tag(playlist.FieldCuratorID).
		TagWithOpts(playlist.FieldMapperIDs, ",", false).
		Tag(playlist.FieldVerified).
		Numeric(playlist.FieldTotalMaps).
		Numeric(playlist.FieldMinNps).
		Numeric(playlist.FieldMaxNps).
		SortableNumeric(playlist.FieldCreated).
		SortableNumeric(playlist.FieldCurated).
		SortableNumeric(playlist.FieldVoteScore).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build index definition: %w", err)
	}
	return def, nil
}

// EnsureIndex creates the index unless it already exists. With recreate the
// existing index is dropped first; indexed hashes are kept.
func (r *Repo) EnsureIndex(ctx context.Context, recreate bool) (created bool, err error) {
	def, err := r.Definition()
	if err != nil {
		return false, err
	}

	exists, err := r.store.IndexExists(ctx, def.Name)
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", def.Name, err)
	}
	if exists && !recreate {
		return false, nil
	}
	if exists {
		if err := r.store.DropIndex(ctx, def.Name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return false, fmt.Errorf("drop index %s: %w", def.Name, err)
		}
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return true, nil
}

// Upsert writes documents as index hashes in one pipeline.
func (r *Repo) Upsert(ctx context.Context, docs []playlist.Document) error {
	if len(docs) == 0 {
		return nil
	}
	items := make([]db.Hash, len(docs))
	for i := range docs {
		items[i] = db.Hash{Key: r.key(docs[i].ID), Fields: docs[i].Fields()}
	}
	if err := r.store.ReplaceHashes(ctx, items); err != nil {
		return fmt.Errorf("upsert %d documents: %w", len(docs), err)
	}
	return nil
}

// Delete removes the hashes of the given playlists.
func (r *Repo) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	if err := r.store.UnlinkKeys(ctx, keys); err != nil {
		return fmt.Errorf("delete %d documents: %w", len(ids), err)
	}
	return nil
}

// IndexedIDs returns the ids of all playlists with an index hash, ascending.
func (r *Repo) IndexedIDs(ctx context.Context) ([]int64, error) {
	keys, err := r.store.Scan(ctx, r.cfg.KeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.cfg.KeyPrefix, err)
	}
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(k, r.cfg.KeyPrefix), 10, 64)
		if err != nil {
			// foreign key under our prefix
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *Repo) key(id int64) string {
	return r.cfg.KeyPrefix + strconv.FormatInt(id, 10)
}
