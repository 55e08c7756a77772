package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/mapsearch/internal/db"
)

// scanBatch is the COUNT hint for SCAN.
const scanBatch = 500

// ReplaceHashes overwrites each hash with exactly the given fields. Every key
// is rewritten inside its own MULTI/EXEC, so fields absent from the new
// version disappear and readers never see a half-written document. All
// transactions travel in one pipelined round trip.
func (s *Store) ReplaceHashes(ctx context.Context, items []db.Hash) error {
	if len(items) == 0 {
		return nil
	}

	const perItem = 4 // MULTI, DEL, HSET, EXEC
	cmds := make(rueidis.Commands, 0, len(items)*perItem)
	for _, item := range items {
		if len(item.Fields) == 0 {
			return &db.Error{Op: db.OpReplace, Err: fmt.Errorf("key %s: no fields", item.Key)}
		}
		hset := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			hset = hset.FieldValue(k, v)
		}
		cmds = append(cmds,
			s.b().Multi().Build(),
			s.b().Del().Key(item.Key).Build(),
			hset.Build(),
			s.b().Exec().Build(),
		)
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpReplace, Err: fmt.Errorf("key %s: %w", items[i/perItem].Key, err)}
		}
	}
	return nil
}

// UnlinkKeys removes keys with a single UNLINK. Missing keys are ignored.
func (s *Store) UnlinkKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	cmd := s.b().Unlink().Key(keys...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpUnlink, Err: err}
	}
	return nil
}

// Scan collects hash keys matching pattern. Keys of other types are skipped.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(scanBatch).Type("hash").Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}
