// Package reindex copies playlists from PostgreSQL into the search index.
package reindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/logger"
	"github.com/kailas-cloud/mapsearch/internal/metrics"
)

// DefaultBatchSize is the number of playlists read and written per round trip.
const DefaultBatchSize = 500

// Options control one reindex run.
type Options struct {
	// Recreate drops and recreates the index schema before writing.
	Recreate bool
	// Prune removes index documents whose playlist no longer exists at all.
	Prune bool
}

// Report summarizes a run.
type Report struct {
	IndexCreated bool
	Upserted     int
	Deleted      int
	Pruned       int
}

// Service runs reindex passes.
type Service struct {
	source    Source
	index     Index
	batchSize int
}

// New creates a reindex service.
func New(source Source, index Index) *Service {
	return &Service{source: source, index: index, batchSize: DefaultBatchSize}
}

// WithBatchSize configures the batch size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// Run ensures the index exists, then walks all playlists by id writing live
// ones and removing deleted ones.
func (s *Service) Run(ctx context.Context, opts Options) (Report, error) {
	log := logger.FromContext(ctx)
	var rep Report

	created, err := s.index.EnsureIndex(ctx, opts.Recreate)
	if err != nil {
		return rep, fmt.Errorf("ensure index: %w", err)
	}
	rep.IndexCreated = created

	seen := make(map[int64]struct{})
	var after int64
	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		docs, err := s.source.ScanForIndex(ctx, after, s.batchSize)
		if err != nil {
			return rep, fmt.Errorf("scan after %d: %w", after, err)
		}
		if len(docs) == 0 {
			break
		}

		live := make([]playlist.Document, 0, len(docs))
		var gone []int64
		for i := range docs {
			seen[docs[i].ID] = struct{}{}
			if docs[i].Deleted {
				gone = append(gone, docs[i].ID)
				continue
			}
			live = append(live, docs[i])
		}

		if err := s.index.Upsert(ctx, live); err != nil {
			return rep, fmt.Errorf("upsert batch after %d: %w", after, err)
		}
		if err := s.index.Delete(ctx, gone); err != nil {
			return rep, fmt.Errorf("delete batch after %d: %w", after, err)
		}
		rep.Upserted += len(live)
		rep.Deleted += len(gone)
		metrics.ReindexDocumentsTotal.WithLabelValues("upsert").Add(float64(len(live)))
		metrics.ReindexDocumentsTotal.WithLabelValues("delete").Add(float64(len(gone)))

		after = docs[len(docs)-1].ID
		log.Debug("reindex batch", zap.Int64("last_id", after), zap.Int("live", len(live)), zap.Int("deleted", len(gone)))

		if len(docs) < s.batchSize {
			break
		}
	}

	if opts.Prune {
		pruned, err := s.prune(ctx, seen)
		if err != nil {
			return rep, err
		}
		rep.Pruned = pruned
	}

	log.Info("reindex finished",
		zap.Bool("index_created", rep.IndexCreated),
		zap.Int("upserted", rep.Upserted),
		zap.Int("deleted", rep.Deleted),
		zap.Int("pruned", rep.Pruned),
	)
	return rep, nil
}

func (s *Service) prune(ctx context.Context, seen map[int64]struct{}) (int, error) {
	indexed, err := s.index.IndexedIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list indexed ids: %w", err)
	}
	var orphans []int64
	for _, id := range indexed {
		if _, ok := seen[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	for start := 0; start < len(orphans); start += s.batchSize {
		end := min(start+s.batchSize, len(orphans))
		if err := s.index.Delete(ctx, orphans[start:end]); err != nil {
			return start, fmt.Errorf("prune: %w", err)
		}
	}
	metrics.ReindexDocumentsTotal.WithLabelValues("delete").Add(float64(len(orphans)))
	return len(orphans), nil
}
