package db

import (
	"context"
	"time"
)

// Store is the index database facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashStore
	IndexManager
	Aggregator
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Hash is the complete field set of one index document.
type Hash struct {
	Key    string
	Fields map[string]string
}

// HashStore writes and enumerates index documents stored as hashes.
type HashStore interface {
	ReplaceHashes(ctx context.Context, items []Hash) error
	UnlinkKeys(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Aggregator runs ranked queries over FT indexes.
type Aggregator interface {
	Aggregate(ctx context.Context, q *AggregateQuery) (*AggregateResult, error)
}
