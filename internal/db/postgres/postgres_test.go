package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/mapsearch/internal/db/postgres"
	"github.com/kailas-cloud/mapsearch/internal/db/postgres/pgtest"
)

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := postgres.Open(context.Background(), postgres.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn is required")
}

func TestMigrateToLatest_Idempotent(t *testing.T) {
	d := pgtest.Start(t)
	ctx := context.Background()

	require.NoError(t, d.MigrateToLatest(ctx))

	var n int
	err := d.Querier(ctx).QueryRow(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name IN ('users', 'maps', 'playlists', 'playlist_maps')`,
	).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	d := pgtest.Start(t)
	ctx := context.Background()

	err := d.ReadOnly(ctx, func(ctx context.Context) error {
		_, err := d.Querier(ctx).Exec(ctx, `INSERT INTO users (name) VALUES ('intruder')`)
		return err
	})
	require.Error(t, err)

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "25006", pgErr.Code) // read_only_sql_transaction
}

func TestReadOnly_SharesSnapshot(t *testing.T) {
	d := pgtest.Start(t)
	ctx := context.Background()

	err := d.ReadOnly(ctx, func(ctx context.Context) error {
		var before int
		if err := d.Querier(ctx).QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&before); err != nil {
			return err
		}

		// A write committed outside the transaction is invisible inside it.
		if _, err := d.Querier(context.Background()).Exec(context.Background(),
			`INSERT INTO users (name) VALUES ('late')`); err != nil {
			return err
		}

		var after int
		if err := d.Querier(ctx).QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&after); err != nil {
			return err
		}
		assert.Equal(t, before, after)

		// Nested calls reuse the outer transaction.
		return d.ReadOnly(ctx, func(inner context.Context) error {
			assert.Equal(t, d.Querier(ctx), d.Querier(inner))
			return nil
		})
	})
	require.NoError(t, err)
}
