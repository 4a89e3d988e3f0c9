package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("/tmp/app.db")

	assert.True(t, strings.HasPrefix(dsn, "file:/tmp/app.db?"))
	assert.Contains(t, dsn, "_pragma=foreign_keys%281%29")
	assert.Contains(t, dsn, "_pragma=busy_timeout%285000%29")
}

func TestInitDB_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := InitDB(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "refresh_tokens", "categories", "transactions"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestInitDB_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := InitDB(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = InitDB(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db))
}

func TestInitDB_CascadesUserDeletion(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	now := "2025-01-01 00:00:00.000000"
	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, is_active, created_at, updated_at) VALUES (1, 'u', 'h', 1, ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at, is_revoked, created_at) VALUES ('t', 1, ?, 0, ?)`, now, now)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO categories (id, name, icon, user_id, created_at, updated_at) VALUES (1, 'food', 'default', 1, ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO transactions (amount, transaction_type, user_id, category_id, transaction_date, created_at, updated_at) VALUES (10, 'expense', 1, 1, ?, ?, ?)`, now, now, now)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM users WHERE id = 1`)
	require.NoError(t, err)

	for _, table := range []string{"refresh_tokens", "categories", "transactions"} {
		var n int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n))
		assert.Zero(t, n, "rows left in %s", table)
	}
}
