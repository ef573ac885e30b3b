package db_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ppmimesir/wisuda/internal/db"
)

// TestWALMode verifies that the default DSN parameters enable WAL journal mode.
func TestWALMode(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "wal_test.db") +
		"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	gdb, err := db.Open("sqlite", dsn, zap.NewNop().Sugar())
	require.NoError(t, err)

	var mode string
	gdb.Raw("PRAGMA journal_mode").Scan(&mode)
	require.Equal(t, "wal", mode)
}

// TestOpen_CreatesIndexes verifies that Open() creates the composite indexes
// on the registrants table and the unique index on reg_id.
func TestOpen_CreatesIndexes(t *testing.T) {
	gdb, err := db.Open("sqlite", filepath.Join(t.TempDir(), "idx.db"), zap.NewNop().Sugar())
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)

	found := indexNames(t, sqlDB, "registrants")
	for _, want := range []string{"idx_registrants_type_created", "idx_registrants_name", "idx_registrants_reg_id"} {
		require.True(t, found[want], "index %q missing; found: %v", want, found)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := db.Open("oracle", "x", zap.NewNop().Sugar())
	require.Error(t, err)
}

func indexNames(t *testing.T, sqlDB *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := sqlDB.Query("PRAGMA index_list(" + table + ")")
	require.NoError(t, err)
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var seq int
		var name string
		var unique bool
		var origin, partial string
		require.NoError(t, rows.Scan(&seq, &name, &unique, &origin, &partial))
		out[name] = true
	}
	return out
}
