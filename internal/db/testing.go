package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestDB creates an in-memory SQLite database with all migrations applied.
// It returns a clean database connection that will be automatically closed
// when the test completes.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	// Every pooled connection would get its own in-memory database.
	conn.SetMaxOpenConns(1)

	require.NoError(t, conn.PingContext(context.Background()))

	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = MEMORY;", // Faster for testing
		"PRAGMA synchronous = OFF;",     // Faster for testing
	}
	for _, pragma := range pragmas {
		_, err = conn.ExecContext(context.Background(), pragma)
		require.NoError(t, err)
	}

	require.NoError(t, migrate(context.Background(), conn))

	t.Cleanup(func() {
		conn.Close()
	})

	return conn
}

// SetupTestDBWithData creates a test database and allows custom data setup.
// The setupFunc will be called after migrations are applied.
func SetupTestDBWithData(t *testing.T, setupFunc func(*sql.DB)) *sql.DB {
	t.Helper()

	conn := SetupTestDB(t)
	if setupFunc != nil {
		setupFunc(conn)
	}
	return conn
}

// CreateTestSessionTree inserts a root-only tree for session.
func CreateTestSessionTree(conn *sql.DB, session string, updatedAt int64) error {
	_, err := conn.ExecContext(context.Background(), `
		INSERT INTO session_trees (session, message_count, degrees, nodes, depth, max_fan_out, created_at, updated_at)
		VALUES (?, 1, '[0]', 1, 0, 0, ?, ?)
	`, session, updatedAt, updatedAt)
	return err
}
