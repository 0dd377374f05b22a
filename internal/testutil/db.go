// Package testutil provides test utilities for history database setup.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"tooban/internal/history"
)

// NewTestDB creates an in-memory history database with the full schema.
// The database is closed when the test finishes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := history.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
