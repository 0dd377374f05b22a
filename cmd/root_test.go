package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tooban/internal/config"
	"tooban/internal/flags"
	"tooban/internal/history"
)

func withTestConfig(t *testing.T, c config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

func TestOpenHistoryMemoryWhenDisabled(t *testing.T) {
	c := config.Defaults()
	c.History.Enabled = false
	withTestConfig(t, c)

	db, err := openHistory(flags.New(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// The in-memory fallback still carries the full schema.
	_, err = history.NewRepository(db).List(5)
	require.NoError(t, err)
}

func TestOpenHistoryHonorsPersistenceFlag(t *testing.T) {
	c := config.Defaults()
	c.History.Enabled = true
	c.History.Path = filepath.Join(t.TempDir(), "history.db")
	withTestConfig(t, c)

	db, err := openHistory(flags.New(map[string]bool{flags.FlagHistoryPersistence: false}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, statErr := os.Stat(c.History.Path)
	assert.True(t, os.IsNotExist(statErr), "flag off must not touch the database file")
}

func TestOpenHistoryCreatesDatabaseFile(t *testing.T) {
	c := config.Defaults()
	c.History.Enabled = true
	c.History.Path = filepath.Join(t.TempDir(), "roster", "history.db")
	withTestConfig(t, c)

	db, err := openHistory(flags.New(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, statErr := os.Stat(c.History.Path)
	require.NoError(t, statErr)
}

func TestNewServicesWiresRepository(t *testing.T) {
	c := config.Defaults()
	c.History.Enabled = false
	withTestConfig(t, c)

	services, closeServices, err := newServices()
	require.NoError(t, err)
	t.Cleanup(closeServices)

	require.NotNil(t, services.Repo)
	require.NotNil(t, services.Months)
	assert.Same(t, &cfg, services.Config)
}
