// Package repotest opens throwaway SQL stores for tests.
package repotest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mangazone-api/internal/core/database"
	"mangazone-api/internal/repo"
)

// NewStore returns a migrated store over a private in-memory sqlite database.
// It holds a single connection, so callers inside Atomic must only use the
// store handed to them.
func NewStore(t testing.TB) *repo.GormStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)

	store := repo.NewGormStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}
