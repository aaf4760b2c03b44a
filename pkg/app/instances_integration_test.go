package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specmem/specmem/internal/testutil"
	"github.com/specmem/specmem/pkg/app"
	"github.com/specmem/specmem/pkg/config"
	"github.com/specmem/specmem/pkg/project"
)

// TestManager_BuildsIndependentSchemasPerProject exercises the whole
// composition root against a real database: two distinct project paths
// must resolve to two distinct schemas, each with its own Instances, and
// repeated lookups of the same path return the same singleton.
func TestManager_BuildsIndependentSchemasPerProject(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database = testutil.SharedDatabaseConfig(t)

	manager := app.NewManager(context.Background(), cfg)
	t.Cleanup(manager.ResetAll)

	a, err := manager.Get("/repo/project-a")
	require.NoError(t, err)
	b, err := manager.Get("/repo/project-b")
	require.NoError(t, err)

	assert.NotEqual(t, a.Schema, b.Schema)
	assert.Equal(t, project.GetSchemaName("/repo/project-a"), a.Schema)
	assert.Equal(t, 2, manager.Count())

	again, err := manager.Get("/repo/project-a")
	require.NoError(t, err)
	assert.Same(t, a, again)
}
