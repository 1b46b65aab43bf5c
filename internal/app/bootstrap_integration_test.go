package app_test

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgate/internal/app"
	"docgate/internal/apperrors"
	"docgate/internal/testutils"
)

func TestBootstrap_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite := testutils.NewIntegrationSuite(t)
	suite.Setup()
	defer suite.Teardown()

	cfg := suite.GetAppConfig()

	// Exercise the migration gate; the suite already migrated, so Up is a no-op
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(b)
	cfg.DBMigrate = true
	cfg.MigrationPath = fmt.Sprintf("file://%s/../../migrations", basepath)

	deps, err := app.Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, deps)
	assert.NotNil(t, deps.DB)

	// Verify migration: contract table exists
	var exists bool
	err = deps.DB.QueryRow("SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'ContractVersion')").Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "ContractVersion table should exist")

	// Verify minio connectivity; a clean NotFound proves the round-trip works
	_, err = deps.ObjectStore.FetchObject(context.Background(), "bootstrap/probe.txt")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Verify NSQ
	err = deps.NSQProducer.Ping()
	assert.NoError(t, err)
}
