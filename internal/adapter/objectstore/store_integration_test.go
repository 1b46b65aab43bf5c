package objectstore_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgate/internal/adapter/objectstore"
	"docgate/internal/apperrors"
	"docgate/internal/testutils"
)

func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	ctx := context.Background()
	cfg := s.GetAppConfig()

	content := []byte("non-disclosure agreement, executed copy")
	_, err := s.Minio.PutObject(ctx, cfg.MinioBucket, "agreements/nda.txt",
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	require.NoError(t, err)

	store, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	require.NoError(t, err)

	t.Run("RoundTrip", func(t *testing.T) {
		payload, err := store.FetchObject(ctx, "agreements/nda.txt")
		require.NoError(t, err)
		assert.Equal(t, content, payload.Data)
		assert.Equal(t, "nda.txt", payload.Filename)
		assert.Equal(t, "text/plain", payload.ContentType)
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, err := store.FetchObject(ctx, "agreements/never-uploaded.txt")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
