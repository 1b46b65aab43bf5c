package document_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgate/features/document"
	"docgate/internal/apperrors"
	"docgate/internal/testutils"
)

func TestDocumentRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := document.NewPostgresRepo(s.DB, "ContractVersion")
	ctx := context.Background()

	// 1. Seed a contract version
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO "ContractVersion" ("contractId", "documentName", "documentContent") VALUES ($1, $2, $3)`,
		"contract-42", "msa.txt", "master services agreement")
	require.NoError(t, err)

	// 2. Fetch round-trip
	payload, err := repo.FetchByID(ctx, "contract-42")
	require.NoError(t, err)
	assert.Equal(t, []byte("master services agreement"), payload.Data)
	assert.Equal(t, "msa.txt", payload.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", payload.ContentType)

	// 3. Unknown contract id
	_, err = repo.FetchByID(ctx, "no-such-contract")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
