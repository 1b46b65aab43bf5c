package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/lib/pq"

	"docgate/internal/apperrors"
)

// PostgresRepo reads contract documents out of the CLM database. The table
// is Prisma-managed, hence the quoted camelCase identifiers.
type PostgresRepo struct {
	db    *sql.DB
	query string
}

func NewPostgresRepo(db *sql.DB, table string) *PostgresRepo {
	query := fmt.Sprintf(
		`SELECT "documentContent", "documentName" FROM %s WHERE "contractId" = $1`,
		pq.QuoteIdentifier(table),
	)
	return &PostgresRepo{db: db, query: query}
}

func (r *PostgresRepo) FetchByID(ctx context.Context, documentID string) (*Payload, error) {
	var content, name string
	err := r.db.QueryRowContext(ctx, r.query, documentID).Scan(&content, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "no contract version for document %q", documentID)
	}
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUpstreamUnavailable, "query contract database: %v", err)
	}

	return &Payload{
		Data:        []byte(content),
		Filename:    name,
		ContentType: contentTypeFor(name),
	}, nil
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
