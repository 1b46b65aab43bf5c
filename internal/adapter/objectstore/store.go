package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docgate/features/document"
	"docgate/internal/apperrors"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Store struct {
	client *minio.Client
	bucket string
}

func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// FetchObject reads the whole object into memory. Documents are bounded by
// what the ingestion platform accepts in a single upload, so there is no
// streaming path.
func (s *Store) FetchObject(ctx context.Context, key string) (*document.Payload, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(key, err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key only surfaces on Stat.
	stat, err := obj.Stat()
	if err != nil {
		return nil, mapError(key, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(key, err)
	}

	contentType := stat.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &document.Payload{
		Data:        data,
		Filename:    path.Base(key),
		ContentType: contentType,
	}, nil
}

func mapError(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return apperrors.Newf(apperrors.ErrNotFound, "object %q not found", key)
	case "":
		return apperrors.Newf(apperrors.ErrUpstreamUnavailable, "object store request failed: %v", err)
	default:
		return apperrors.Newf(apperrors.ErrUpstreamUnavailable, "object store error %s: %v", resp.Code, err)
	}
}
