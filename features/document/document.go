package document

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"docgate/internal/apperrors"
	"docgate/internal/config"
	"docgate/internal/metrics"
	"docgate/internal/middleware"
)

// Source names a system of record documents are fetched from.
type Source string

const (
	SourcePostgres Source = "postgres"
	SourceMinio    Source = "minio"
)

func ParseSource(raw string) (Source, error) {
	switch Source(raw) {
	case SourcePostgres:
		return SourcePostgres, nil
	case SourceMinio:
		return SourceMinio, nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidArgument, "source must be %q or %q, got %q", SourcePostgres, SourceMinio, raw)
	}
}

// Payload is a fetched document in transit. It lives for the duration of a
// single request and is never persisted.
type Payload struct {
	Data        []byte
	Filename    string
	ContentType string
}

const StatusChunkingTriggered = "chunking_triggered"

type ProcessResult struct {
	RemoteDocumentID string `json:"remote_document_id"`
	Status           string `json:"status"`
}

// IngestedEvent announces a document that was uploaded and had chunking
// triggered. Consumers must tolerate duplicates; processing the same
// document twice emits two events.
type IngestedEvent struct {
	DocumentID       string `json:"document_id"`
	Source           string `json:"source"`
	RemoteDocumentID string `json:"remote_document_id"`
	DatasetID        string `json:"dataset_id"`
	CorrelationID    string `json:"correlation_id"`
}

type Repository interface {
	FetchByID(ctx context.Context, documentID string) (*Payload, error)
}

type ObjectStore interface {
	FetchObject(ctx context.Context, key string) (*Payload, error)
}

type Ingestor interface {
	UploadDocument(ctx context.Context, datasetID string, doc *Payload) (string, error)
	SetChunkMethod(ctx context.Context, datasetID, documentID string) error
	TriggerChunking(ctx context.Context, datasetID, documentID string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo      Repository
	store     ObjectStore
	ingestor  Ingestor
	pub       EventPublisher
	datasetID string
	metrics   *metrics.Metrics
}

func NewService(repo Repository, store ObjectStore, ingestor Ingestor, pub EventPublisher, datasetID string, m *metrics.Metrics) *Service {
	return &Service{repo: repo, store: store, ingestor: ingestor, pub: pub, datasetID: datasetID, metrics: m}
}

// Process runs the ingestion pipeline for one document: fetch from the
// system of record, upload to the platform dataset, configure chunking,
// trigger it. No step is retried and nothing is rolled back on failure.
func (s *Service) Process(ctx context.Context, documentID string, source Source) (res *ProcessResult, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.DocumentsProcessedTotal.WithLabelValues(string(source), outcome).Inc()
	}()

	// 1. Fetch raw bytes; every call re-fetches, nothing is cached
	payload, err := s.fetch(ctx, documentID, source)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "document fetched", "document_id", documentID, "source", source, "bytes", len(payload.Data), "filename", payload.Filename)

	// 2. Upload to the platform dataset
	remoteID, err := s.ingestor.UploadDocument(ctx, s.datasetID, payload)
	if err != nil {
		return nil, fmt.Errorf("upload document %q: %w", documentID, err)
	}
	slog.InfoContext(ctx, "document uploaded", "document_id", documentID, "remote_document_id", remoteID)

	// 3. Configure the chunk method. The platform falls back to its dataset
	// default when this fails, so the pipeline continues.
	if err := s.ingestor.SetChunkMethod(ctx, s.datasetID, remoteID); err != nil {
		slog.WarnContext(ctx, "failed to set chunk method", "remote_document_id", remoteID, "error", err)
	}

	// 4. Trigger chunking. Fire-and-forget: completion is not polled.
	if err := s.ingestor.TriggerChunking(ctx, s.datasetID, remoteID); err != nil {
		return nil, fmt.Errorf("trigger chunking for %q: %w", remoteID, err)
	}

	// 5. Announce the ingestion
	event, _ := json.Marshal(IngestedEvent{
		DocumentID:       documentID,
		Source:           string(source),
		RemoteDocumentID: remoteID,
		DatasetID:        s.datasetID,
		CorrelationID:    middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicDocumentIngested, event); err != nil {
		slog.ErrorContext(ctx, "failed to publish document.ingested event", "error", err)
	} else {
		slog.InfoContext(ctx, "published document.ingested event", "document_id", documentID, "remote_document_id", remoteID)
	}

	return &ProcessResult{RemoteDocumentID: remoteID, Status: StatusChunkingTriggered}, nil
}

func (s *Service) fetch(ctx context.Context, documentID string, source Source) (*Payload, error) {
	switch source {
	case SourcePostgres:
		return s.repo.FetchByID(ctx, documentID)
	case SourceMinio:
		return s.store.FetchObject(ctx, documentID)
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "unknown source %q", source)
	}
}
