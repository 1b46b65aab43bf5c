package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"docgate/features/assistant"
	"docgate/features/document"
	"docgate/internal/config"
	"docgate/internal/metrics"
	"docgate/internal/middleware"
)

type App struct {
	Handler          http.Handler
	DocumentService  *document.Service
	AssistantService *assistant.Service
	Metrics          *metrics.Metrics

	addr string
}

func New(
	cfg *config.Config,
	db *sql.DB,
	objStore document.ObjectStore,
	ingestor document.Ingestor,
	provisioner assistant.Provisioner,
	eventPub document.EventPublisher,
) (*App, error) {
	m := metrics.New()

	// Feature: Document
	documentRepo := document.NewPostgresRepo(db, cfg.PGDocumentTable)
	documentService := document.NewService(documentRepo, objStore, ingestor, eventPub, cfg.RagflowDatasetID, m)
	documentHandler := document.NewHandler(documentService)

	// Feature: Assistant
	assistantService := assistant.NewService(provisioner, m)
	assistantHandler := assistant.NewHandler(assistantService)

	instrument := middleware.Metrics(m)

	// Routes. {$} pins the trailing-slash form exactly; deeper paths 404.
	mux := http.NewServeMux()
	mux.Handle("POST /process/{$}", middleware.CorrelationID(instrument(http.HandlerFunc(documentHandler.Process))))
	mux.Handle("POST /create_chat_assistant/{$}", middleware.CorrelationID(instrument(http.HandlerFunc(assistantHandler.Create))))

	mux.Handle("GET /metrics", m.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:          mux,
		DocumentService:  documentService,
		AssistantService: assistantService,
		Metrics:          m,
		addr:             fmt.Sprintf(":%d", cfg.ServerPort),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.addr,
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "addr", a.addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
