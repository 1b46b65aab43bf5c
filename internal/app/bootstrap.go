package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"

	"docgate/internal/adapter/objectstore"
	"docgate/internal/adapter/ragflow"
	"docgate/internal/config"
)

type Dependencies struct {
	DB          *sql.DB
	ObjectStore *objectstore.Store
	Ragflow     *ragflow.Client
	NSQProducer *nsq.Producer
}

// Bootstrap opens the gateway's external connections. Only the contract
// database is probed here; minio and ragflow are reached lazily on the
// first request.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.PGHost, cfg.PGPort, cfg.PGUser, cfg.PGPassword, cfg.PGDBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Retry loop
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	if err := PingWithRetry(ctx, db, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Migrations create the contract table for local dev and tests. In
	// production the table is owned by the CLM deployment, so this stays
	// behind DB_MIGRATE.
	if cfg.DBMigrate {
		driver, err := postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("migration driver error: %w", err)
		}
		m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("migration instance error: %w", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return nil, fmt.Errorf("migration up error: %w", err)
		}
	}

	// Object store
	store, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client error: %w", err)
	}

	// Ingestion platform
	rf := ragflow.NewClient(ragflow.Config{
		BaseURL:         cfg.RagflowBaseURL,
		APIKey:          cfg.RagflowAPIKey,
		ChunkMethod:     cfg.RagflowChunkMethod,
		ChunkTokenCount: cfg.RagflowChunkTokenCount,
		Timeout:         time.Duration(cfg.RagflowTimeoutSeconds) * time.Second,
	})

	// NSQ Producer
	nsqCfg := nsq.NewConfig()
	producer, err := nsq.NewProducer(cfg.NSQDHost, nsqCfg)
	if err != nil {
		return nil, fmt.Errorf("nsq producer error: %w", err)
	}

	createTopics(cfg.NSQDHTTP)

	return &Dependencies{
		DB:          db,
		ObjectStore: store,
		Ragflow:     rf,
		NSQProducer: producer,
	}, nil
}

// Pinger is the slice of *sql.DB the bootstrap retry loop needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingWithRetry probes the database until it answers or attempts run out.
func PingWithRetry(ctx context.Context, db Pinger, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1, "error", err)
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}

func createTopics(nsqdHTTP string) {
	create := func(topic string) {
		url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, topic)
		resp, err := http.Post(url, "application/json", nil) // #nosec G107 -- URL is built from internal NSQ config, not user input
		if err != nil {
			slog.Warn("failed to create NSQ topic", "topic", topic, "error", err)
			return
		}
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close NSQ topic creation response body", "error", closeErr)
		}
	}

	go func() {
		time.Sleep(2 * time.Second)
		create(config.TopicDocumentIngested)
	}()
}
