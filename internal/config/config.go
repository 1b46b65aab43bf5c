package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	// Contract database (owned by the CLM system; we only read from it)
	PGHost          string `envconfig:"PG_HOST" default:"localhost"`
	PGPort          int    `envconfig:"PG_PORT" default:"5432"`
	PGUser          string `envconfig:"PG_USER" default:"postgres"`
	PGPassword      string `envconfig:"PG_PASSWORD" default:"postgres"`
	PGDBName        string `envconfig:"PG_DBNAME" default:"clm_dev"`
	PGDocumentTable string `envconfig:"PG_DOCUMENT_TABLE" default:"ContractVersion"`

	// Object store
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `envconfig:"MINIO_BUCKET"`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	// Ingestion platform
	RagflowBaseURL         string `envconfig:"RAGFLOW_BASE_URL"`
	RagflowDatasetID       string `envconfig:"RAGFLOW_DATASET_ID"`
	RagflowAPIKey          string `envconfig:"RAGFLOW_API_KEY"`
	RagflowChunkMethod     string `envconfig:"RAGFLOW_CHUNK_METHOD" default:"naive"`
	RagflowChunkTokenCount int    `envconfig:"RAGFLOW_CHUNK_TOKEN_COUNT" default:"128"`
	RagflowTimeoutSeconds  int    `envconfig:"RAGFLOW_TIMEOUT_SECONDS" default:"30"`

	// Messaging
	NSQDHost string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	// Server
	ServerPort int `envconfig:"SERVER_PORT" default:"8081"`

	// Schema management (off by default; the contract table belongs to the
	// CLM deployment and is only created here for local dev and tests)
	DBMigrate     bool   `envconfig:"DB_MIGRATE" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Try loading .env from current dir and repo root
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	rootEnv := filepath.Join(cwd, "../../.env")
	_ = godotenv.Load(rootEnv)

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.PGHost == "" {
		return fmt.Errorf("%w: PG_HOST", ErrMissingRequired)
	}
	if c.PGUser == "" {
		return fmt.Errorf("%w: PG_USER", ErrMissingRequired)
	}
	if c.PGDBName == "" {
		return fmt.Errorf("%w: PG_DBNAME", ErrMissingRequired)
	}
	if c.PGDocumentTable == "" {
		return fmt.Errorf("%w: PG_DOCUMENT_TABLE", ErrMissingRequired)
	}
	if c.MinioEndpoint == "" {
		return fmt.Errorf("%w: MINIO_ENDPOINT", ErrMissingRequired)
	}
	if c.MinioAccessKey == "" {
		return fmt.Errorf("%w: MINIO_ACCESS_KEY", ErrMissingRequired)
	}
	if c.MinioSecretKey == "" {
		return fmt.Errorf("%w: MINIO_SECRET_KEY", ErrMissingRequired)
	}
	if c.MinioBucket == "" {
		return fmt.Errorf("%w: MINIO_BUCKET", ErrMissingRequired)
	}
	if c.RagflowBaseURL == "" {
		return fmt.Errorf("%w: RAGFLOW_BASE_URL", ErrMissingRequired)
	}
	if c.RagflowDatasetID == "" {
		return fmt.Errorf("%w: RAGFLOW_DATASET_ID", ErrMissingRequired)
	}
	if c.RagflowAPIKey == "" {
		return fmt.Errorf("%w: RAGFLOW_API_KEY", ErrMissingRequired)
	}
	return nil
}
