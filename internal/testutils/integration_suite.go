package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"docgate/internal/config"
)

const (
	testDBName   = "clm_test"
	testDBUser   = "test"
	testDBPass   = "test"
	testBucket   = "contracts"
	minioRootKey = "minioadmin"
)

// IntegrationSuite spins up the gateway's real neighbors: the contract
// database, a minio instance with the test bucket, and an nsqd.
type IntegrationSuite struct {
	T     *testing.T
	DB    *sql.DB
	Minio *minio.Client
	NSQ   *nsq.Producer

	// Containers
	pgContainer    *postgres.PostgresContainer
	minioContainer testcontainers.Container
	nsqContainer   testcontainers.Container

	// Resolved endpoints for GetAppConfig
	pgHost        string
	pgPort        int
	minioEndpoint string
	nsqdAddr      string
	nsqdHTTPAddr  string
}

func NewIntegrationSuite(t *testing.T) *IntegrationSuite {
	return &IntegrationSuite{T: t}
}

func (s *IntegrationSuite) Setup() {
	ctx := context.Background()

	// 1. Postgres
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(testDBName),
		postgres.WithUsername(testDBUser),
		postgres.WithPassword(testDBPass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(s.T, err)
	s.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(s.T, err)

	s.DB, err = sql.Open("postgres", connStr)
	require.NoError(s.T, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(s.T, err)
	s.pgHost = host
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(s.T, err)
	s.pgPort = port.Int()

	// Run Migrations
	_, b, _, _ := runtime.Caller(0)
	basepath := filepath.Dir(b)
	migrationPath := fmt.Sprintf("file://%s/../../migrations", basepath)

	m, err := migrate.New(migrationPath, connStr)
	require.NoError(s.T, err)
	require.NoError(s.T, m.Up())

	// 2. MinIO
	minioReq := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioRootKey,
			"MINIO_ROOT_PASSWORD": minioRootKey,
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}
	minioC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: minioReq,
		Started:          true,
	})
	require.NoError(s.T, err)
	s.minioContainer = minioC

	minioHost, err := minioC.Host(ctx)
	require.NoError(s.T, err)
	minioPort, err := minioC.MappedPort(ctx, "9000")
	require.NoError(s.T, err)
	s.minioEndpoint = fmt.Sprintf("%s:%s", minioHost, minioPort.Port())

	s.Minio, err = minio.New(s.minioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioRootKey, minioRootKey, ""),
		Secure: false,
	})
	require.NoError(s.T, err)
	require.NoError(s.T, s.Minio.MakeBucket(ctx, testBucket, minio.MakeBucketOptions{}))

	// 3. NSQ
	nsqReq := testcontainers.ContainerRequest{
		Image:        "nsqio/nsq:v1.3.0",
		ExposedPorts: []string{"4150/tcp", "4151/tcp"},
		Cmd:          []string{"/nsqd", "--broadcast-address=localhost"}, // Simplified for test
		WaitingFor:   wait.ForLog("TCP: listening on").WithStartupTimeout(60 * time.Second),
	}
	nsqC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: nsqReq,
		Started:          true,
	})
	require.NoError(s.T, err)
	s.nsqContainer = nsqC

	nsqHost, err := nsqC.Host(ctx)
	require.NoError(s.T, err)
	nsqPort, err := nsqC.MappedPort(ctx, "4150")
	require.NoError(s.T, err)
	s.nsqdAddr = fmt.Sprintf("%s:%s", nsqHost, nsqPort.Port())
	nsqHTTPPort, err := nsqC.MappedPort(ctx, "4151")
	require.NoError(s.T, err)
	s.nsqdHTTPAddr = fmt.Sprintf("%s:%s", nsqHost, nsqHTTPPort.Port())

	nsqCfg := nsq.NewConfig()
	s.NSQ, err = nsq.NewProducer(s.nsqdAddr, nsqCfg)
	require.NoError(s.T, err)
}

// GetAppConfig builds a Config pointing at the suite's containers. The
// ragflow fields are placeholders; tests that exercise the platform swap in
// their own stub URL.
func (s *IntegrationSuite) GetAppConfig() *config.Config {
	return &config.Config{
		PGHost:          s.pgHost,
		PGPort:          s.pgPort,
		PGUser:          testDBUser,
		PGPassword:      testDBPass,
		PGDBName:        testDBName,
		PGDocumentTable: "ContractVersion",

		MinioEndpoint:  s.minioEndpoint,
		MinioAccessKey: minioRootKey,
		MinioSecretKey: minioRootKey,
		MinioBucket:    testBucket,
		MinioUseSSL:    false,

		RagflowBaseURL:         "http://localhost:9380",
		RagflowDatasetID:       "ds-test",
		RagflowAPIKey:          "test-key",
		RagflowChunkMethod:     "naive",
		RagflowChunkTokenCount: 128,
		RagflowTimeoutSeconds:  10,

		NSQDHost: s.nsqdAddr,
		NSQDHTTP: s.nsqdHTTPAddr,

		ServerPort: 8081,

		DBMigrate:     false,
		MigrationPath: "file://migrations",

		BootstrapRetryAttempts:     5,
		BootstrapRetryDelaySeconds: 1,
	}
}

// ConsumeOne reads a single message off topic, or nil after a timeout.
// nsqd buffers messages published before the first channel exists, so the
// consumer may attach after the publish.
func (s *IntegrationSuite) ConsumeOne(topic string) *nsq.Message {
	consumer, err := nsq.NewConsumer(topic, "itest", nsq.NewConfig())
	require.NoError(s.T, err)
	defer consumer.Stop()

	msgs := make(chan *nsq.Message, 1)
	consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
		select {
		case msgs <- m:
		default:
		}
		return nil
	}))
	require.NoError(s.T, consumer.ConnectToNSQD(s.nsqdAddr))

	select {
	case m := <-msgs:
		return m
	case <-time.After(10 * time.Second):
		return nil
	}
}

func (s *IntegrationSuite) Teardown() {
	ctx := context.Background()
	if s.pgContainer != nil {
		s.pgContainer.Terminate(ctx)
	}
	if s.minioContainer != nil {
		s.minioContainer.Terminate(ctx)
	}
	if s.nsqContainer != nil {
		s.nsqContainer.Terminate(ctx)
	}
}
