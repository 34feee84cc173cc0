package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"interviewrag/src/core/agent"
	"interviewrag/src/core/booking"
	"interviewrag/src/core/knowledgebase"
	"interviewrag/src/core/system"
	"interviewrag/src/infrastructure/integrations/gemini"
	"interviewrag/src/infrastructure/integrations/ollama"
	"interviewrag/src/infrastructure/job"
	"interviewrag/src/infrastructure/log"
	"interviewrag/src/storage/minioctrl"
	"interviewrag/src/storage/postgres/chunkctrl"
	"interviewrag/src/storage/postgres/interviewctrl"
	"interviewrag/src/storage/redisctrl"
	"interviewrag/src/storage/weaviate"
)

const ollamaTimeout = 120 * time.Second

// Snowflake nodes used when ingest.node_id is unset, one per command that ingests.
const (
	serveNodeID  int64 = 1
	workerNodeID int64 = 2
	ingestNodeID int64 = 3
)

func postgresDSN() string {
	if dsn := viper.GetString("database.url"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.db"),
		viper.GetString("postgres.port"),
	)
}

// openDB connects to PostgreSQL and migrates the interviews, chunk_metadata and jobs tables.
func openDB() (*gorm.DB, *sql.DB, error) {
	db, err := gorm.Open(postgres.Open(postgresDSN()), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}

	if err := db.AutoMigrate(&booking.Interview{}, &chunkctrl.ChunkMetadata{}, &job.Job{}); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, sqlDB, nil
}

func newOllama() (*ollama.Client, error) {
	return ollama.NewClient(viper.GetString("ollama.url"), &http.Client{Timeout: ollamaTimeout},
		ollama.WithEmbeddingModel(viper.GetString("ollama.embedding_model")),
		ollama.WithGenerationModel(viper.GetString("ollama.generation_model")),
		ollama.WithTemperature(viper.GetFloat64("llm.temperature")),
	)
}

// newGenerator returns the answer generator selected by llm.provider and a cleanup func.
func newGenerator(ctx context.Context, oc *ollama.Client) (agent.Generator, func(), error) {
	switch provider := strings.ToLower(viper.GetString("llm.provider")); provider {
	case "gemini":
		gc, err := gemini.NewClient(ctx,
			viper.GetString("gemini.api_key"),
			viper.GetString("gemini.model"),
			float32(viper.GetFloat64("llm.temperature")),
		)
		if err != nil {
			return nil, nil, err
		}
		return gc, func() { gc.Close() }, nil
	case "ollama":
		return oc, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

func newWeaviate() (*weaviate.SDK, error) {
	wc, err := weaviate.NewClient(viper.GetString("weaviate.url"))
	if err != nil {
		return nil, err
	}
	return weaviate.NewSDK(wc), nil
}

func newSearchService(oc *ollama.Client, wsdk *weaviate.SDK) *knowledgebase.SearchService {
	return knowledgebase.NewSearchService(oc, wsdk,
		knowledgebase.WithSearchClassName(viper.GetString("weaviate.class")),
		knowledgebase.WithHybridAlpha(float32(viper.GetFloat64("rag.hybrid_alpha"))),
	)
}

// nodeID returns ingest.node_id when configured, otherwise the command's default.
func nodeID(fallback int64) int64 {
	if viper.IsSet("ingest.node_id") {
		return viper.GetInt64("ingest.node_id")
	}
	return fallback
}

func newIngestor(db *gorm.DB, oc *ollama.Client, wsdk *weaviate.SDK, defaultNodeID int64) (*knowledgebase.Ingestor, error) {
	return knowledgebase.NewIngestor(oc, wsdk, chunkctrl.NewChunkService(db),
		knowledgebase.WithNodeID(nodeID(defaultNodeID)),
		knowledgebase.WithClassName(viper.GetString("weaviate.class")),
		knowledgebase.WithChunkerConfig(knowledgebase.ChunkerConfig{
			ChunkSize:            viper.GetInt("chunking.size"),
			ChunkOverlap:         viper.GetInt("chunking.overlap"),
			BreakpointPercentile: viper.GetFloat64("chunking.breakpoint_percentile"),
		}),
	)
}

func newOrchestrator(db *gorm.DB, sessions *redisctrl.SessionStore, retriever agent.Retriever, generator agent.Generator) (*agent.Orchestrator, error) {
	return agent.NewOrchestrator(
		sessions,
		retriever,
		generator,
		booking.NewService(interviewctrl.NewInterviewService(db)),
		agent.WithTopK(viper.GetInt("rag.top_k")),
	)
}

// newMinio returns nil when minio.endpoint is empty.
func newMinio(ctx context.Context) (*minioctrl.MinioService, error) {
	endpoint := viper.GetString("minio.endpoint")
	if endpoint == "" {
		return nil, nil
	}

	ms, err := minioctrl.NewMinioService(
		endpoint,
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio service: %w", err)
	}
	if err := ms.EnsureBucketExists(ctx, viper.GetString("minio.upload_bucket")); err != nil {
		return nil, err
	}
	return ms, nil
}

func newHealthService(sqlDB *sql.DB, sessions *redisctrl.SessionStore, wsdk *weaviate.SDK, oc *ollama.Client) *system.Service {
	return system.NewService().
		Register("postgres", system.PingFunc(sqlDB.PingContext)).
		Register("redis", sessions).
		Register("weaviate", system.PingFunc(wsdk.Live)).
		Register("ollama", oc)
}

func logConfig() {
	log.Info("configuration",
		"server.port", viper.GetString("server.port"),
		"weaviate.url", viper.GetString("weaviate.url"),
		"weaviate.class", viper.GetString("weaviate.class"),
		"ollama.url", viper.GetString("ollama.url"),
		"llm.provider", viper.GetString("llm.provider"),
		"minio.endpoint", viper.GetString("minio.endpoint"),
		"ingest.node_id.set", viper.IsSet("ingest.node_id"),
		"amqp.url.set", viper.GetString("amqp.url") != "",
	)
}
