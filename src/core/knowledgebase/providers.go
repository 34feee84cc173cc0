package knowledgebase

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"

	"interviewrag/src/storage/postgres/chunkctrl"
	"interviewrag/src/storage/weaviate"
)

// Embedder turns text into vectors. EmbedDocuments preserves input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore defines operations for vector storage and search
type VectorStore interface {
	// EnsureClass creates the class unless it exists
	EnsureClass(ctx context.Context, className string, properties []*models.Property) error
	BatchAddVectors(ctx context.Context, className string, objects []weaviate.VectorObject) error
	// QueryVectors performs a vector similarity search
	QueryVectors(ctx context.Context, className string, vector []float32, config weaviate.QueryConfig) ([]weaviate.QueryResult, error)
	// QueryHybrid performs a hybrid search combining vector similarity and keyword matching
	QueryHybrid(ctx context.Context, className string, vector []float32, config weaviate.HybridConfig) ([]weaviate.QueryResult, error)
}

// MetadataRepository stores chunk metadata rows.
type MetadataRepository interface {
	InsertChunks(ctx context.Context, chunks []chunkctrl.ChunkMetadata) error
}
