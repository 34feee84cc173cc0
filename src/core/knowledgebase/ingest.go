package knowledgebase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-logr/logr"
	"github.com/tmc/langchaingo/schema"
	"github.com/weaviate/weaviate/entities/models"

	"interviewrag/src/infrastructure/log"
	"interviewrag/src/storage/postgres/chunkctrl"
	"interviewrag/src/storage/weaviate"
)

const DefaultClassName = "DocumentChunk"

const ingestedMessage = "File uploaded, chunks stored, and metadata saved."

const topChunksLimit = 5

// Weaviate property names of a chunk object.
const (
	propContent    = "content"
	propFilename   = "filename"
	propStrategy   = "strategy"
	propChunkIndex = "chunkIndex"
	propDocumentID = "documentId"
)

func classProperties() []*models.Property {
	return []*models.Property{
		{Name: propContent, DataType: []string{"text"}, Description: "The content of the chunk"},
		{Name: propFilename, DataType: []string{"text"}, Description: "Name of the uploaded file"},
		{Name: propStrategy, DataType: []string{"text"}, Description: "Chunking strategy that produced the chunk"},
		{Name: propChunkIndex, DataType: []string{"int"}, Description: "Position of the chunk within its strategy"},
		{Name: propDocumentID, DataType: []string{"text"}, Description: "ID of the source upload"},
	}
}

// Ingestor extracts, chunks, embeds and indexes uploaded documents.
type Ingestor struct {
	chunker   *Chunker
	embedder  Embedder
	vectors   VectorStore
	metadata  MetadataRepository
	className string
	nodeID    int64
	node      *snowflake.Node
	logger    logr.Logger
}

type IngestOption func(i *Ingestor)

func WithChunkerConfig(cfg ChunkerConfig) IngestOption {
	return func(i *Ingestor) {
		i.chunker = NewChunker(i.embedder, cfg)
	}
}

func WithClassName(className string) IngestOption {
	return func(i *Ingestor) {
		if className != "" {
			i.className = className
		}
	}
}

// WithNodeID sets the snowflake node that mints document IDs. Processes writing to the
// same database need distinct nodes.
func WithNodeID(id int64) IngestOption {
	return func(i *Ingestor) {
		i.nodeID = id
	}
}

func NewIngestor(embedder Embedder, vectors VectorStore, metadata MetadataRepository, opts ...IngestOption) (*Ingestor, error) {
	i := &Ingestor{
		chunker:   NewChunker(embedder, DefaultChunkerConfig()),
		embedder:  embedder,
		vectors:   vectors,
		metadata:  metadata,
		className: DefaultClassName,
		nodeID:    1,
		logger:    log.WithName("ingestor"),
	}
	for _, opt := range opts {
		opt(i)
	}

	node, err := snowflake.NewNode(i.nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", i.nodeID, err)
	}
	i.node = node

	if err := i.validateDependencies(); err != nil {
		return nil, fmt.Errorf("failed to validate dependencies: %w", err)
	}

	return i, nil
}

func (i *Ingestor) validateDependencies() error {
	if i.embedder == nil {
		return fmt.Errorf("embedder is required")
	}
	if i.vectors == nil {
		return fmt.Errorf("vector store is required")
	}
	if i.metadata == nil {
		return fmt.Errorf("metadata repository is required")
	}
	return nil
}

// Ingest indexes one upload. Vectors are written before metadata rows; a metadata failure
// leaves the vectors in place.
func (i *Ingestor) Ingest(ctx context.Context, upload Upload) (*Result, error) {
	strategy, err := ParseStrategy(string(upload.Strategy))
	if err != nil {
		return nil, err
	}

	text, err := ExtractText(ctx, upload.ContentType, upload.Data)
	if err != nil {
		return nil, err
	}

	docs, stats, err := i.chunker.Split(ctx, text, upload.Filename, strategy)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoChunks
	}

	documentID := i.node.Generate().Int64()
	for _, doc := range docs {
		doc.Metadata[MetaDocumentID] = documentID
		if n := EstimateTokenCount(doc.PageContent); n > stats.MaxChunkTokens {
			stats.MaxChunkTokens = n
		}
	}
	if stats.MaxChunkTokens > EmbeddingTokenLimit {
		i.logger.Info("chunk exceeds embedding window and will be truncated",
			"filename", upload.Filename, "estimated_tokens", stats.MaxChunkTokens)
	}

	if err := i.storeVectors(ctx, docs); err != nil {
		return nil, err
	}

	if err := i.metadata.InsertChunks(ctx, buildMetadata(docs, upload.Filename, documentID)); err != nil {
		return nil, fmt.Errorf("failed to save chunk metadata: %w", err)
	}

	i.logger.Info("document ingested",
		"filename", upload.Filename,
		"document_id", documentID,
		"strategy", strategy,
		"chunks", len(docs))

	return &Result{
		Message:      ingestedMessage,
		DocumentID:   documentID,
		ChunksLength: len(docs),
		Stats:        stats,
		TopChunks:    topChunks(docs),
	}, nil
}

func (i *Ingestor) storeVectors(ctx context.Context, docs []schema.Document) error {
	texts := make([]string, len(docs))
	for j, doc := range docs {
		texts[j] = doc.PageContent
	}

	embeddings, err := i.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("expected %d embeddings, got %d", len(docs), len(embeddings))
	}

	if err := i.vectors.EnsureClass(ctx, i.className, classProperties()); err != nil {
		return fmt.Errorf("failed to ensure weaviate class: %w", err)
	}

	objects := make([]weaviate.VectorObject, len(docs))
	for j, doc := range docs {
		objects[j] = weaviate.VectorObject{
			Vector: embeddings[j],
			Properties: map[string]interface{}{
				propContent:    doc.PageContent,
				propFilename:   doc.Metadata[MetaFilename],
				propStrategy:   doc.Metadata[MetaStrategy],
				propChunkIndex: doc.Metadata[MetaChunkIndex],
				propDocumentID: strconv.FormatInt(doc.Metadata[MetaDocumentID].(int64), 10),
			},
		}
	}

	if err := i.vectors.BatchAddVectors(ctx, i.className, objects); err != nil {
		return fmt.Errorf("failed to store vectors: %w", err)
	}
	return nil
}

func buildMetadata(docs []schema.Document, filename string, documentID int64) []chunkctrl.ChunkMetadata {
	now := time.Now()
	rows := make([]chunkctrl.ChunkMetadata, 0, len(docs))
	for _, doc := range docs {
		index, _ := doc.Metadata[MetaChunkIndex].(int)
		strategy, _ := doc.Metadata[MetaStrategy].(string)
		rows = append(rows, chunkctrl.ChunkMetadata{
			DocumentID:    documentID,
			ChunkIndex:    index,
			ChunkStrategy: strategy,
			ChunkFilename: filename,
			CreatedAt:     now,
		})
	}
	return rows
}

func topChunks(docs []schema.Document) []TopChunk {
	n := min(len(docs), topChunksLimit)
	top := make([]TopChunk, 0, n)
	for _, doc := range docs[:n] {
		index, _ := doc.Metadata[MetaChunkIndex].(int)
		top = append(top, TopChunk{ChunkID: index, ChunkText: doc.PageContent})
	}
	return top
}

// IsInputError reports whether err was caused by the upload itself rather than a backend.
func IsInputError(err error) bool {
	return errors.Is(err, ErrUnsupportedFileType) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrNoChunks) ||
		errors.Is(err, ErrInvalidStrategy)
}
