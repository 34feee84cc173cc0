package knowledgebase

import (
	"errors"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyDocument       = errors.New("file is empty or unreadable")
	ErrNoChunks            = errors.New("no chunks produced")
	ErrInvalidStrategy     = errors.New("invalid chunking strategy")
)

// Upload is a document submitted for indexing.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	Strategy    Strategy
}

// Result summarises one ingestion.
type Result struct {
	Message      string     `json:"message"`
	DocumentID   int64      `json:"document_id,string"`
	ChunksLength int        `json:"chunks_length"`
	Stats        Stats      `json:"stats"`
	TopChunks    []TopChunk `json:"top_chunks"`
}

type Stats struct {
	StrategyUsed        Strategy `json:"strategy_used"`
	RecursiveChunkCount int      `json:"recursive_chunk_count,omitempty"`
	SemanticChunkCount  int      `json:"semantic_chunk_count,omitempty"`
	TotalChunks         int      `json:"total_chunks"`
	MaxChunkTokens      int      `json:"max_chunk_tokens"`
}

type TopChunk struct {
	ChunkID   int    `json:"chunk_id"`
	ChunkText string `json:"chunk_text"`
}

// Metadata keys set on every chunk document.
const (
	MetaStrategy   = "strategy"
	MetaFilename   = "filename"
	MetaChunkIndex = "chunk_index"
	MetaDocumentID = "document_id"
)
