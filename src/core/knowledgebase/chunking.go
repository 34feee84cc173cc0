package knowledgebase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategySemantic  Strategy = "semantic"
	StrategyBoth      Strategy = "both"
)

// ParseStrategy accepts recursive, semantic or both. An empty value means recursive.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyRecursive, nil
	case StrategyRecursive, StrategySemantic, StrategyBoth:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
}

func (s Strategy) usesRecursive() bool { return s == StrategyRecursive || s == StrategyBoth }
func (s Strategy) usesSemantic() bool  { return s == StrategySemantic || s == StrategyBoth }

const (
	DefaultChunkSize            = 300
	DefaultChunkOverlap         = 0
	DefaultBreakpointPercentile = 95
)

var recursiveSeparators = []string{"\n\n", "\n", " ", ".", "?", "!"}

type ChunkerConfig struct {
	ChunkSize            int
	ChunkOverlap         int
	BreakpointPercentile float64
}

func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		ChunkSize:            DefaultChunkSize,
		ChunkOverlap:         DefaultChunkOverlap,
		BreakpointPercentile: DefaultBreakpointPercentile,
	}
}

// Chunker splits extracted text into chunk documents.
type Chunker struct {
	cfg      ChunkerConfig
	embedder Embedder
}

func NewChunker(embedder Embedder, cfg ChunkerConfig) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.BreakpointPercentile <= 0 || cfg.BreakpointPercentile > 100 {
		cfg.BreakpointPercentile = DefaultBreakpointPercentile
	}
	return &Chunker{cfg: cfg, embedder: embedder}
}

// Split applies the strategy. With StrategyBoth the recursive chunks come first and each
// strategy numbers its chunks from zero.
func (c *Chunker) Split(ctx context.Context, text, filename string, strategy Strategy) ([]schema.Document, Stats, error) {
	stats := Stats{StrategyUsed: strategy}
	var docs []schema.Document

	if strategy.usesRecursive() {
		chunks, err := c.splitRecursive(text)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to split recursively: %w", err)
		}
		stats.RecursiveChunkCount = len(chunks)
		docs = append(docs, toDocuments(chunks, filename, StrategyRecursive)...)
	}

	if strategy.usesSemantic() {
		chunks, err := c.splitSemantic(ctx, text)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to split semantically: %w", err)
		}
		stats.SemanticChunkCount = len(chunks)
		docs = append(docs, toDocuments(chunks, filename, StrategySemantic)...)
	}

	stats.TotalChunks = len(docs)
	return docs, stats, nil
}

func (c *Chunker) splitRecursive(text string) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithSeparators(recursiveSeparators),
		textsplitter.WithChunkSize(c.cfg.ChunkSize),
		textsplitter.WithChunkOverlap(c.cfg.ChunkOverlap),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
	return splitter.SplitText(text)
}

func toDocuments(chunks []string, filename string, strategy Strategy) []schema.Document {
	docs := make([]schema.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, schema.Document{
			PageContent: chunk,
			Metadata: map[string]any{
				MetaStrategy:   string(strategy),
				MetaFilename:   filename,
				MetaChunkIndex: i,
			},
		})
	}
	return docs
}
