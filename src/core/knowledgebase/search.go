package knowledgebase

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/schema"

	"interviewrag/src/storage/weaviate"
)

var searchFields = []string{propContent, propFilename, propStrategy, propChunkIndex, propDocumentID}

// SearchService retrieves the chunks closest to a query.
type SearchService struct {
	embedder    Embedder
	vectors     VectorStore
	className   string
	hybridAlpha float32
}

type SearchOption func(s *SearchService)

func WithSearchClassName(className string) SearchOption {
	return func(s *SearchService) {
		if className != "" {
			s.className = className
		}
	}
}

// WithHybridAlpha switches retrieval to hybrid search. alpha weights the vector side and
// must be in (0, 1); other values keep plain vector search.
func WithHybridAlpha(alpha float32) SearchOption {
	return func(s *SearchService) {
		if alpha > 0 && alpha < 1 {
			s.hybridAlpha = alpha
		}
	}
}

func NewSearchService(embedder Embedder, vectors VectorStore, opts ...SearchOption) *SearchService {
	s := &SearchService{
		embedder:  embedder,
		vectors:   vectors,
		className: DefaultClassName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve returns up to topK chunks, best match first. Score is a similarity where higher
// is better.
func (s *SearchService) Retrieve(ctx context.Context, query string, topK int) ([]schema.Document, error) {
	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get query embedding: %w", err)
	}

	var (
		results  []weaviate.QueryResult
		distance = true
	)
	if s.hybridAlpha > 0 {
		distance = false
		results, err = s.vectors.QueryHybrid(ctx, s.className, embedding, weaviate.HybridConfig{
			Query:  query,
			Alpha:  s.hybridAlpha,
			Fields: searchFields,
			Limit:  topK,
		})
	} else {
		results, err = s.vectors.QueryVectors(ctx, s.className, embedding, weaviate.QueryConfig{
			Fields: searchFields,
			Limit:  topK,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search weaviate: %w", err)
	}

	return toSearchDocuments(results, distance), nil
}

func toSearchDocuments(results []weaviate.QueryResult, distance bool) []schema.Document {
	docs := make([]schema.Document, 0, len(results))
	for _, result := range results {
		content, ok := result.Properties[propContent].(string)
		if !ok || content == "" {
			continue
		}

		score := result.Score
		if distance {
			score = 1 - score
		}

		metadata := map[string]any{}
		if v, ok := result.Properties[propFilename].(string); ok {
			metadata[MetaFilename] = v
		}
		if v, ok := result.Properties[propStrategy].(string); ok {
			metadata[MetaStrategy] = v
		}
		if v, ok := result.Properties[propChunkIndex].(float64); ok {
			metadata[MetaChunkIndex] = int(v)
		}
		if v, ok := result.Properties[propDocumentID].(string); ok {
			metadata[MetaDocumentID] = v
		}

		docs = append(docs, schema.Document{
			PageContent: content,
			Metadata:    metadata,
			Score:       float32(score),
		})
	}
	return docs
}
