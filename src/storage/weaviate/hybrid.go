package weaviate

import (
	"context"
	"fmt"
)

// HybridConfig configures a hybrid (BM25 + vector) search.
type HybridConfig struct {
	Query  string  // keyword part
	Alpha  float32 // 1 is pure vector, 0 pure keyword
	Fields []string
	Limit  int
}

// QueryHybrid fuses keyword and vector relevance. Results are ordered by descending score.
func (w *SDK) QueryHybrid(ctx context.Context, className string, vector []float32, config HybridConfig) ([]QueryResult, error) {
	fields := toFields(config.Fields, "_additional { id score }")

	hybrid := w.client.GraphQL().HybridArgumentBuilder().
		WithQuery(config.Query).
		WithVector(vector).
		WithAlpha(config.Alpha)

	limit := config.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(className).
		WithFields(fields...).
		WithHybrid(hybrid).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run hybrid query: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("failed to run hybrid query: %s", result.Errors[0].Message)
	}

	return parseResults(result, className, "score"), nil
}
