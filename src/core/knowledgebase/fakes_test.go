package knowledgebase_test

import (
	"context"
	"strings"

	"github.com/weaviate/weaviate/entities/models"

	"interviewrag/src/storage/postgres/chunkctrl"
	"interviewrag/src/storage/weaviate"
)

// topicEmbedder embeds text as occurrence counts of a fixed vocabulary.
type topicEmbedder struct {
	vocabulary []string
	err        error
	calls      [][]string
}

func newTopicEmbedder(vocabulary ...string) *topicEmbedder {
	return &topicEmbedder{vocabulary: vocabulary}
}

func (e *topicEmbedder) embed(text string) []float32 {
	v := make([]float32, len(e.vocabulary)+1)
	for i, word := range e.vocabulary {
		v[i] = float32(strings.Count(text, word))
	}
	v[len(e.vocabulary)] = float32(len(text)) / 1000
	return v
}

func (e *topicEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *topicEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.embed(text), nil
}

type fakeVectorStore struct {
	ensured   []string
	added     map[string][]weaviate.VectorObject
	results   []weaviate.QueryResult
	ensureErr error
	addErr    error
	queryErr  error

	lastQuery  *weaviate.QueryConfig
	lastHybrid *weaviate.HybridConfig
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{added: map[string][]weaviate.VectorObject{}}
}

func (s *fakeVectorStore) EnsureClass(ctx context.Context, className string, properties []*models.Property) error {
	if s.ensureErr != nil {
		return s.ensureErr
	}
	s.ensured = append(s.ensured, className)
	return nil
}

func (s *fakeVectorStore) BatchAddVectors(ctx context.Context, className string, objects []weaviate.VectorObject) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added[className] = append(s.added[className], objects...)
	return nil
}

func (s *fakeVectorStore) QueryVectors(ctx context.Context, className string, vector []float32, config weaviate.QueryConfig) ([]weaviate.QueryResult, error) {
	s.lastQuery = &config
	return s.results, s.queryErr
}

func (s *fakeVectorStore) QueryHybrid(ctx context.Context, className string, vector []float32, config weaviate.HybridConfig) ([]weaviate.QueryResult, error) {
	s.lastHybrid = &config
	return s.results, s.queryErr
}

type fakeMetadataRepository struct {
	rows []chunkctrl.ChunkMetadata
	err  error
}

func (r *fakeMetadataRepository) InsertChunks(ctx context.Context, chunks []chunkctrl.ChunkMetadata) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, chunks...)
	return nil
}
