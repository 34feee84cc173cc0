package knowledgebase

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tmc/langchaingo/schema"
)

const maxEvalLineSize = 4 * 1024 * 1024

// Retriever returns the chunks closest to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]schema.Document, error)
}

// ChunkRef identifies a stored chunk by its source file and position.
type ChunkRef struct {
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}

// EvalCase is one line of an evaluation set.
type EvalCase struct {
	Query  string     `json:"query"`
	Golden []ChunkRef `json:"golden"`
}

type EvalReport struct {
	Cases   int     `json:"cases"`
	Skipped int     `json:"skipped"`
	Recall  float64 `json:"recall"`
	MRR     float64 `json:"mrr"`
}

// Evaluate reads JSON lines of EvalCase from r and scores retrieval at topK.
// Lines that fail to parse or have no golden chunks are skipped.
func Evaluate(ctx context.Context, retriever Retriever, r io.Reader, topK int) (*EvalReport, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEvalLineSize)

	report := &EvalReport{}
	var recallSum, rrSum float64
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var c EvalCase
		if err := json.Unmarshal(line, &c); err != nil || c.Query == "" || len(c.Golden) == 0 {
			report.Skipped++
			continue
		}

		docs, err := retriever.Retrieve(ctx, c.Query, topK)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve for %q: %w", c.Query, err)
		}

		recall, rr := scoreCase(docs, c.Golden)
		recallSum += recall
		rrSum += rr
		report.Cases++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read evaluation set: %w", err)
	}

	if report.Cases > 0 {
		report.Recall = recallSum / float64(report.Cases)
		report.MRR = rrSum / float64(report.Cases)
	}
	return report, nil
}

// scoreCase returns the share of golden chunks retrieved and the reciprocal rank of the first hit.
func scoreCase(docs []schema.Document, golden []ChunkRef) (recall, reciprocalRank float64) {
	want := make(map[ChunkRef]bool, len(golden))
	for _, g := range golden {
		want[g] = true
	}

	hits := 0
	for rank, doc := range docs {
		filename, _ := doc.Metadata[MetaFilename].(string)
		index, _ := doc.Metadata[MetaChunkIndex].(int)
		ref := ChunkRef{Filename: filename, ChunkIndex: index}
		if !want[ref] {
			continue
		}
		delete(want, ref)
		hits++
		if reciprocalRank == 0 {
			reciprocalRank = 1 / float64(rank+1)
		}
	}

	return float64(hits) / float64(len(golden)), reciprocalRank
}
