package knowledgebase

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

var sentenceEnd = regexp.MustCompile(`[.?!]\s+`)

// splitSemantic groups sentences and starts a new chunk wherever the embedding distance
// between neighbouring sentence windows is above the configured percentile.
func (c *Chunker) splitSemantic(ctx context.Context, text string) ([]string, error) {
	if c.embedder == nil {
		return nil, fmt.Errorf("semantic chunking requires an embedder")
	}

	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return sentences, nil
	}

	embeddings, err := c.embedder.EmbedDocuments(ctx, sentenceWindows(sentences, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to embed sentences: %w", err)
	}
	if len(embeddings) != len(sentences) {
		return nil, fmt.Errorf("expected %d sentence embeddings, got %d", len(sentences), len(embeddings))
	}

	distances := make([]float64, len(embeddings)-1)
	for i := range distances {
		distances[i] = 1 - cosineSimilarity(embeddings[i], embeddings[i+1])
	}
	threshold := percentile(distances, c.cfg.BreakpointPercentile)

	var chunks []string
	start := 0
	for i, d := range distances {
		if d > threshold {
			chunks = append(chunks, strings.Join(sentences[start:i+1], " "))
			start = i + 1
		}
	}
	if start < len(sentences) {
		chunks = append(chunks, strings.Join(sentences[start:], " "))
	}

	return chunks, nil
}

// splitSentences breaks text after ., ? or ! followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// sentenceWindows joins every sentence with up to buffer neighbours on each side.
func sentenceWindows(sentences []string, buffer int) []string {
	windows := make([]string, len(sentences))
	for i := range sentences {
		lo := max(0, i-buffer)
		hi := min(len(sentences), i+buffer+1)
		windows[i] = strings.Join(sentences[lo:hi], " ")
	}
	return windows
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// percentile uses linear interpolation between closest ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}
