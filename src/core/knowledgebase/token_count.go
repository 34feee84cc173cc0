package knowledgebase

import (
	"strings"
	"unicode"
)

// EmbeddingTokenLimit is the input window of the default sentence-transformer embedding
// model; longer chunks are silently truncated by the model.
const EmbeddingTokenLimit = 256

// EstimateTokenCount roughly approximates a WordPiece token count, including the
// [CLS] and [SEP] markers. It is only used for reporting.
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	count := 2
	for _, word := range strings.Fields(text) {
		count += estimateWordTokens(word)
	}
	return count
}

func estimateWordTokens(word string) int {
	runes := []rune(word)
	if len(runes) == 1 && unicode.IsPunct(runes[0]) {
		return 1
	}

	if isNumber(word) {
		return len(runes)
	}

	// Long words split into several word pieces, roughly one per four characters.
	if len(runes) <= 4 {
		return 1
	}
	return (len(runes) + 3) / 4
}

func isNumber(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}
