package knowledgebase

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

const (
	ContentTypeText = "text/plain"
	ContentTypePDF  = "application/pdf"
)

// DetectContentType returns declared unless it is missing or generic, in which case the
// type is taken from the file extension.
func DetectContentType(filename, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return ContentTypeText
	case ".pdf":
		return ContentTypePDF
	}
	return declared
}

// ExtractText returns the plain text of a .txt or .pdf upload. PDF pages are concatenated.
func ExtractText(ctx context.Context, contentType string, data []byte) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, contentType)
	}

	var docs []schema.Document
	switch mediaType {
	case ContentTypeText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("failed to decode text: invalid UTF-8")
		}
		docs, err = documentloaders.NewText(bytes.NewReader(data)).Load(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read text: %w", err)
		}
	case ContentTypePDF:
		docs, err = loadPDF(ctx, data)
		if err != nil {
			return "", fmt.Errorf("failed to read PDF: %w", err)
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, mediaType)
	}

	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(doc.PageContent)
	}

	content := sb.String()
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyDocument
	}
	return content, nil
}

// loadPDF guards against panics in the PDF parser on malformed input.
func loadPDF(ctx context.Context, data []byte) (docs []schema.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	return documentloaders.NewPDF(bytes.NewReader(data), int64(len(data))).Load(ctx)
}
