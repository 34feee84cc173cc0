package job

import (
	"context"
	"encoding/json"
	"fmt"

	"interviewrag/src/core/knowledgebase"
)

const TaskTypeIngestion = "ingestion"

// IngestionPayload points at an upload archived in object storage.
type IngestionPayload struct {
	Bucket      string `json:"bucket"`
	Object      string `json:"object"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Strategy    string `json:"strategy"`
}

type ObjectFetcher interface {
	GetObject(ctx context.Context, bucketName, objectName string) ([]byte, error)
}

type Ingester interface {
	Ingest(ctx context.Context, upload knowledgebase.Upload) (*knowledgebase.Result, error)
}

// IngestionTask indexes an archived upload.
type IngestionTask struct {
	objects  ObjectFetcher
	ingestor Ingester
}

func NewIngestionTask(objects ObjectFetcher, ingestor Ingester) *IngestionTask {
	return &IngestionTask{
		objects:  objects,
		ingestor: ingestor,
	}
}

func (t *IngestionTask) Handle(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	var payload IngestionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal ingestion payload: %v", ErrPermanent, err)
	}

	data, err := t.objects.GetObject(ctx, payload.Bucket, payload.Object)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upload %s/%s: %w", payload.Bucket, payload.Object, err)
	}

	result, err := t.ingestor.Ingest(ctx, knowledgebase.Upload{
		Filename:    payload.Filename,
		ContentType: payload.ContentType,
		Data:        data,
		Strategy:    knowledgebase.Strategy(payload.Strategy),
	})
	if err != nil {
		if knowledgebase.IsInputError(err) {
			return nil, fmt.Errorf("%w: %w", ErrPermanent, err)
		}
		return nil, err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingestion result: %w", err)
	}
	return out, nil
}
