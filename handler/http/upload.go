package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"interviewrag/src/core/knowledgebase"
	"interviewrag/src/infrastructure/job"
	"interviewrag/src/storage/minioctrl"
)

// UploadFile indexes a .txt or .pdf file sent as the multipart field "file".
// With async=true the file is archived and indexed by a worker; the reply is the queued job.
func (h *Handler) UploadFile(c *gin.Context) {
	strategy, err := knowledgebase.ParseStrategy(c.DefaultQuery("strategy", string(knowledgebase.StrategyRecursive)))
	if err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	async := false
	if v := c.Query("async"); v != "" {
		async, err = strconv.ParseBool(v)
		if err != nil {
			sendError(c, http.StatusBadRequest, fmt.Errorf("%w: invalid async flag %q", errBadRequest, v))
			return
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: file is required", errBadRequest))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		sendError(c, http.StatusInternalServerError, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(c, http.StatusInternalServerError, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	upload := knowledgebase.Upload{
		Filename:    fileHeader.Filename,
		ContentType: knowledgebase.DetectContentType(fileHeader.Filename, fileHeader.Header.Get("Content-Type")),
		Data:        data,
		Strategy:    strategy,
	}

	if async {
		h.enqueueUpload(c, upload)
		return
	}

	if h.archive != nil {
		if err := h.archive.PutObject(c.Request.Context(), h.uploadBucket, minioctrl.ObjectName(upload.Filename), upload.ContentType, upload.Data); err != nil {
			sendError(c, http.StatusInternalServerError, err)
			return
		}
	}

	result, err := h.ingester.Ingest(c.Request.Context(), upload)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, result)
}

func (h *Handler) enqueueUpload(c *gin.Context, upload knowledgebase.Upload) {
	if h.archive == nil || h.jobs == nil {
		sendError(c, http.StatusNotImplemented, fmt.Errorf("%w: asynchronous ingestion needs object storage and a job queue", errUnavailable))
		return
	}

	objectName := minioctrl.ObjectName(upload.Filename)
	if err := h.archive.PutObject(c.Request.Context(), h.uploadBucket, objectName, upload.ContentType, upload.Data); err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	payload, err := json.Marshal(job.IngestionPayload{
		Bucket:      h.uploadBucket,
		Object:      objectName,
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		Strategy:    string(upload.Strategy),
	})
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	j, err := h.jobs.EnqueueJob(c.Request.Context(), job.TaskTypeIngestion, payload)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusAccepted, j)
}
