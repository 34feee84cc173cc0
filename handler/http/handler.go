package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"interviewrag/src/core/agent"
	"interviewrag/src/core/booking"
	"interviewrag/src/core/knowledgebase"
	"interviewrag/src/core/system"
	"interviewrag/src/infrastructure/job"
)

// Agent answers chat turns and exposes the session history.
type Agent interface {
	Chat(ctx context.Context, sessionID, utterance string) (string, error)
	History(ctx context.Context, sessionID string) ([]agent.HistoryEntry, error)
}

type Ingester interface {
	Ingest(ctx context.Context, upload knowledgebase.Upload) (*knowledgebase.Result, error)
}

// Archiver keeps a copy of every uploaded file.
type Archiver interface {
	PutObject(ctx context.Context, bucketName, objectName, contentType string, data []byte) error
}

type JobQueue interface {
	EnqueueJob(ctx context.Context, taskType string, payload json.RawMessage) (*job.Job, error)
	Get(ctx context.Context, id int) (*job.Job, error)
}

type HealthChecker interface {
	CheckHealth(ctx context.Context) *system.HealthStatus
}

type Handler struct {
	agent        Agent
	ingester     Ingester
	health       HealthChecker
	archive      Archiver
	uploadBucket string
	jobs         JobQueue
	limiter      *rate.Limiter
}

type Option func(h *Handler)

// WithArchive stores uploads in bucket before they are indexed.
func WithArchive(archive Archiver, bucket string) Option {
	return func(h *Handler) {
		h.archive = archive
		h.uploadBucket = bucket
	}
}

// WithJobs enables asynchronous uploads and job status lookups. It needs WithArchive.
func WithJobs(jobs JobQueue) Option {
	return func(h *Handler) {
		h.jobs = jobs
	}
}

// WithRateLimit throttles the chat endpoint to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *Handler) {
		if rps > 0 {
			h.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

func NewHandler(agent Agent, ingester Ingester, health HealthChecker, opts ...Option) *Handler {
	h := &Handler{
		agent:    agent,
		ingester: ingester,
		health:   health,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/agent", h.rateLimit(), h.Converse)
	r.GET("/chat/history", h.GetChatHistory)

	r.POST("/uploadfile/", h.UploadFile)
	r.GET("/jobs/:id", h.GetJob)

	r.GET("/health", h.CheckHealth)
}

var (
	errBadRequest   = errors.New("bad request")
	errUnavailable  = errors.New("service not configured")
	errTooManyCalls = errors.New("too many requests")
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sendError maps err to a status code. status is used only for errors no rule matches.
func sendError(c *gin.Context, status int, err error) {
	var code string
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, booking.ErrInvalidInput),
		knowledgebase.IsInputError(err):
		code = "BAD_REQUEST"
		status = http.StatusBadRequest
	case errors.Is(err, job.ErrJobNotFound):
		code = "NOT_FOUND"
		status = http.StatusNotFound
	case errors.Is(err, errTooManyCalls):
		code = "RATE_LIMITED"
		status = http.StatusTooManyRequests
	case errors.Is(err, errUnavailable):
		code = "NOT_IMPLEMENTED"
		status = http.StatusNotImplemented
	default:
		code = "INTERNAL_ERROR"
		if status < http.StatusInternalServerError {
			status = http.StatusInternalServerError
		}
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    code,
		Message: errorMessage(err),
	})
}

// uploadErrorDetails are the client facing texts for rejected uploads.
var uploadErrorDetails = []struct {
	err    error
	detail string
}{
	{knowledgebase.ErrUnsupportedFileType, "Unsupported file type. Please upload .txt or .pdf"},
	{knowledgebase.ErrEmptyDocument, "The file appears to be empty or unreadable."},
	{knowledgebase.ErrNoChunks, "No chunks produced from the file."},
	{knowledgebase.ErrInvalidStrategy, "Invalid chunking strategy. Use recursive, semantic or both."},
}

func errorMessage(err error) string {
	for _, d := range uploadErrorDetails {
		if errors.Is(err, d.err) {
			return d.detail
		}
	}
	return err.Error()
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
