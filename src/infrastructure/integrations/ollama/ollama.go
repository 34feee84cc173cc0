package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"interviewrag/src/infrastructure/log"
)

const (
	DefaultURL             = "http://localhost:11434"
	DefaultEmbeddingModel  = "all-minilm"
	DefaultGenerationModel = "llama3.2"
)

// Client embeds text and generates completions through an Ollama server.
type Client struct {
	api             *api.Client
	embeddingModel  string
	generationModel string
	options         map[string]interface{}
}

type Option func(c *Client)

func WithEmbeddingModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.embeddingModel = model
		}
	}
}

func WithGenerationModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.generationModel = model
		}
	}
}

func WithTemperature(temperature float64) Option {
	return func(c *Client) {
		c.options["temperature"] = temperature
	}
}

// NewClient creates a client for the server at baseURL, e.g. http://localhost:11434.
func NewClient(baseURL string, httpClient *http.Client, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	u, err := url.Parse(strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/api"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		api:             api.NewClient(u, httpClient),
		embeddingModel:  DefaultEmbeddingModel,
		generationModel: DefaultGenerationModel,
		options:         map[string]interface{}{},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// EmbedDocuments embeds all texts in a single request, preserving order.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.Embed(ctx, &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	return resp.Embeddings, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Generate returns the full, non-streamed completion for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   c.generationModel,
		Prompt:  prompt,
		Stream:  &stream,
		Options: c.options,
	}

	var response strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		if resp.Done {
			log.Debug("ollama generation done",
				"model", resp.Model,
				"done_reason", resp.DoneReason,
				"eval_count", resp.EvalCount)
		}
		return nil
	})
	if err != nil {
		log.Error(err, "failed to generate with ollama", "model", c.generationModel)
		return "", fmt.Errorf("failed to generate: %w", err)
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response received from ollama")
	}

	return response.String(), nil
}

// Ping checks that the server is up.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.api.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama heartbeat failed: %w", err)
	}
	return nil
}
