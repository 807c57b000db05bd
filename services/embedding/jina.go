package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/at-fk/finalproject/services"
	"go.uber.org/zap"
)

const (
	defaultModel      = "jina-embeddings-v3"
	defaultDimensions = 256
	defaultTask       = "retrieval.query"
	defaultTimeout    = 15 * time.Second
)

// Config holds the settings for the embedding endpoint
type Config struct {
	URL        string
	APIKey     string
	Model      string
	Dimensions int
	Task       string
	Timeout    time.Duration
}

// JinaClient generates query embeddings through a Jina-compatible HTTP API
type JinaClient struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewJinaClient creates a new embedding client
func NewJinaClient(config Config, logger *zap.Logger) *JinaClient {
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Dimensions == 0 {
		config.Dimensions = defaultDimensions
	}
	if config.Task == "" {
		config.Task = defaultTask
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	return &JinaClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

type embeddingRequest struct {
	Input        string `json:"input"`
	Model        string `json:"model"`
	Dimensions   int    `json:"dimensions"`
	Task         string `json:"task"`
	LateChunking bool   `json:"late_chunking"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text
func (c *JinaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.ErrEmptyEmbeddingText
	}
	if c.config.URL == "" {
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "Embedding API is not configured", nil)
	}

	reqBody, err := json.Marshal(embeddingRequest{
		Input:        text,
		Model:        c.config.Model,
		Dimensions:   c.config.Dimensions,
		Task:         c.config.Task,
		LateChunking: false,
	})
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "Failed to marshal embedding request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "Failed to create embedding request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "Failed to generate embedding", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "Failed to read embedding response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		c.logger.Warn("embedding request rejected",
			zap.Int("status", httpResp.StatusCode),
			zap.Int("body_length", len(respBody)),
		)
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "Failed to generate embedding",
			fmt.Errorf("embedding API returned status %d", httpResp.StatusCode))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "Invalid response format", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "Invalid response format", nil)
	}

	c.logger.Debug("embedding generated",
		zap.Int("dimensions", len(parsed.Data[0].Embedding)),
		zap.Duration("latency", time.Since(start)),
	)

	return parsed.Data[0].Embedding, nil
}
