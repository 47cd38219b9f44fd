package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrEmbeddingService marks any failure of the remote embedding call: network
// errors, non-success status, malformed payloads, or a vector of the wrong
// dimension. There is no fallback vector; a bad embedding would silently
// corrupt later similarity search, so the error always reaches the caller.
var ErrEmbeddingService = errors.New("embedding service error")

// EmbeddingConfig holds settings for the external embedding service.
type EmbeddingConfig struct {
	BaseURL        string
	APIKey         string
	Dimension      int
	TimeoutSeconds int
}

// EmbeddingClient calls an HTTP embedding service that accepts
// {"inputs": <text>} and returns a vector (or array of vectors) of the fixed
// dimension configured here.
type EmbeddingClient struct {
	cfg        EmbeddingConfig
	httpClient *http.Client
}

func NewEmbeddingClient(cfg EmbeddingConfig) *EmbeddingClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &EmbeddingClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Dimension returns the configured vector dimension D.
func (c *EmbeddingClient) Dimension() int {
	return c.cfg.Dimension
}

// Embed returns the embedding vector for the given text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: input is empty", ErrEmbeddingService)
	}

	bodyBytes, err := json.Marshal(map[string]interface{}{"inputs": text})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrEmbeddingService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrEmbeddingService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrEmbeddingService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrEmbeddingService, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingService, resp.StatusCode, string(raw))
	}

	vec, err := parseVector(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}
	if len(vec) != c.cfg.Dimension {
		return nil, fmt.Errorf("%w: got %d components, want %d", ErrEmbeddingService, len(vec), c.cfg.Dimension)
	}
	return vec, nil
}

// parseVector accepts either a flat vector or an array of vectors, in which
// case the first row is taken.
func parseVector(raw []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("empty vector in response")
		}
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) == 0 || len(nested[0]) == 0 {
			return nil, fmt.Errorf("empty vector in response")
		}
		return nested[0], nil
	}

	return nil, fmt.Errorf("malformed embedding payload")
}
