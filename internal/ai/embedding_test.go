package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, dimension int, handler http.HandlerFunc) *EmbeddingClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewEmbeddingClient(EmbeddingConfig{
		BaseURL:        server.URL,
		APIKey:         "test-token",
		Dimension:      dimension,
		TimeoutSeconds: 5,
	})
}

func TestEmbedFlatVector(t *testing.T) {
	client := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "hello world", payload["inputs"])

		_, _ = w.Write([]byte(`[0.1, 0.2, 0.3]`))
	})

	vec, err := client.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedNestedVector(t *testing.T) {
	client := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[0.5, 0.6, 0.7], [0.0, 0.0, 0.0]]`))
	})

	vec, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6, 0.7}, vec)
}

func TestEmbedNonSuccessStatus(t *testing.T) {
	client := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	})

	_, err := client.Embed(context.Background(), "hello")
	require.ErrorIs(t, err, ErrEmbeddingService)
	assert.Contains(t, err.Error(), "status 503")
}

func TestEmbedMalformedPayload(t *testing.T) {
	client := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "unexpected"}`))
	})

	_, err := client.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmbeddingService)
}

func TestEmbedWrongDimension(t *testing.T) {
	client := newTestClient(t, 384, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[0.1, 0.2]`))
	})

	_, err := client.Embed(context.Background(), "hello")
	require.ErrorIs(t, err, ErrEmbeddingService)
	assert.Contains(t, err.Error(), "want 384")
}

func TestEmbedEmptyInput(t *testing.T) {
	client := NewEmbeddingClient(EmbeddingConfig{BaseURL: "http://127.0.0.1:0", Dimension: 3})
	_, err := client.Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmbeddingService)
}

func TestParseVectorEmpty(t *testing.T) {
	_, err := parseVector([]byte(`[]`))
	assert.Error(t, err)
	_, err = parseVector([]byte(`[[]]`))
	assert.Error(t, err)
}
