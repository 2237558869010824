package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, Model: "test-embed", MaxBatchSize: 2})
}

func echoEmbeddings(t *testing.T, w http.ResponseWriter, r *http.Request) {
	t.Helper()
	var req embedRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

	data := make([]map[string]any, len(req.Input))
	for i := range req.Input {
		// Reverse order on the wire; the client must place by index.
		j := len(req.Input) - 1 - i
		data[i] = map[string]any{
			"index":     j,
			"embedding": []float32{float32(len(req.Input[j])), 1},
		}
	}
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": data}))
}

func TestEmbedBatchOrderAndChunking(t *testing.T) {
	var calls atomic.Int32
	client := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		echoEmbeddings(t, w, r)
	})

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := client.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vecs[i][0], "vector %d", i)
	}
	// MaxBatchSize 2 over 5 inputs.
	assert.EqualValues(t, 3, calls.Load())
}

func TestEmbedBatchEmpty(t *testing.T) {
	client := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	vecs, err := client.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	client := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": []any{}}))
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 embeddings for 1 inputs")
}

func TestEmbedBatchAPIError(t *testing.T) {
	client := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}
