package embed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama answers the embeddings endpoint with a vector derived from the
// prompt so tests can tell responses apart.
func fakeOllama(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiPathTags:
			w.WriteHeader(http.StatusOK)
		case apiPathEmbeddings:
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			vector := make([]float32, dims)
			for i := range vector {
				vector[i] = float32(len(req.Prompt))
			}
			require.NoError(t, json.NewEncoder(w).Encode(embedResponse{Embedding: vector}))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestOllamaProvider_Embed(t *testing.T) {
	server := fakeOllama(t, 4)
	defer server.Close()

	provider := NewOllamaProvider(WithBaseURL(server.URL), WithDimensions(4))

	vector, err := provider.Embed(t.Context(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 3, 3, 3}, vector)
}

func TestOllamaProvider_EmbedDimensionMismatch(t *testing.T) {
	server := fakeOllama(t, 4)
	defer server.Close()

	provider := NewOllamaProvider(WithBaseURL(server.URL), WithDimensions(8))

	_, err := provider.Embed(t.Context(), "abc")
	require.ErrorContains(t, err, "unexpected embedding dimensions")
}

func TestOllamaProvider_EmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewOllamaProvider(WithBaseURL(server.URL))

	_, err := provider.Embed(t.Context(), "abc")
	require.ErrorContains(t, err, "status 500")
}

func TestOllamaProvider_EmbedBatch(t *testing.T) {
	server := fakeOllama(t, 2)
	defer server.Close()

	provider := NewOllamaProvider(WithBaseURL(server.URL), WithDimensions(2))

	vectors, err := provider.EmbedBatch(t.Context(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 1}, vectors[0])
	assert.Equal(t, []float32{2, 2}, vectors[1])
	assert.Equal(t, []float32{3, 3}, vectors[2])
}

func TestOllamaProvider_Defaults(t *testing.T) {
	provider := NewOllamaProvider()
	assert.Equal(t, DefaultModel, provider.ModelName())
	assert.Equal(t, DefaultDimensions, provider.Dimensions())
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := fakeOllama(t, 2)
	provider := NewOllamaProvider(WithBaseURL(server.URL))
	require.NoError(t, provider.IsAvailable(t.Context()))

	server.Close()
	require.Error(t, provider.IsAvailable(t.Context()))
}
