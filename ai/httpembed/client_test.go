package httpembed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/embedbench/ai"
	"github.com/poiesic/embedbench/core"
	"github.com/poiesic/embedbench/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embedServer answers every input with a two element vector whose first
// element is the input's length, so order can be checked.
type embedServer struct {
	mu       sync.Mutex
	bodies   []map[string]any
	calls    atomic.Int32
	response func(n int32, inputs any) (int, any)
}

func (s *embedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := s.calls.Add(1)
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)
	s.mu.Lock()
	s.bodies = append(s.bodies, body)
	s.mu.Unlock()

	status, resp := http.StatusOK, lengthVectors(body["inputs"])
	if s.response != nil {
		status, resp = s.response(n, body["inputs"])
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *embedServer) body(i int) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[i]
}

func lengthVectors(inputs any) any {
	switch v := inputs.(type) {
	case string:
		return []float64{float64(len(v)), 1}
	case []any:
		out := make([][]float64, len(v))
		for i, s := range v {
			out[i] = []float64{float64(len(s.(string))), 1}
		}
		return out
	}
	return nil
}

func newTestClient(t *testing.T, srv *embedServer, opts ...ai.ConfigOption) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	base := []ai.ConfigOption{ai.WithEmbeddingHost(ts.URL + "/embed"), ai.WithRetry(3, time.Millisecond)}
	c, err := NewClient(ai.NewConfig(append(base, opts...)...))
	require.NoError(t, err)
	return c, ts
}

func TestEmbedText_Unbatched(t *testing.T) {
	srv := &embedServer{}
	c, _ := newTestClient(t, srv)

	v, err := c.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, v)

	require.Equal(t, int32(1), srv.calls.Load())
	assert.Equal(t, "hello", srv.body(0)["inputs"], "unbatched requests send a bare string")
}

func TestEmbedTexts_UnbatchedShapes(t *testing.T) {
	shapes := map[string]func(v []float64) any{
		"bare":      func(v []float64) any { return v },
		"data":      func(v []float64) any { return map[string]any{"data": v} },
		"embedding": func(v []float64) any { return map[string]any{"embedding": [][]float64{v}} },
	}
	for name, shape := range shapes {
		t.Run(name, func(t *testing.T) {
			srv := &embedServer{response: func(_ int32, inputs any) (int, any) {
				return http.StatusOK, shape([]float64{float64(len(inputs.(string))), 0})
			}}
			c, _ := newTestClient(t, srv)

			got, err := c.EmbedTexts(context.Background(), []string{"a", "bbb"})
			require.NoError(t, err)
			assert.Equal(t, [][]float32{{1, 0}, {3, 0}}, got)
			assert.Equal(t, int32(2), srv.calls.Load(), "one call per text")
		})
	}
}

func TestEmbedTexts_BatchedPreservesOrder(t *testing.T) {
	srv := &embedServer{}
	c, _ := newTestClient(t, srv, ai.WithBatchSize(2))

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	got, err := c.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, got, len(texts))
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), got[i][0])
	}

	assert.Equal(t, int32(3), srv.calls.Load())
	assert.Equal(t, []any{"a", "bb"}, srv.body(0)["inputs"])
	assert.Equal(t, []any{"eeeee"}, srv.body(2)["inputs"], "the last group is still sent as a list")
}

func TestEmbedTexts_LengthMismatchIsNotRetried(t *testing.T) {
	srv := &embedServer{response: func(int32, any) (int, any) {
		return http.StatusOK, [][]float64{{1, 2}}
	}}
	c, _ := newTestClient(t, srv, ai.WithBatchSize(4))

	_, err := c.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBatchLengthMismatch)
	assert.Equal(t, "contract", core.ErrorClass(err))
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestEmbedText_RetriesTransientFailures(t *testing.T) {
	srv := &embedServer{response: func(n int32, inputs any) (int, any) {
		if n < 3 {
			return http.StatusServiceUnavailable, map[string]any{"error": "loading model"}
		}
		return http.StatusOK, lengthVectors(inputs)
	}}
	c, _ := newTestClient(t, srv)

	stats := &metrics.DocumentStats{DocumentID: "doc"}
	ctx := metrics.WithDocumentStats(context.Background(), stats)

	v, err := c.EmbedText(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1}, v)
	assert.Equal(t, int32(3), srv.calls.Load())
	assert.Equal(t, 3, stats.APICalls, "every attempt is observed")
	assert.Equal(t, 2, stats.APIRetries)
}

func TestEmbedText_ExhaustsRetries(t *testing.T) {
	srv := &embedServer{response: func(int32, any) (int, any) {
		return http.StatusBadGateway, "upstream down"
	}}
	c, _ := newTestClient(t, srv)

	_, err := c.EmbedText(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, core.IsTransient(err))
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.Equal(t, int32(3), srv.calls.Load())
}

func TestEmbedText_ClientErrorIsNotRetried(t *testing.T) {
	srv := &embedServer{response: func(int32, any) (int, any) {
		return http.StatusUnprocessableEntity, "input too long"
	}}
	c, _ := newTestClient(t, srv)

	_, err := c.EmbedText(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, "contract", core.ErrorClass(err))
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestEmbedText_UnrecognizedShapeIsNotRetried(t *testing.T) {
	srv := &embedServer{response: func(int32, any) (int, any) {
		return http.StatusOK, map[string]any{"vectors": [][]float64{{1}}}
	}}
	c, _ := newTestClient(t, srv)

	_, err := c.EmbedText(context.Background(), "x")
	assert.ErrorIs(t, err, core.ErrUnrecognizedResponse)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestEmbedText_TimeoutIsRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-time.After(time.Second):
			case <-r.Context().Done():
			}
			return
		}
		_ = json.NewEncoder(w).Encode([]float64{1, 2, 3})
	}))
	t.Cleanup(ts.Close)

	c, err := NewClient(ai.NewConfig(
		ai.WithEmbeddingHost(ts.URL),
		ai.WithTimeout(50*time.Millisecond),
		ai.WithRetry(2, time.Millisecond),
	))
	require.NoError(t, err)

	v, err := c.EmbedText(context.Background(), "slow")
	require.NoError(t, err)
	assert.Len(t, v, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedText_CanceledContext(t *testing.T) {
	srv := &embedServer{}
	c, _ := newTestClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.EmbedText(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), srv.calls.Load())
}

func TestEmbedTexts_RateLimited(t *testing.T) {
	srv := &embedServer{}
	c, _ := newTestClient(t, srv, ai.WithRateLimit(1000))
	require.NotNil(t, c.limiter)

	texts := make([]string, 5)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}
	got, err := c.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestEmbedderInterface(t *testing.T) {
	srv := &embedServer{}
	c, _ := newTestClient(t, srv, ai.WithBatchSize(8))

	docs, err := c.EmbedDocuments(context.Background(), []string{"one", "three"})
	require.NoError(t, err)
	assert.Equal(t, float32(5), docs[1][0])

	q, err := c.EmbedQuery(context.Background(), "four")
	require.NoError(t, err)
	assert.Equal(t, float32(4), q[0])

	dims, err := ai.Probe(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, dims)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(ai.NewConfig(ai.WithEmbeddingHost("")))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	_, err = NewClient(ai.NewConfig(), WithLogger(nil))
	assert.Error(t, err)
}
