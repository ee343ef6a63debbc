package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelsServer(t *testing.T, contentType string, body string, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
}

func TestListModelsShapes(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		ids         []string
	}{
		{
			name:        "list object",
			contentType: "application/json",
			body:        `{"object":"list","data":[{"id":"llama3"},{"id":"mistral"}]}`,
			ids:         []string{"llama3", "mistral"},
		},
		{
			name:        "bare array",
			contentType: "application/json; charset=utf-8",
			body:        `[{"id":"qwen2"}]`,
			ids:         []string{"qwen2"},
		},
		{
			name:        "unknown object",
			contentType: "application/json",
			body:        `{"models":[{"name":"llama3"}]}`,
		},
		{
			name:        "html",
			contentType: "text/html",
			body:        `<html>ollama is running</html>`,
		},
		{
			name:        "garbage json",
			contentType: "application/json",
			body:        `{"object":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := modelsServer(t, tt.contentType, tt.body, &calls)
			defer server.Close()

			endpoint := server.URL + "/v1"
			ms := NewService(nil).ListModels(context.Background(), endpoint)
			require.NotNil(t, ms)
			require.Len(t, ms, len(tt.ids))
			for i, id := range tt.ids {
				m := ms[i]
				assert.Equal(t, endpoint+"-"+id, m.ID)
				assert.Equal(t, id, m.Name)
				assert.Equal(t, models.ProviderLocal, m.Provider)
				assert.Equal(t, models.KindCustom, m.Kind)
				assert.False(t, m.RequiresAuth)
				assert.Equal(t, endpoint, m.Endpoint)
				assert.Equal(t, models.DefaultMaxTokens, m.MaxTokens)
			}
		})
	}
}

func TestListModelsCachesSuccess(t *testing.T) {
	var calls int32
	server := modelsServer(t, "application/json", `{"object":"list","data":[{"id":"llama3"}]}`, &calls)
	defer server.Close()

	s := NewService(NewMemoryCache())
	endpoint := server.URL + "/v1"

	first := s.ListModels(context.Background(), endpoint)
	second := s.ListModels(context.Background(), endpoint+"/")
	require.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	s.Cache().Invalidate(endpoint)
	s.ListModels(context.Background(), endpoint)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	s.Cache().InvalidateAll()
	s.ListModels(context.Background(), endpoint)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInvalidateNormalizesEndpoint(t *testing.T) {
	var calls int32
	server := modelsServer(t, "application/json", `{"object":"list","data":[{"id":"llama3"}]}`, &calls)
	defer server.Close()

	s := NewService(NewMemoryCache())
	endpoint := server.URL + "/v1/"

	s.ListModels(context.Background(), endpoint)
	s.Invalidate(endpoint)
	s.ListModels(context.Background(), endpoint)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	s.Cache().Invalidate(endpoint)
	s.ListModels(context.Background(), endpoint)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestListModelsDoesNotCacheFailures(t *testing.T) {
	var calls int32
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"phi3"}]`))
	}))
	defer server.Close()

	s := NewService(nil)
	assert.Empty(t, s.ListModels(context.Background(), server.URL))
	assert.False(t, s.IsAvailable(context.Background(), server.URL))

	healthy.Store(true)
	assert.Len(t, s.ListModels(context.Background(), server.URL), 1)
	assert.True(t, s.IsAvailable(context.Background(), server.URL))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestListModelsTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	ms := NewService(nil, WithTimeout(50*time.Millisecond)).ListModels(context.Background(), server.URL)
	assert.Empty(t, ms)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestListModelsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	assert.Empty(t, NewService(nil).ListModels(context.Background(), url))
}

func TestListModelsConcurrentCallersShareOneProbe(t *testing.T) {
	var calls int32
	gate := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-gate
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"a"},{"id":"b"}]`))
	}))
	defer server.Close()

	s := NewService(nil)
	var wg sync.WaitGroup
	results := make([][]*models.Model, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.ListModels(context.Background(), server.URL)
		}(i)
	}
	// let the goroutines pile up on the in-flight probe
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()

	for _, r := range results {
		assert.Len(t, r, 2)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	c := NewMemoryCache()
	c.Put("e", []*models.Model{models.NewCustomModel("e-x", "x", models.ProviderLocal, "e")})

	ms, ok := c.Get("e")
	require.True(t, ok)
	ms[0].Name = "mutated"

	again, _ := c.Get("e")
	assert.Equal(t, "x", again[0].Name)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}
