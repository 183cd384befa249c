package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragctx-cli/internal/retry"
)

// mockProvider implements driven.EmbeddingProvider for testing.
type mockProvider struct {
	mu       sync.Mutex
	calls    [][]string
	failures int // fail this many calls before succeeding
	err      error
	dims     func(text string) []float32
}

func (m *mockProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]string(nil), texts...))
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("transient provider failure")
	}
	if m.err != nil {
		return nil, m.err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if m.dims != nil {
			out[i] = m.dims(text)
			continue
		}
		var sum float32
		for _, b := range []byte(text) {
			sum += float32(b)
		}
		out[i] = []float32{float32(len(text)), sum}
	}
	return out, nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockProvider) Dimensions() int            { return 2 }
func (m *mockProvider) ModelName() string          { return "mock-embed" }
func (m *mockProvider) Ping(context.Context) error { return nil }
func (m *mockProvider) Close() error               { return nil }

// fakeCache implements driven.EmbeddingCache backed by a plain map.
type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]float32
	getErr error
	putErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]float32)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *fakeCache) Put(_ context.Context, key string, vector []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.data[key] = vector
	return nil
}

func (c *fakeCache) Len(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data), nil
}

func (c *fakeCache) Close() error { return nil }

func embedderSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.Provider.BatchSize = 10
	s.Provider.MaxRetries = 2
	s.Provider.RetryDelays = []time.Duration{time.Millisecond}
	s.Provider.MaxConcurrency = 4
	s.Provider.RequestsPerSecond = 10000
	return s
}

func requests(texts ...string) []driving.EmbedRequest {
	reqs := make([]driving.EmbedRequest, len(texts))
	for i, text := range texts {
		reqs[i] = driving.EmbedRequest{Text: text, ID: text}
	}
	return reqs
}

func TestNewEmbedder_Validation(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		_, err := NewEmbedder(nil, nil, embedderSettings())
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})

	t.Run("invalid settings", func(t *testing.T) {
		s := embedderSettings()
		s.Provider.BatchSize = 0
		_, err := NewEmbedder(&mockProvider{}, nil, s)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestEmbedBatch_Empty(t *testing.T) {
	provider := &mockProvider{}
	e, err := NewEmbedder(provider, nil, embedderSettings())
	require.NoError(t, err)

	result, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Results)
	assert.Equal(t, 0, provider.callCount())
}

func TestEmbedBatch_DeduplicatesAndPreservesOrder(t *testing.T) {
	provider := &mockProvider{}
	e, err := NewEmbedder(provider, newFakeCache(), embedderSettings())
	require.NoError(t, err)

	result, err := e.EmbedBatch(context.Background(), requests("x", "x", "y"))
	require.NoError(t, err)

	// One remote call for the two distinct texts.
	require.Equal(t, 1, provider.callCount())
	assert.Equal(t, []string{"x", "y"}, provider.calls[0])
	assert.Equal(t, 0, result.CacheHits)
	assert.Equal(t, 2, result.CacheMisses)

	require.Len(t, result.Results, 3)
	assert.Equal(t, "x", result.Results[0].ID)
	assert.Equal(t, "x", result.Results[1].ID)
	assert.Equal(t, "y", result.Results[2].ID)

	// Duplicate texts resolve to identical vectors.
	assert.Equal(t, result.Results[0].Embedding, result.Results[1].Embedding)
	assert.NotEqual(t, result.Results[0].Embedding, result.Results[2].Embedding)
	for _, r := range result.Results {
		assert.False(t, r.FromCache)
	}
}

func TestEmbedBatch_SecondCallServedFromCache(t *testing.T) {
	provider := &mockProvider{}
	e, err := NewEmbedder(provider, newFakeCache(), embedderSettings())
	require.NoError(t, err)

	_, err = e.EmbedBatch(context.Background(), requests("x", "x", "y"))
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount())

	result, err := e.EmbedBatch(context.Background(), requests("x", "x", "y"))
	require.NoError(t, err)

	// No additional remote calls.
	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, 2, result.CacheHits)
	assert.Equal(t, 0, result.CacheMisses)
	for _, r := range result.Results {
		assert.True(t, r.FromCache)
	}
}

func TestEmbedBatch_SplitsProviderBatches(t *testing.T) {
	provider := &mockProvider{}
	s := embedderSettings()
	s.Provider.BatchSize = 2

	e, err := NewEmbedder(provider, nil, s)
	require.NoError(t, err)

	result, err := e.EmbedBatch(context.Background(), requests("a", "b", "c", "d", "e"))
	require.NoError(t, err)

	assert.Equal(t, 3, provider.callCount())
	require.Len(t, result.Results, 5)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, id, result.Results[i].ID)
		assert.NotEmpty(t, result.Results[i].Embedding)
	}
}

func TestEmbedBatch_RetriesThenSucceeds(t *testing.T) {
	provider := &mockProvider{failures: 2}
	e, err := NewEmbedder(provider, nil, embedderSettings())
	require.NoError(t, err)

	result, err := e.EmbedBatch(context.Background(), requests("x"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Retries)
	assert.Equal(t, 3, provider.callCount())
}

func TestEmbedBatch_RetryBound(t *testing.T) {
	provider := &mockProvider{err: errors.New("provider down")}
	e, err := NewEmbedder(provider, nil, embedderSettings())
	require.NoError(t, err)

	result, err := e.EmbedBatch(context.Background(), requests("x"))
	require.Error(t, err)
	assert.Nil(t, result)

	// Initial attempt plus exactly maxRetries retries.
	assert.Equal(t, 3, provider.callCount())

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
}

func TestEmbedBatch_CacheFailureDegradesToMiss(t *testing.T) {
	provider := &mockProvider{}
	cache := newFakeCache()
	cache.getErr = errors.New("disk on fire")
	cache.putErr = errors.New("disk still on fire")

	e, err := NewEmbedder(provider, cache, embedderSettings())
	require.NoError(t, err)

	result, err := e.EmbedBatch(context.Background(), requests("x"))
	require.NoError(t, err)

	assert.Equal(t, 0, result.CacheHits)
	assert.Equal(t, 1, result.CacheMisses)
	assert.Equal(t, 1, provider.callCount())
	require.Len(t, result.Results, 1)
	assert.NotEmpty(t, result.Results[0].Embedding)
}

func TestEmbedBatch_CacheDisabled(t *testing.T) {
	provider := &mockProvider{}
	cache := newFakeCache()
	s := embedderSettings()
	s.Cache.Enabled = false

	e, err := NewEmbedder(provider, cache, s)
	require.NoError(t, err)

	_, err = e.EmbedBatch(context.Background(), requests("x"))
	require.NoError(t, err)
	_, err = e.EmbedBatch(context.Background(), requests("x"))
	require.NoError(t, err)

	// Every call goes to the provider when the cache is disabled.
	assert.Equal(t, 2, provider.callCount())
}

func TestEmbedBatch_DimensionMismatch(t *testing.T) {
	provider := &mockProvider{dims: func(text string) []float32 {
		if text == "short" {
			return []float32{1}
		}
		return []float32{1, 2, 3}
	}}
	s := embedderSettings()
	s.Provider.BatchSize = 1

	e, err := NewEmbedder(provider, nil, s)
	require.NoError(t, err)

	_, err = e.EmbedBatch(context.Background(), requests("short", "longer"))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbedBatch_CancelledContext(t *testing.T) {
	provider := &mockProvider{}
	e, err := NewEmbedder(provider, nil, embedderSettings())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.EmbedBatch(ctx, requests("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheKey(t *testing.T) {
	// Whitespace-normalised texts share a key; models do not.
	assert.Equal(t, CacheKey("m", "hello"), CacheKey("m", "  hello  "))
	assert.NotEqual(t, CacheKey("m", "hello"), CacheKey("m", "world"))
	assert.NotEqual(t, CacheKey("m1", "hello"), CacheKey("m2", "hello"))
}
