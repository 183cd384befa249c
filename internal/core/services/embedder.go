package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragctx-cli/internal/logger"
	"github.com/custodia-labs/ragctx-cli/internal/retry"
)

// Ensure Embedder implements the interface.
var _ driving.EmbeddingService = (*Embedder)(nil)

// Embedder resolves embedding vectors for batches of texts with
// deduplication, caching, provider batching and retry.
//
// The cache is an explicitly constructed, passed-in component (never
// ambient state) and is optional: when nil, disabled, or failing, every
// lookup behaves as a miss.
type Embedder struct {
	provider driven.EmbeddingProvider
	cache    driven.EmbeddingCache
	settings domain.ProviderSettings
	useCache bool
	policy   retry.Policy
	limiter  *rate.Limiter
}

// NewEmbedder creates an embedding service. Settings are validated at
// construction and never clamped. The cache may be nil.
func NewEmbedder(provider driven.EmbeddingProvider, cache driven.EmbeddingCache, settings domain.Settings) (*Embedder, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, domain.ErrProviderUnavailable
	}

	p := settings.Provider
	return &Embedder{
		provider: provider,
		cache:    cache,
		settings: p,
		useCache: cache != nil && settings.Cache.Enabled,
		policy: retry.Policy{
			MaxRetries: p.MaxRetries,
			Delays:     p.RetryDelays,
		},
		limiter: rate.NewLimiter(rate.Limit(p.RequestsPerSecond), p.MaxConcurrency),
	}, nil
}

// pendingText is one distinct text awaiting resolution, with every request
// position it maps back to.
type pendingText struct {
	text      string
	key       string
	positions []int
}

// EmbedBatch resolves one vector per request. Output order matches input
// order exactly, including duplicates. A provider error that survives all
// retries fails the whole call; cache failures degrade to misses.
func (e *Embedder) EmbedBatch(ctx context.Context, requests []driving.EmbedRequest) (*driving.BatchResult, error) {
	start := time.Now()

	result := &driving.BatchResult{
		Results: make([]driving.EmbedResult, len(requests)),
	}
	for i := range requests {
		result.Results[i].ID = requests[i].ID
	}
	if len(requests) == 0 {
		result.TotalTime = time.Since(start)
		return result, nil
	}

	logger.Section("Embedding Batch")
	logger.Debug("Requests: %d", len(requests))

	// Deduplicate identical texts so each distinct text is resolved once.
	distinct := dedupeRequests(requests)
	logger.Debug("Distinct texts: %d", len(distinct))

	model := e.provider.ModelName()
	for _, p := range distinct {
		p.key = CacheKey(model, p.text)
	}

	// Probe the cache; stale or failed lookups queue for remote resolution.
	var misses []*pendingText
	for _, p := range distinct {
		vector, ok := e.cacheGet(ctx, p.key)
		if ok {
			result.CacheHits++
			fill(result.Results, p.positions, vector, true)
			continue
		}
		result.CacheMisses++
		misses = append(misses, p)
	}
	logger.Debug("Cache: %d hits, %d misses", result.CacheHits, result.CacheMisses)

	if len(misses) > 0 {
		retries, err := e.resolveRemote(ctx, misses, result.Results)
		result.Retries = retries
		if err != nil {
			return nil, err
		}
	}

	result.TotalTime = time.Since(start)
	logger.Info("Batch resolved in %s (%d retries)", result.TotalTime, result.Retries)
	return result, nil
}

// resolveRemote splits the missed texts into provider-call batches,
// submits them with bounded concurrency, writes successes to the cache
// and fills the output slots. Partially resolved results are discarded
// on failure.
func (e *Embedder) resolveRemote(ctx context.Context, misses []*pendingText, out []driving.EmbedResult) (int, error) {
	batches := splitBatches(misses, e.settings.BatchSize)
	logger.Debug("Remote resolution: %d texts in %d batches (concurrency %d)",
		len(misses), len(batches), e.settings.MaxConcurrency)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		retries  int
		firstErr error
	)
	sem := make(chan struct{}, e.settings.MaxConcurrency)

	vectors := make([][][]float32, len(batches))

	for bi := range batches {
		wg.Add(1)
		go func(bi int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				defer mu.Unlock()
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				return
			}

			vecs, attempts, err := e.callProvider(ctx, batches[bi])

			mu.Lock()
			defer mu.Unlock()
			retries += attempts
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			vectors[bi] = vecs
		}(bi)
	}

	wg.Wait()

	if firstErr != nil {
		logger.Warn("Remote resolution failed: %v", firstErr)
		return retries, fmt.Errorf("resolve embeddings: %w", firstErr)
	}

	// Merge back in original request order and update the cache.
	var dims int
	for bi, batch := range batches {
		for ti, p := range batch {
			vector := vectors[bi][ti]
			if dims == 0 {
				dims = len(vector)
			} else if len(vector) != dims {
				return retries, fmt.Errorf("%w: got %d and %d", domain.ErrDimensionMismatch, dims, len(vector))
			}
			fill(out, p.positions, vector, false)
			e.cachePut(ctx, p.key, vector)
		}
	}

	return retries, nil
}

// callProvider submits one provider batch under the rate limiter and the
// retry policy. Returns the vectors and the retry count.
func (e *Embedder) callProvider(ctx context.Context, batch []*pendingText) ([][]float32, int, error) {
	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.text
	}

	var vecs [][]float32
	attempts, err := e.policy.Do(ctx, "provider embed", func(ctx context.Context) error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		out, err := e.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if len(out) != len(texts) {
			return fmt.Errorf("provider returned %d vectors for %d texts", len(out), len(texts))
		}
		vecs = out
		return nil
	})
	if err != nil {
		return nil, attempts, err
	}
	return vecs, attempts, nil
}

// cacheGet probes the cache. Any cache failure other than a miss degrades
// to miss behaviour: the cache is an optimisation, not a correctness
// dependency.
func (e *Embedder) cacheGet(ctx context.Context, key string) ([]float32, bool) {
	if !e.useCache {
		return nil, false
	}
	vector, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Cache read failed, treating as miss: %v", err)
		}
		return nil, false
	}
	return vector, true
}

// cachePut writes a resolved vector to the cache. Failures are logged and
// ignored.
func (e *Embedder) cachePut(ctx context.Context, key string, vector []float32) {
	if !e.useCache {
		return
	}
	if err := e.cache.Put(ctx, key, vector); err != nil {
		logger.Warn("Cache write failed: %v", err)
	}
}

// CacheKey derives the cache key for a text under the given model:
// a hex SHA-256 of the model identifier and the whitespace-normalised text.
func CacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(h.Sum(nil))
}

// dedupeRequests groups identical texts, preserving first-appearance order
// and recording every request position for the merge step.
func dedupeRequests(requests []driving.EmbedRequest) []*pendingText {
	index := make(map[string]*pendingText, len(requests))
	var distinct []*pendingText

	for i, req := range requests {
		if p, ok := index[req.Text]; ok {
			p.positions = append(p.positions, i)
			continue
		}
		p := &pendingText{
			text:      req.Text,
			positions: []int{i},
		}
		index[req.Text] = p
		distinct = append(distinct, p)
	}
	return distinct
}

// splitBatches splits the pending texts into provider-call batches no
// larger than batchSize.
func splitBatches(misses []*pendingText, batchSize int) [][]*pendingText {
	var batches [][]*pendingText
	for start := 0; start < len(misses); start += batchSize {
		end := start + batchSize
		if end > len(misses) {
			end = len(misses)
		}
		batches = append(batches, misses[start:end])
	}
	return batches
}

// fill copies the vector into every output slot the text maps back to.
// Vectors are never mutated after creation, so slots share the slice.
func fill(out []driving.EmbedResult, positions []int, vector []float32, fromCache bool) {
	for _, pos := range positions {
		out[pos].Embedding = vector
		out[pos].FromCache = fromCache
	}
}
