package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/ragctx-cli/internal/core/domain"
	"github.com/custodia-labs/ragctx-cli/internal/core/ports/driving"
)

// mockChunkingService is a mock implementation of driving.ChunkingService.
type mockChunkingService struct {
	chunks []domain.Chunk
	err    error
}

func (m *mockChunkingService) ChunkDocument(_ context.Context, _ *domain.Document) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

// mockEmbeddingService is a mock implementation of driving.EmbeddingService.
type mockEmbeddingService struct {
	batch *driving.BatchResult
	err   error
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, requests []driving.EmbedRequest) (*driving.BatchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.batch != nil {
		return m.batch, nil
	}
	batch := &driving.BatchResult{Results: make([]driving.EmbedResult, len(requests))}
	for i, req := range requests {
		batch.Results[i] = driving.EmbedResult{ID: req.ID, Embedding: []float32{1, 0}}
	}
	batch.CacheMisses = len(requests)
	return batch, nil
}

// mockContextService is a mock implementation of driving.ContextService.
type mockContextService struct {
	fitted domain.FittedContext
}

func (m *mockContextService) Fit(_ []domain.SearchResult, _ driving.FitOptions) domain.FittedContext {
	return m.fitted
}

// mockSettingsStore is an in-memory driven.SettingsStore.
type mockSettingsStore struct {
	settings domain.Settings
	loadErr  error
	saveErr  error
	saved    *domain.Settings
}

func (m *mockSettingsStore) Load() (domain.Settings, error) {
	if m.loadErr != nil {
		return domain.Settings{}, m.loadErr
	}
	return m.settings, nil
}

func (m *mockSettingsStore) Save(settings domain.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = &settings
	return nil
}

func (m *mockSettingsStore) Path() string {
	return "/tmp/ragctx-test/config.toml"
}

var errMockFailure = errors.New("mock failure")

// setupTestServices wires mock services and returns a cleanup that
// restores the previous wiring.
func setupTestServices() func() {
	oldChunking := chunkingService
	oldEmbedding := embeddingService
	oldContext := contextService
	oldStore := settingsStore

	chunkingService = &mockChunkingService{
		chunks: []domain.Chunk{
			{ID: "c1", Content: "First chunk.", Position: 0, StartUnit: 0, EndUnit: 1, CharCount: 12, TokenCount: 3},
		},
	}
	embeddingService = &mockEmbeddingService{}
	contextService = &mockContextService{
		fitted: domain.FittedContext{
			Results:         []domain.SearchResult{{ID: "r1", Text: "kept", Score: 0.9}},
			TokensAvailable: 80,
			TokensUsed:      10,
		},
	}
	settingsStore = &mockSettingsStore{settings: domain.DefaultSettings()}

	return func() {
		chunkingService = oldChunking
		embeddingService = oldEmbedding
		contextService = oldContext
		settingsStore = oldStore
	}
}
