package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-labs/lectern/internal/adapters/driven/storage/memory"
	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// failTexts maps a marker substring to the error returned when a
// chunk containing it is embedded. Substrings survive overlap
// prefixes being carried onto chunk content.
type mockEmbeddingService struct {
	mu        sync.Mutex
	dims      int
	failTexts map[string]error
	failAll   error
	calls     map[string]int
	// failuresPerText limits how many times a failTexts entry fires,
	// letting tests exercise retry recovery. Zero means always fail.
	failuresPerText int
}

func newMockEmbedder() *mockEmbeddingService {
	return &mockEmbeddingService{
		dims:      4,
		failTexts: make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll != nil {
		return nil, m.failAll
	}
	for marker, err := range m.failTexts {
		if !strings.Contains(text, marker) {
			continue
		}
		m.calls[marker]++
		if m.failuresPerText == 0 || m.calls[marker] <= m.failuresPerText {
			return nil, err
		}
	}

	vec := make([]float32, m.dims)
	for i := range vec {
		vec[i] = float32(len(text)%7) + float32(i)
	}
	return vec, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return m.dims }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

func (m *mockEmbeddingService) callCount(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[text]
}

// --- Tests ---

// fiveSentenceDoc builds a document that chunks into exactly five
// chunks with maxChars=40: any pair of sentences exceeds the bound,
// so each sentence seeds its own chunk, carrying a short overlap
// tail from the one before it.
func fiveSentenceDoc() *domain.Document {
	return &domain.Document{
		Title:      "Week 6: Deadlocks",
		CourseCode: "CS-340",
		Content: "Deadlocks occur when processes wait forever. " +
			"Mutual exclusion is the first condition here. " +
			"Hold and wait is the second condition here. " +
			"No preemption is the third condition listed. " +
			"Circular wait is the fourth and final one.",
	}
}

func ingestOpts() driving.IngestOptions {
	return driving.IngestOptions{
		MaxChunkChars: 40,
		OverlapChars:  0,
		Concurrency:   2,
	}
}

func TestIngestPersistsAllChunks(t *testing.T) {
	store := memory.NewStore()
	embedder := newMockEmbedder()
	svc := NewIngestor(store, store, embedder, domain.ProviderOllama, 1000)

	doc := fiveSentenceDoc()
	report, err := svc.Ingest(context.Background(), doc, ingestOpts())

	require.NoError(t, err)
	assert.Equal(t, 5, report.ChunkCount)
	assert.Equal(t, 5, report.Succeeded)
	assert.False(t, report.Partial())
	require.NotEmpty(t, report.DocumentID)

	chunks, err := store.GetChunks(context.Background(), report.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.NotEmpty(t, c.Embedding)
		assert.Equal(t, "ollama", c.Metadata.Provider)
	}
}

func TestIngestDefaultsCarryOverlapBetweenChunks(t *testing.T) {
	store := memory.NewStore()
	svc := NewIngestor(store, store, newMockEmbedder(), domain.ProviderOllama, 1000)

	var sb strings.Builder
	sb.WriteString("Week 9 covers virtual memory and page replacement policies. ")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "Paging divides physical memory into fixed size frames, point %d. ", i)
	}
	doc := &domain.Document{
		Title:      "Week 9: Virtual Memory",
		CourseCode: "CS-340",
		Content:    strings.TrimSpace(sb.String()),
	}

	report, err := svc.Ingest(context.Background(), doc, driving.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, report.ChunkCount, report.Succeeded)

	chunks, err := store.GetChunks(context.Background(), report.DocumentID)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Default options keep the configured overlap: each chunk after
	// the first starts inside the span of the one before it.
	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i].StartChar, chunks[i-1].EndChar,
			"chunk %d should share trailing context with chunk %d", i, i-1)
		assert.Greater(t, chunks[i].StartChar, chunks[i-1].StartChar)
	}
}

func TestIngestToleratesOneFailedChunk(t *testing.T) {
	store := memory.NewStore()
	embedder := newMockEmbedder()
	embedder.failTexts["Hold and wait is the second condition here."] = domain.ErrProviderResponse
	svc := NewIngestor(store, store, embedder, domain.ProviderOllama, 1000)

	report, err := svc.Ingest(context.Background(), fiveSentenceDoc(), ingestOpts())

	require.NoError(t, err)
	assert.Equal(t, 5, report.ChunkCount)
	assert.Equal(t, 4, report.Succeeded)
	assert.True(t, report.Partial())

	// The failed chunk's outcome carries the error at its index
	require.Len(t, report.Outcomes, 5)
	for _, outcome := range report.Outcomes {
		if outcome.Index == 2 {
			assert.ErrorIs(t, outcome.Err, domain.ErrProviderResponse)
			assert.Empty(t, outcome.ChunkID)
		} else {
			assert.NoError(t, outcome.Err)
			assert.NotEmpty(t, outcome.ChunkID)
		}
	}

	// The other four chunks persisted with their original indices
	chunks, err := store.GetChunks(context.Background(), report.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	indices := make([]int, 0, len(chunks))
	for _, c := range chunks {
		indices = append(indices, c.Index)
	}
	assert.Equal(t, []int{0, 1, 3, 4}, indices)
}

func TestIngestRetriesTransientFailures(t *testing.T) {
	store := memory.NewStore()
	embedder := newMockEmbedder()
	text := "Deadlocks occur when processes wait forever."
	embedder.failTexts[text] = fmt.Errorf("%w: connection refused", domain.ErrProviderUnavailable)
	embedder.failuresPerText = 2 // fails twice, succeeds on third attempt
	svc := NewIngestor(store, store, embedder, domain.ProviderOllama, 1000)

	report, err := svc.Ingest(context.Background(), fiveSentenceDoc(), ingestOpts())

	require.NoError(t, err)
	assert.Equal(t, 5, report.Succeeded)
	assert.Equal(t, 3, embedder.callCount(text))
}

func TestIngestGivesUpAfterBoundedRetries(t *testing.T) {
	store := memory.NewStore()
	embedder := newMockEmbedder()
	text := "Deadlocks occur when processes wait forever."
	embedder.failTexts[text] = fmt.Errorf("%w: connection refused", domain.ErrProviderUnavailable)
	svc := NewIngestor(store, store, embedder, domain.ProviderOllama, 1000)

	report, err := svc.Ingest(context.Background(), fiveSentenceDoc(), ingestOpts())

	require.NoError(t, err)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, embedAttempts, embedder.callCount(text))
	assert.ErrorIs(t, report.Outcomes[0].Err, domain.ErrProviderUnavailable)
}

func TestIngestDoesNotRetryMalformedResponses(t *testing.T) {
	store := memory.NewStore()
	embedder := newMockEmbedder()
	text := "Deadlocks occur when processes wait forever."
	embedder.failTexts[text] = fmt.Errorf("%w: empty vector", domain.ErrProviderResponse)
	svc := NewIngestor(store, store, embedder, domain.ProviderOllama, 1000)

	report, err := svc.Ingest(context.Background(), fiveSentenceDoc(), ingestOpts())

	require.NoError(t, err)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 1, embedder.callCount(text))
}

func TestIngestRejectsEmptyContent(t *testing.T) {
	store := memory.NewStore()
	svc := NewIngestor(store, store, newMockEmbedder(), domain.ProviderOllama, 1000)

	_, err := svc.Ingest(context.Background(), &domain.Document{
		Title:   "Empty",
		Content: "   \n\t  ",
	}, ingestOpts())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestRejectsMissingTitle(t *testing.T) {
	store := memory.NewStore()
	svc := NewIngestor(store, store, newMockEmbedder(), domain.ProviderOllama, 1000)

	_, err := svc.Ingest(context.Background(), &domain.Document{
		Content: "Some content.",
	}, ingestOpts())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestAbortsWhenDocumentSaveFails(t *testing.T) {
	store := &failingDocStore{saveDocErr: errors.New("disk full")}
	svc := NewIngestor(store, memory.NewStore(), newMockEmbedder(), domain.ProviderOllama, 1000)

	_, err := svc.Ingest(context.Background(), fiveSentenceDoc(), ingestOpts())

	assert.ErrorIs(t, err, domain.ErrIngestionAborted)
}

func TestIngestAllChunksFailStillReports(t *testing.T) {
	store := memory.NewStore()
	embedder := newMockEmbedder()
	embedder.failAll = fmt.Errorf("%w: bad payload", domain.ErrProviderResponse)
	svc := NewIngestor(store, store, embedder, domain.ProviderOllama, 1000)

	report, err := svc.Ingest(context.Background(), fiveSentenceDoc(), ingestOpts())

	require.NoError(t, err)
	assert.Equal(t, 5, report.ChunkCount)
	assert.Equal(t, 0, report.Succeeded)
	assert.True(t, report.Partial())
}

func TestIngestCancelledContext(t *testing.T) {
	store := memory.NewStore()
	svc := NewIngestor(store, store, newMockEmbedder(), domain.ProviderOllama, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Ingest(ctx, fiveSentenceDoc(), ingestOpts())

	// The document save still lands, but no chunk work proceeds past
	// the cancelled context.
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Succeeded)
}

// failingDocStore wraps failure injection around document persistence.
type failingDocStore struct {
	memory.Store
	saveDocErr error
}

func (f *failingDocStore) SaveDocument(_ context.Context, _ *domain.Document) error {
	return f.saveDocErr
}
