package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-labs/lectern/internal/core/domain"
)

func TestNewStore(t *testing.T) {
	store := NewStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
	assert.NotNil(t, store.chunks)
	assert.NotNil(t, store.vectors)
}

func TestStore_SaveDocument(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	doc := &domain.Document{
		Title:      "Week 4 - Deadlocks",
		CourseCode: "CSE-101",
		Topic:      "Deadlocks",
		WeekNumber: 4,
		Content:    "Deadlocks occur when processes wait on each other.",
		CreatedAt:  time.Now(),
	}

	err := store.SaveDocument(ctx, doc)
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID, "store must assign an identifier")

	saved, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Week 4 - Deadlocks", saved.Title)
	assert.Equal(t, "CSE-101", saved.CourseCode)
}

func TestStore_GetDocument_NotFound(t *testing.T) {
	store := NewStore()
	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SaveChunk(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, err := store.SaveChunk(ctx, domain.Chunk{
		DocumentID: "doc-1",
		Index:      0,
		Content:    "Deadlocks occur when processes wait on each other.",
		StartChar:  0,
		EndChar:    50,
		Embedding:  []float32{1, 0, 0},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	chunk, err := store.GetChunk(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", chunk.DocumentID)
	assert.Equal(t, 0, chunk.Index)
}

func TestStore_GetChunks_IndexOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, idx := range []int{2, 0, 1} {
		_, err := store.SaveChunk(ctx, domain.Chunk{
			DocumentID: "doc-1",
			Index:      idx,
			Content:    "chunk",
			StartChar:  idx * 10,
			EndChar:    idx*10 + 5,
		})
		require.NoError(t, err)
	}

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestStore_DeleteDocument_Cascades(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	doc := &domain.Document{Title: "doomed"}
	require.NoError(t, store.SaveDocument(ctx, doc))

	id, err := store.SaveChunk(ctx, domain.Chunk{
		DocumentID: doc.ID,
		Content:    "chunk",
		Embedding:  []float32{1, 0},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocument(ctx, doc.ID))

	_, err = store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetChunk(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	hits, err := store.Search(ctx, []float32{1, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStore_Search_RankedAndThresholded(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	vectors := map[string][]float32{
		"close":      {1, 0, 0},
		"near":       {0.9, 0.1, 0},
		"orthogonal": {0, 0, 1},
	}
	for id, vec := range vectors {
		require.NoError(t, store.Add(ctx, id, vec))
	}

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 2, "orthogonal vector must not clear the threshold")

	assert.Equal(t, "close", hits[0].ChunkID)
	assert.Equal(t, "near", hits[1].ChunkID)
	assert.GreaterOrEqual(t, hits[0].Similarity, hits[1].Similarity)
}

func TestStore_Search_TopK(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i, vec := range [][]float32{{1, 0}, {0.9, 0.1}, {0.8, 0.2}, {0.7, 0.3}, {0.6, 0.4}} {
		require.NoError(t, store.Add(ctx, string(rune('a'+i)), vec))
	}

	hits, err := store.Search(ctx, []float32{1, 0}, 3, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i].Similarity, hits[i-1].Similarity)
	}
}

func TestStore_Search_DimensionMismatch(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "a", []float32{1, 0, 0}))
	_, err := store.Search(ctx, []float32{1, 0}, 5, 0)
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.SaveChunk(ctx, domain.Chunk{
				DocumentID: "doc-1",
				Index:      n,
				Content:    "chunk",
				Embedding:  []float32{1, 0},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 20)
}
