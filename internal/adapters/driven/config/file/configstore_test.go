package file

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStoreCreatesFileOnFirstSet(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	// Nothing on disk until a value is written
	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Set("embedding.provider", "ollama"))

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestNewConfigStoreDefaultDir(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	store, err := NewConfigStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpHome, ".lectern", "config.toml"), store.Path())
}

func TestConfigStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.provider", "gemini"))
	require.NoError(t, store.Set("embedding.api_key", "sk-lectern-test"))
	require.NoError(t, store.Set("retrieval.top_k", int64(8)))
	require.NoError(t, store.Set("retrieval.similarity_threshold", 0.65))
	require.NoError(t, store.Set("ingestion.verbose", true))

	// A fresh store over the same directory sees the persisted values
	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "gemini", reloaded.GetString("embedding.provider"))
	assert.Equal(t, "sk-lectern-test", reloaded.GetString("embedding.api_key"))
	assert.Equal(t, 8, reloaded.GetInt("retrieval.top_k"))
	assert.Equal(t, 0.65, reloaded.GetFloat("retrieval.similarity_threshold"))
	assert.True(t, reloaded.GetBool("ingestion.verbose"))
}

func TestConfigStoreTypedGetterDefaults(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("vector.backend", "qdrant"))
	require.NoError(t, store.Set("ingestion.max_chunk_chars", int64(600)))

	// Missing keys
	assert.Equal(t, "", store.GetString("embedding.provider"))
	assert.Equal(t, 0, store.GetInt("retrieval.top_k"))
	assert.Equal(t, 0.0, store.GetFloat("retrieval.similarity_threshold"))
	assert.False(t, store.GetBool("ingestion.verbose"))
	assert.Nil(t, store.GetStringSlice("ingestion.tags"))

	// Present keys read through the wrong type
	assert.Equal(t, "", store.GetString("ingestion.max_chunk_chars"))
	assert.Equal(t, 0, store.GetInt("vector.backend"))
	assert.False(t, store.GetBool("vector.backend"))
}

func TestConfigStoreGetFloatAcceptsIntegers(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("retrieval.similarity_threshold", int64(1)))

	assert.Equal(t, 1.0, store.GetFloat("retrieval.similarity_threshold"))
}

func TestConfigStoreStringSlice(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("ingestion.tags", []string{"week-6", "deadlocks"}))

	assert.Equal(t, []string{"week-6", "deadlocks"}, store.GetStringSlice("ingestion.tags"))

	// TOML arrays come back as []any after a reload
	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"week-6", "deadlocks"}, reloaded.GetStringSlice("ingestion.tags"))
}

func TestConfigStoreFlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	raw := "[embedding]\nprovider = \"ollama\"\n\n[vector]\nbackend = \"sqlite\"\n\n[vector.qdrant]\nhost = \"localhost\"\nport = 6334\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(raw), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, "sqlite", store.GetString("vector.backend"))
	assert.Equal(t, "localhost", store.GetString("vector.qdrant.host"))
	assert.Equal(t, 6334, store.GetInt("vector.qdrant.port"))
}

func TestConfigStoreRejectsCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("embedding = [unclosed"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStoreEmptyFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	_, ok := store.Get("embedding.provider")
	assert.False(t, ok)
}

func TestConfigStoreConcurrentAccess(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("retrieval.top_k", int64(n))
			store.GetInt("retrieval.top_k")
			store.GetString("embedding.provider")
		}(i)
	}
	wg.Wait()

	// The last write wins, whichever it was
	got := store.GetInt("retrieval.top_k")
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, 10)
}
