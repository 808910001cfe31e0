// Package sqlite provides SQLite-backed storage for documents, chunks
// and their embedding vectors. Similarity search is brute-force cosine
// over the chunk table, which is adequate for single-user corpora of
// course materials.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/campus-labs/lectern/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driven"
)

// Ensure Store implements both storage interfaces.
var (
	_ driven.DocumentStore = (*Store)(nil)
	_ driven.VectorIndex   = (*Store)(nil)
)

// Store is a SQLite-based implementation of driven.DocumentStore and
// driven.VectorIndex.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.lectern/data/lectern.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lectern", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "lectern.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument stores or updates a document.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	tagsJSON, err := json.Marshal(doc.Tags)
	if err != nil {
		return fmt.Errorf("%w: marshalling tags: %w", domain.ErrStorage, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, course_code, topic, week_number, tags,
			content, file_url, file_name, content_type, size_bytes, provider,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			course_code = excluded.course_code,
			topic = excluded.topic,
			week_number = excluded.week_number,
			tags = excluded.tags,
			content = excluded.content,
			file_url = excluded.file_url,
			file_name = excluded.file_name,
			content_type = excluded.content_type,
			size_bytes = excluded.size_bytes,
			provider = excluded.provider,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.CourseCode, doc.Topic, doc.WeekNumber, string(tagsJSON),
		doc.Content, doc.FileURL, doc.FileMetadata.FileName, doc.FileMetadata.ContentType,
		doc.FileMetadata.SizeBytes, doc.FileMetadata.Provider, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("%w: saving document: %w", domain.ErrStorage, err)
	}
	return nil
}

// SaveChunk stores one chunk record with its embedding.
func (s *Store) SaveChunk(ctx context.Context, chunk domain.Chunk) (string, error) {
	if chunk.ID == "" {
		chunk.ID = uuid.New().String()
	}
	createdAt := chunk.Metadata.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, content, start_char,
			end_char, embedding, file_name, content_type, size_bytes, provider, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			embedding = excluded.embedding
	`, chunk.ID, chunk.DocumentID, chunk.Index, chunk.Content, chunk.StartChar,
		chunk.EndChar, encodeVector(chunk.Embedding), chunk.Metadata.FileName,
		chunk.Metadata.ContentType, chunk.Metadata.SizeBytes, chunk.Metadata.Provider,
		createdAt)

	if err != nil {
		return "", fmt.Errorf("%w: saving chunk %d: %w", domain.ErrStorage, chunk.Index, err)
	}
	return chunk.ID, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, course_code, topic, week_number, tags, content,
			file_url, file_name, content_type, size_bytes, provider, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning document: %w", domain.ErrStorage, err)
	}
	return doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, chunk_index, content, start_char, end_char,
			embedding, file_name, content_type, size_bytes, provider, created_at
		FROM chunks WHERE id = ?
	`, id)

	chunk, err := scanChunk(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning chunk: %w", domain.ErrStorage, err)
	}
	return chunk, nil
}

// GetChunks retrieves all chunks for a document in index order.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, content, start_char, end_char,
			embedding, file_name, content_type, size_bytes, provider, created_at
		FROM chunks WHERE document_id = ? ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning chunk: %w", domain.ErrStorage, err)
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating chunks: %w", domain.ErrStorage, err)
	}
	return chunks, nil
}

// ListDocuments returns all stored documents.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, course_code, topic, week_number, tags, content,
			file_url, file_name, content_type, size_bytes, provider, created_at, updated_at
		FROM documents ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying documents: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning document: %w", domain.ErrStorage, err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating documents: %w", domain.ErrStorage, err)
	}
	return docs, nil
}

// DeleteDocument removes a document; chunks cascade via foreign key.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w: deleting document: %w", domain.ErrStorage, err)
	}
	return nil
}

// Add inserts a vector for an already-stored chunk.
func (s *Store) Add(ctx context.Context, chunkID string, embedding []float32) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE chunks SET embedding = ? WHERE id = ?", encodeVector(embedding), chunkID)
	if err != nil {
		return fmt.Errorf("%w: storing vector: %w", domain.ErrStorage, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete clears the vector for a chunk.
func (s *Store) Delete(ctx context.Context, chunkID string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE chunks SET embedding = NULL WHERE id = ?", chunkID); err != nil {
		return fmt.Errorf("%w: deleting vector: %w", domain.ErrStorage, err)
	}
	return nil
}

// Search scans all stored vectors and ranks them by cosine similarity.
func (s *Store) Search(ctx context.Context, query []float32, k int, threshold float64) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrStorage)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, embedding FROM chunks WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("%w: querying vectors: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // filtered by threshold
	for rows.Next() {
		var chunkID string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, fmt.Errorf("%w: scanning vector: %w", domain.ErrStorage, err)
		}

		vec := decodeVector(blob)
		if len(vec) != len(query) {
			return nil, fmt.Errorf("%w: dimension mismatch: query %d, stored %d",
				domain.ErrStorage, len(query), len(vec))
		}

		score := cosineSimilarity(query, vec)
		if score < threshold {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: chunkID, Similarity: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating vectors: %w", domain.ErrStorage, err)
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var tagsJSON string
	var createdAt, updatedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Title, &doc.CourseCode, &doc.Topic,
		&doc.WeekNumber, &tagsJSON, &doc.Content, &doc.FileURL,
		&doc.FileMetadata.FileName, &doc.FileMetadata.ContentType,
		&doc.FileMetadata.SizeBytes, &doc.FileMetadata.Provider,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}
	return &doc, nil
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var blob []byte
	var createdAt sql.NullTime

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Content,
		&chunk.StartChar, &chunk.EndChar, &blob,
		&chunk.Metadata.FileName, &chunk.Metadata.ContentType,
		&chunk.Metadata.SizeBytes, &chunk.Metadata.Provider, &createdAt); err != nil {
		return nil, err
	}

	chunk.Embedding = decodeVector(blob)
	if createdAt.Valid {
		chunk.Metadata.CreatedAt = createdAt.Time
	}
	return &chunk, nil
}

// encodeVector packs float32 values as little-endian bytes.
func encodeVector(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks little-endian bytes into float32 values.
func decodeVector(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
