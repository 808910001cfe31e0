// Package qdrant provides a Qdrant-backed vector index over gRPC, for
// corpora large enough that brute-force scanning in SQLite stops being
// reasonable.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/campus-labs/lectern/internal/core/domain"
	"github.com/campus-labs/lectern/internal/core/ports/driven"
)

const (
	// DefaultHost is the default Qdrant gRPC host.
	DefaultHost = "localhost"
	// DefaultPort is the default Qdrant gRPC port.
	DefaultPort = 6334
	// DefaultCollection is the collection used for chunk vectors.
	DefaultCollection = "lectern_chunks"
)

var _ driven.VectorIndex = (*Index)(nil)

// Index implements driven.VectorIndex using a Qdrant collection.
type Index struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// Config holds Qdrant connection settings.
type Config struct {
	Host       string
	Port       int
	Collection string
	// Dimensions sizes the collection vectors when it has to be created.
	Dimensions int
}

// NewIndex connects to Qdrant and ensures the collection exists.
func NewIndex(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant connect: %w", domain.ErrStorage, err)
	}

	idx := &Index{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  cfg.Collection,
	}

	if err := idx.ensureCollection(ctx, cfg.Dimensions); err != nil {
		conn.Close()
		return nil, err
	}
	return idx, nil
}

// ensureCollection creates the collection with cosine distance if it
// does not exist yet.
func (i *Index) ensureCollection(ctx context.Context, dimensions int) error {
	resp, err := i.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{
		CollectionName: i.collection,
	})
	if err != nil {
		return fmt.Errorf("%w: checking collection: %w", domain.ErrStorage, err)
	}
	if resp.GetResult().GetExists() {
		return nil
	}

	if dimensions <= 0 {
		return fmt.Errorf("%w: collection %q missing and vector dimensions unknown",
			domain.ErrStorage, i.collection)
	}

	_, err = i.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimensions),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection: %w", domain.ErrStorage, err)
	}
	return nil
}

// Add upserts a chunk vector keyed by chunk ID.
func (i *Index) Add(ctx context.Context, chunkID string, embedding []float32) error {
	wait := true
	_, err := i.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: i.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: chunkID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: embedding}}},
		}},
	})
	if err != nil {
		return fmt.Errorf("%w: upserting vector: %w", domain.ErrStorage, err)
	}
	return nil
}

// Delete removes a chunk vector.
func (i *Index) Delete(ctx context.Context, chunkID string) error {
	_, err := i.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: i.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{{PointIdOptions: &pb.PointId_Uuid{Uuid: chunkID}}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: deleting vector: %w", domain.ErrStorage, err)
	}
	return nil
}

// Search runs a cosine similarity search, letting Qdrant apply the
// threshold server side.
func (i *Index) Search(ctx context.Context, query []float32, k int, threshold float64) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrStorage)
	}

	var scoreThreshold *float32
	if threshold > 0 {
		t := float32(threshold)
		scoreThreshold = &t
	}

	resp, err := i.points.Search(ctx, &pb.SearchPoints{
		CollectionName: i.collection,
		Vector:         query,
		Limit:          uint64(k),
		ScoreThreshold: scoreThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: searching vectors: %w", domain.ErrStorage, err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		hits = append(hits, driven.VectorHit{
			ChunkID:    pt.GetId().GetUuid(),
			Similarity: float64(pt.GetScore()),
		})
	}
	return hits, nil
}

// Close closes the gRPC connection.
func (i *Index) Close() error {
	return i.conn.Close()
}
