// Package qdrantvec provides a VectorIndex backed by a Qdrant server.
// It is the scale-out alternative to the in-process dense index: the
// same child-chunk entries, stored in a remote collection with the
// parent and document references carried as payload.
package qdrantvec

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/veridian-labs/anker/internal/core/ports/driven"
	"github.com/veridian-labs/anker/internal/logger"
)

// Payload keys stored with every point.
const (
	payloadParentID   = "parent_id"
	payloadDocumentID = "document_id"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds Qdrant connection settings.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	// Dimensions of the embedding vectors; must match the embedding
	// service.
	Dimensions int
}

// DefaultConfig returns settings for a local Qdrant instance.
func DefaultConfig() Config {
	return Config{
		Host:       "localhost",
		Port:       6334,
		Collection: "anker_children",
	}
}

// Index is a Qdrant-backed vector index.
type Index struct {
	client     *qdrant.Client
	collection string
}

// New connects to Qdrant and ensures the collection exists.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Host == "" {
		cfg = DefaultConfig()
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant index: dimensions must be positive")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	idx := &Index{client: client, collection: cfg.Collection}
	if err := idx.ensureCollection(ctx, cfg.Dimensions); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("Qdrant index ready: collection=%s, dims=%d", cfg.Collection, cfg.Dimensions)
	return idx, nil
}

func (idx *Index) ensureCollection(ctx context.Context, dims int) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	if exists {
		return nil
	}

	err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dims),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

// Upsert inserts or replaces entries by child ID.
func (idx *Index) Upsert(ctx context.Context, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(e.ChildID),
			Vectors: qdrant.NewVectors(e.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadParentID:   e.ParentID,
				payloadDocumentID: e.DocumentID,
			}),
		})
	}

	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	return nil
}

// DeleteDocument removes every entry belonging to a document.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(payloadDocumentID, documentID),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("deleting document points: %w", err)
	}
	return nil
}

// Search finds the k nearest child chunks to the query vector.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	points, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, driven.VectorHit{
			ChildID:    p.GetId().GetUuid(),
			ParentID:   p.GetPayload()[payloadParentID].GetStringValue(),
			Similarity: float64(p.GetScore()),
		})
	}
	return hits, nil
}

// Close releases the client connection.
func (idx *Index) Close() error {
	return idx.client.Close()
}
