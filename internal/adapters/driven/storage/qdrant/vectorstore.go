// Package qdrant provides a driven.VectorStore backed by a Qdrant collection
// over gRPC. Points are keyed by chunk ID (a UUID) and carry the marker,
// position, sequence and text as payload.
package qdrant

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/docbrain/docbrain-cli/internal/core/domain"
	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// Payload keys.
const (
	payloadMarker   = "marker"
	payloadPosition = "position"
	payloadSeq      = "seq"
	payloadText     = "text"
)

// upsertBatch bounds the number of points per Upsert request.
const upsertBatch = 100

// VectorStore stores chunk vectors in a Qdrant collection.
type VectorStore struct {
	collections pb.CollectionsClient
	points      pb.PointsClient
	collection  string
	conn        *grpc.ClientConn

	mu    sync.Mutex
	ready bool
}

// Dial connects to Qdrant's gRPC endpoint at host:port.
func Dial(host string, port int, collection string) (*VectorStore, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", addr, err)
	}
	store := New(pb.NewCollectionsClient(conn), pb.NewPointsClient(conn), collection)
	store.conn = conn
	logger.Debug("Qdrant vector store: %s collection=%s", addr, collection)
	return store, nil
}

// New creates a vector store over existing gRPC clients.
func New(collections pb.CollectionsClient, points pb.PointsClient, collection string) *VectorStore {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &VectorStore{
		collections: collections,
		points:      points,
		collection:  collection,
	}
}

// exists reports whether the collection has been created.
func (s *VectorStore) exists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return true, nil
	}

	resp, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	for _, c := range resp.GetCollections() {
		if c.GetName() == s.collection {
			s.ready = true
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection creates the collection with cosine distance on first use.
func (s *VectorStore) ensureCollection(ctx context.Context, dimensions int) error {
	ok, err := s.exists(ctx)
	if err != nil || ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimensions), //nolint:gosec // dimensions is positive
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	logger.Info("Created Qdrant collection %s (%d dimensions)", s.collection, dimensions)
	s.ready = true
	return nil
}

// Upsert inserts or replaces points, creating the collection if needed.
func (s *VectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(records[0].Vector)); err != nil {
		return err
	}

	wait := true
	for start := 0; start < len(records); start += upsertBatch {
		batch := records[start:min(start+upsertBatch, len(records))]
		points := make([]*pb.PointStruct, 0, len(batch))
		for _, r := range batch {
			id, err := pointID(r.ID)
			if err != nil {
				return err
			}
			points = append(points, &pb.PointStruct{
				Id: id,
				Vectors: &pb.Vectors{
					VectorsOptions: &pb.Vectors_Vector{
						Vector: &pb.Vector{Data: r.Vector},
					},
				},
				Payload: map[string]*pb.Value{
					payloadMarker:   {Kind: &pb.Value_StringValue{StringValue: r.Marker}},
					payloadPosition: {Kind: &pb.Value_IntegerValue{IntegerValue: int64(r.Position)}},
					payloadSeq:      {Kind: &pb.Value_IntegerValue{IntegerValue: int64(r.Seq)}},
					payloadText:     {Kind: &pb.Value_StringValue{StringValue: r.Text}},
				},
			})
		}

		_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: s.collection,
			Wait:           &wait,
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("upsert points: %w", err)
		}
	}
	return nil
}

// Get returns the stored records for the given IDs. Missing IDs are skipped.
func (s *VectorStore) Get(ctx context.Context, ids []string) (map[string]domain.VectorRecord, error) {
	result := make(map[string]domain.VectorRecord, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	ok, err := s.exists(ctx)
	if err != nil || !ok {
		return result, err
	}

	pointIDs, err := pointIDs(ids)
	if err != nil {
		return nil, err
	}

	resp, err := s.points.Get(ctx, &pb.GetPoints{
		CollectionName: s.collection,
		Ids:            pointIDs,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get points: %w", err)
	}

	for _, p := range resp.GetResult() {
		payload := p.GetPayload()
		r := domain.VectorRecord{
			ID:       p.GetId().GetUuid(),
			Marker:   payload[payloadMarker].GetStringValue(),
			Position: int(payload[payloadPosition].GetIntegerValue()),
			Seq:      int(payload[payloadSeq].GetIntegerValue()),
			Text:     payload[payloadText].GetStringValue(),
			Vector:   p.GetVectors().GetVector().GetData(),
		}
		result[r.ID] = r
	}
	return result, nil
}

// Delete removes points by ID. Unknown IDs are ignored.
func (s *VectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	ok, err := s.exists(ctx)
	if err != nil || !ok {
		return err
	}

	pointIDs, err := pointIDs(ids)
	if err != nil {
		return err
	}

	wait := true
	_, err = s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	return nil
}

// Search returns the k nearest points by cosine similarity.
func (s *VectorStore) Search(ctx context.Context, query []float32, k int) ([]domain.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}
	ok, err := s.exists(ctx)
	if err != nil || !ok {
		return nil, err
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         query,
		Limit:          uint64(k),
	})
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	hits := make([]domain.VectorHit, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		hits = append(hits, domain.VectorHit{
			ID:    p.GetId().GetUuid(),
			Score: float64(p.GetScore()),
		})
	}
	return hits, nil
}

// Count returns the exact number of points in the collection.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	ok, err := s.exists(ctx)
	if err != nil || !ok {
		return 0, err
	}

	exact := true
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil //nolint:gosec // point counts fit in int
}

// Close closes the gRPC connection when the store owns it.
func (s *VectorStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// pointID converts a chunk ID into a Qdrant UUID point ID.
func pointID(id string) (*pb.PointId, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk id %q is not a UUID", domain.ErrInvalidInput, id)
	}
	return &pb.PointId{
		PointIdOptions: &pb.PointId_Uuid{Uuid: parsed.String()},
	}, nil
}

func pointIDs(ids []string) ([]*pb.PointId, error) {
	out := make([]*pb.PointId, 0, len(ids))
	for _, id := range ids {
		p, err := pointID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
