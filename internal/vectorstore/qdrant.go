package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"pdf-rag-service/internal/logger"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// recordIDKey holds the caller's id in the payload; Qdrant only accepts
// UUIDs or integers as point ids.
const recordIDKey = "record_id"

type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// QdrantStore stores records as points in a single cosine collection.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	waitUpsert bool
}

func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		return nil, errors.New("missing QDRANT_HOST")
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &QdrantStore{
		client:     c,
		collection: cfg.Collection,
		waitUpsert: true,
	}, nil
}

// PointID maps a record id to the deterministic UUID used as the point id,
// so re-upserting the same record overwrites it.
func PointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(recordID)).String()
}

func (s *QdrantStore) EnsureIndex(ctx context.Context, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return qdrantError("collection exists", err)
	}
	if exists {
		return nil
	}

	logger.Info("Creating Qdrant collection", "collection", s.collection, "dimension", dimension)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return qdrantError("create collection", err)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		payload := make(map[string]any, len(r.Metadata)+1)
		for k, v := range r.Metadata {
			payload[k] = v
		}
		payload[recordIDKey] = r.ID

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(r.ID)),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &s.waitUpsert,
		Points:         points,
	})
	if err != nil {
		return qdrantError("upsert", err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	limit := uint64(topK)

	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
		Limit:          &limit,
	})
	if err != nil {
		return nil, qdrantError("query", err)
	}

	matches := make([]Match, 0, len(res))
	for _, sp := range res {
		metadata := payloadToMap(sp.Payload)
		id, _ := metadata[recordIDKey].(string)
		delete(metadata, recordIDKey)
		if id == "" {
			id = sp.Id.GetUuid()
		}
		matches = append(matches, Match{ID: id, Score: sp.Score, Metadata: metadata})
	}
	return matches, nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		switch kind := v.GetKind().(type) {
		case *qdrant.Value_StringValue:
			out[k] = kind.StringValue
		case *qdrant.Value_IntegerValue:
			out[k] = kind.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[k] = kind.DoubleValue
		case *qdrant.Value_BoolValue:
			out[k] = kind.BoolValue
		}
	}
	return out
}

func qdrantError(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: qdrant %s: %v", ErrStoreUnavailable, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: qdrant %s: %v", ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("qdrant %s failed: %w", op, err)
}
