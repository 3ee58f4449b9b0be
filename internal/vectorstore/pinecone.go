package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"pdf-rag-service/internal/logger"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	pineconeUpsertBatch = 100
	pineconePollEvery   = time.Second
)

// PineconeConfig configures a serverless Pinecone index.
type PineconeConfig struct {
	APIKey     string
	Index      string
	Cloud      string
	Region     string
	ControlURL string
}

// pineconeControl is the part of *pinecone.Client used for index management.
type pineconeControl interface {
	ListIndexes(ctx context.Context) ([]*pinecone.Index, error)
	CreateServerlessIndex(ctx context.Context, in *pinecone.CreateServerlessIndexRequest) (*pinecone.Index, error)
}

// pineconeData is the part of *pinecone.IndexConnection used for vectors.
type pineconeData interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	Close() error
}

// PineconeStore keeps chunk vectors in a serverless Pinecone index. The
// data-plane connection is opened in EnsureIndex once the index is ready.
type PineconeStore struct {
	cfg     PineconeConfig
	control pineconeControl
	connect func(host string) (pineconeData, error)
	data    pineconeData

	pollEvery time.Duration
}

func NewPineconeStore(cfg PineconeConfig) (*PineconeStore, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing PINECONE_API_KEY")
	}
	if cfg.Index == "" {
		return nil, errors.New("missing PINECONE_INDEX")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
		Host:   cfg.ControlURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	return newPineconeStore(cfg, client, func(host string) (pineconeData, error) {
		conn, err := client.Index(pinecone.NewIndexConnParams{Host: host})
		if err != nil {
			return nil, err
		}
		return conn, nil
	}), nil
}

func newPineconeStore(cfg PineconeConfig, control pineconeControl, connect func(string) (pineconeData, error)) *PineconeStore {
	return &PineconeStore{cfg: cfg, control: control, connect: connect, pollEvery: pineconePollEvery}
}

// EnsureIndex creates the index when missing and waits until it is ready.
func (s *PineconeStore) EnsureIndex(ctx context.Context, dimension int) error {
	idx, err := s.findIndex(ctx)
	if err != nil {
		return err
	}

	if idx == nil {
		logger.Info("Creating Pinecone index", "index", s.cfg.Index, "dimension", dimension)
		idx, err = s.control.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      s.cfg.Index,
			Dimension: int32(dimension),
			Metric:    pinecone.Cosine,
			Cloud:     pinecone.Cloud(s.cfg.Cloud),
			Region:    s.cfg.Region,
		})
		if err != nil {
			return pineconeError("create index", err)
		}
	}

	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()
	for idx == nil || idx.Status == nil || !idx.Status.Ready {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for index %s: %v", ErrStoreUnavailable, s.cfg.Index, ctx.Err())
		case <-ticker.C:
		}
		if idx, err = s.findIndex(ctx); err != nil {
			return err
		}
	}

	data, err := s.connect(idx.Host)
	if err != nil {
		return pineconeError("connect", err)
	}
	s.data = data
	return nil
}

// findIndex returns the configured index, or nil when it does not exist yet.
func (s *PineconeStore) findIndex(ctx context.Context) (*pinecone.Index, error) {
	indexes, err := s.control.ListIndexes(ctx)
	if err != nil {
		return nil, pineconeError("list indexes", err)
	}
	for _, idx := range indexes {
		if idx != nil && idx.Name == s.cfg.Index {
			return idx, nil
		}
	}
	return nil, nil
}

func (s *PineconeStore) Upsert(ctx context.Context, records []Record) error {
	if s.data == nil {
		return fmt.Errorf("%w: pinecone index not initialized", ErrStoreUnavailable)
	}

	for start := 0; start < len(records); start += pineconeUpsertBatch {
		end := min(start+pineconeUpsertBatch, len(records))

		vectors := make([]*pinecone.Vector, 0, end-start)
		for _, r := range records[start:end] {
			metadata, err := structpb.NewStruct(r.Metadata)
			if err != nil {
				return fmt.Errorf("invalid metadata for %s: %w", r.ID, err)
			}
			vectors = append(vectors, &pinecone.Vector{Id: r.ID, Values: r.Vector, Metadata: metadata})
		}
		if _, err := s.data.UpsertVectors(ctx, vectors); err != nil {
			return pineconeError("upsert", err)
		}
	}
	return nil
}

func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if s.data == nil {
		return nil, fmt.Errorf("%w: pinecone index not initialized", ErrStoreUnavailable)
	}
	if topK <= 0 {
		topK = 5
	}

	res, err := s.data.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, pineconeError("query", err)
	}

	matches := make([]Match, 0, len(res.Matches))
	for _, m := range res.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		var metadata map[string]any
		if m.Vector.Metadata != nil {
			metadata = m.Vector.Metadata.AsMap()
		}
		matches = append(matches, Match{ID: m.Vector.Id, Score: m.Score, Metadata: metadata})
	}
	return matches, nil
}

func (s *PineconeStore) Close() error {
	if s.data != nil {
		return s.data.Close()
	}
	return nil
}

// pineconeError marks transport failures, gRPC unavailability and auth
// rejections as ErrStoreUnavailable.
func pineconeError(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: pinecone %s: %v", ErrStoreUnavailable, op, err)
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unauthenticated, codes.PermissionDenied, codes.ResourceExhausted, codes.Internal:
		return fmt.Errorf("%w: pinecone %s: %v", ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("pinecone %s failed: %w", op, err)
}
