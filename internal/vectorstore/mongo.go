package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pdf-rag-service/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps records in a collection searched through an Atlas
// vectorSearch index on the embedding field.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	indexName  string
}

type mongoRecord struct {
	ID        string         `bson:"_id"`
	Embedding []float32      `bson:"embedding"`
	Metadata  map[string]any `bson:"metadata"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

type mongoMatch struct {
	ID       string         `bson:"_id"`
	Metadata map[string]any `bson:"metadata"`
	Score    float64        `bson:"score"`
}

// NewMongoStore takes ownership of client; Close disconnects it.
func NewMongoStore(client *mongo.Client, dbName, collection, indexName string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection(collection),
		indexName:  indexName,
	}
}

func (s *MongoStore) EnsureIndex(ctx context.Context, dimension int) error {
	cursor, err := s.collection.SearchIndexes().List(ctx, options.SearchIndexes().SetName(s.indexName))
	if err != nil {
		return mongoError("list search indexes", err)
	}
	var existing []bson.M
	if err := cursor.All(ctx, &existing); err != nil {
		return mongoError("list search indexes", err)
	}
	if len(existing) > 0 {
		return nil
	}

	logger.Info("Creating Atlas vector search index", "index", s.indexName, "dimension", dimension)
	definition := bson.D{
		{Key: "fields", Value: bson.A{
			bson.D{
				{Key: "type", Value: "vector"},
				{Key: "path", Value: "embedding"},
				{Key: "numDimensions", Value: dimension},
				{Key: "similarity", Value: "cosine"},
			},
		}},
	}
	_, err = s.collection.SearchIndexes().CreateOne(ctx, mongo.SearchIndexModel{
		Definition: definition,
		Options:    options.SearchIndexes().SetName(s.indexName).SetType("vectorSearch"),
	})
	if err != nil {
		return mongoError("create search index", err)
	}
	return nil
}

func (s *MongoStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	models := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		doc := mongoRecord{
			ID:        r.ID,
			Embedding: r.Vector,
			Metadata:  r.Metadata,
			UpdatedAt: now,
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": r.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	_, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return mongoError("bulk upsert", err)
	}
	return nil
}

func (s *MongoStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.indexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: topK * 20},
			{Key: "limit", Value: topK},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "metadata", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mongoError("vector search", err)
	}
	defer cursor.Close(ctx)

	var results []mongoMatch
	if err := cursor.All(ctx, &results); err != nil {
		return nil, mongoError("vector search", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{ID: r.ID, Score: float32(r.Score), Metadata: r.Metadata})
	}
	return matches, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func mongoError(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: mongo %s: %v", ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("mongo %s failed: %w", op, err)
}
