package config

import (
	"context"
	"fmt"
	"time"

	"pdf-rag-service/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChunksCollection holds one document per embedded chunk.
const ChunksCollection = "pdf_chunks"

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := utils.WithTimeout(context.Background())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if err := createIndexes(ctx, client, cfg.DBName); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return client, nil
}

func createIndexes(ctx context.Context, client *mongo.Client, dbName string) error {
	// PDF Chunks collection indexes for lookups by source document
	pdfChunksCollection := client.Database(dbName).Collection(ChunksCollection)
	pdfChunkIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "metadata.document_id", Value: 1}}},
		{Keys: bson.D{{Key: "metadata.document_id", Value: 1}, {Key: "metadata.chunk_index", Value: 1}}},
	}
	_, err := pdfChunksCollection.Indexes().CreateMany(ctx, pdfChunkIndexes)
	return err
}
