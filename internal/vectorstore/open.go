package vectorstore

import (
	"context"
	"fmt"

	"pdf-rag-service/internal/config"
)

// Open builds the store selected by VECTOR_STORE. It returns (nil, nil) when
// no store is configured.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.VectorStore {
	case config.VectorStoreNone:
		return nil, nil

	case config.VectorStoreMemory:
		return NewMemoryStore(), nil

	case config.VectorStorePinecone:
		return NewPineconeStore(PineconeConfig{
			APIKey:     cfg.PineconeAPIKey,
			Index:      cfg.PineconeIndex,
			Cloud:      cfg.PineconeCloud,
			Region:     cfg.PineconeRegion,
			ControlURL: cfg.PineconeControlURL,
		})

	case config.VectorStoreQdrant:
		return NewQdrantStore(QdrantConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			APIKey:     cfg.QdrantAPIKey,
			UseTLS:     cfg.QdrantUseTLS,
			Collection: cfg.QdrantCollection,
		})

	case config.VectorStoreMongo:
		client, err := config.ConnectMongoDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return NewMongoStore(client, cfg.DBName, config.ChunksCollection, cfg.VectorIndexName), nil

	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}
}
