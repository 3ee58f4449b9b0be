package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Vector store backends selectable through VECTOR_STORE.
const (
	VectorStoreNone     = ""
	VectorStoreMemory   = "memory"
	VectorStorePinecone = "pinecone"
	VectorStoreQdrant   = "qdrant"
	VectorStoreMongo    = "mongo"
)

// Language model providers selectable through LLM_PROVIDER.
const (
	LLMProviderGroq   = "groq"
	LLMProviderOpenAI = "openai"
	LLMProviderGemini = "gemini"
)

type Config struct {
	Port           string
	GinMode        string
	CORSOrigins    []string
	MaxFileSize    int64
	FileStorageDir string
	CorpusFile     string

	// Chunking and retrieval
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	// Vector store selection; empty means lexical fallback mode
	VectorStore string

	// Pinecone
	PineconeAPIKey     string
	PineconeIndex      string
	PineconeCloud      string
	PineconeRegion     string
	PineconeControlURL string

	// Qdrant
	QdrantHost       string
	QdrantPort       int
	QdrantAPIKey     string
	QdrantCollection string
	QdrantUseTLS     bool

	// MongoDB Atlas vector search
	MongoURI        string
	DBName          string
	VectorIndexName string

	// Embeddings configuration
	EmbeddingsProvider    string // "openai" (default), "google"
	OpenAIAPIKey          string
	OpenAIEmbeddingsModel string
	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	VectorDimensions      int

	// Language model
	LLMProvider string
	LLMModel    string
	LLMBaseURL  string
	GroqAPIKey  string
	LLMRPM      int

	// Redis Configuration
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RateLimitReqs   int
	RateLimitWindow int

	// Telemetry
	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	storageDir := getEnv("FILE_STORAGE_DIR", "./storage")

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		CORSOrigins:    getEnvList("CORS_ORIGINS", "*"),
		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB
		FileStorageDir: storageDir,
		CorpusFile:     getEnv("CORPUS_FILE", filepath.Join(storageDir, "corpus.json.gz")),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 100),
		TopK:         getEnvInt("TOP_K", 5),

		VectorStore: getEnv("VECTOR_STORE", VectorStoreNone),

		PineconeAPIKey:     getEnv("PINECONE_API_KEY", ""),
		PineconeIndex:      getEnv("PINECONE_INDEX", "pdf-chunks"),
		PineconeCloud:      getEnv("PINECONE_CLOUD", "aws"),
		PineconeRegion:     getEnv("PINECONE_REGION", "us-east-1"),
		PineconeControlURL: getEnv("PINECONE_CONTROL_URL", "https://api.pinecone.io"),

		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "pdf_chunks"),
		QdrantUseTLS:     getEnvBool("QDRANT_USE_TLS", false),

		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:          getEnv("DB_NAME", "pdf_rag"),
		VectorIndexName: getEnv("MONGODB_VECTOR_INDEX", "pdf_chunks_vector"),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "openai"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIEmbeddingsModel: getEnv("OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-small"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		VectorDimensions:      getEnvInt("VECTOR_DIM", 0),

		LLMProvider: getEnv("LLM_PROVIDER", LLMProviderGroq),
		LLMModel:    getEnv("LLM_MODEL", ""),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
		GroqAPIKey:  getEnv("GROQ_API_KEY", ""),
		LLMRPM:      getEnvInt("LLM_RPM", 60),

		RedisURL:        getEnv("REDIS_URL", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat64("OTEL_SAMPLE_RATIO", 0.1),
	}

	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultLLMModel(cfg.LLMProvider)
	}

	return cfg, nil
}

// Validate checks the settings the API cannot run without. Optional
// providers (vector store, Redis, telemetry) are never required here.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case LLMProviderGroq, LLMProviderOpenAI, LLMProviderGemini:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.LLMAPIKey() == "" {
		return fmt.Errorf("API key for LLM provider %q is required - set it in .env file", c.LLMProvider)
	}

	return c.ValidateIngest()
}

// ValidateIngest checks only what ingestion needs; the worker never calls the
// language model.
func (c *Config) ValidateIngest() error {
	switch c.VectorStore {
	case VectorStoreNone, VectorStoreMemory, VectorStorePinecone, VectorStoreQdrant, VectorStoreMongo:
	default:
		return fmt.Errorf("unknown VECTOR_STORE %q", c.VectorStore)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}

	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}

	return nil
}

// LLMAPIKey returns the credential matching the configured LLM provider.
func (c *Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case LLMProviderGroq:
		return c.GroqAPIKey
	case LLMProviderOpenAI:
		return c.OpenAIAPIKey
	case LLMProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}

// RedisEnabled reports whether rate limiting and the ingest queue can be used.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

// AsyncIngestSupported reports whether a separate worker process can index
// into the same store the API reads from. The in-process memory store
// cannot be shared.
func (c *Config) AsyncIngestSupported() bool {
	return c.VectorStore != VectorStoreMemory
}

func defaultLLMModel(provider string) string {
	switch provider {
	case LLMProviderOpenAI:
		return "gpt-4o-mini"
	case LLMProviderGemini:
		return "gemini-2.0-flash"
	default:
		return "llama-3.1-8b-instant"
	}
}
