package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type EmbeddingsConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type LLMConfig struct {
	Provider string
	Model    string
}

type Config struct {
	DataDir     string
	PostgresDSN string
	VectorStore string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	Embeddings EmbeddingsConfig
	LLM        LLMConfig

	CollectionName string
	ChunkSize      int
	ChunkOverlap   int
	TopK           int
}

// Load reads configuration from the environment, honoring a local .env file
// when present. Every value has a default except OPENAI_API_KEY, which is only
// required when an OpenAI provider is selected.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DataDir:     getEnv("DATA_DIR", "data/raw"),
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/edu_assistant?sslmode=disable"),
		VectorStore: getEnv("VECTOR_STORE", StorePostgres),

		OllamaHost:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		Embeddings: EmbeddingsConfig{
			Provider:  getEnv("EMBED_PROVIDER", ProviderOllama),
			Model:     getEnv("EMBED_MODEL", "nomic-embed-text"),
			Dimension: getEnvInt("EMBED_DIMENSION", 768),
		},
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", ProviderOllama),
			Model:    getEnv("OLLAMA_MODEL", "llama3.2"),
		},

		CollectionName: getEnv("COLLECTION_NAME", "edu_assistant"),
		ChunkSize:      getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 200),
		TopK:           getEnvInt("TOP_K", 4),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
