package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RagConfig
	Ingest   IngestConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider   string // "ollama" or "jina"
	OllamaBaseURL       string
	OllamaModel         string
	EmbeddingDimensions int
	LLMProvider         string // "ollama"
	LLMModel            string // e.g. "llama3", "qwen2.5"
	JinaAPIKey          string
}

type RagConfig struct {
	TopK             int
	RRFKappa         int
	ContextBudget    int
	ConfidenceFloor  float64
	WeightCitedFrac  float64
	WeightCitedScore float64
	WeightRankAgree  float64
	VectorBackend    string // "memory" or "pgvector"
}

type IngestConfig struct {
	TopicName      string
	ChunkSize      int
	ChunkOverlap   int
	WorkerCount    int
	EmbedBatchSize int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:         getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 768),
			LLMProvider:         getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:            getEnv("LLM_MODEL", "llama3"),
			JinaAPIKey:          getEnv("JINA_API_KEY", ""),
		},
		Rag: RagConfig{
			TopK:             getEnvAsInt("RAG_TOP_K", 8),
			RRFKappa:         getEnvAsInt("RAG_RRF_KAPPA", 60),
			ContextBudget:    getEnvAsInt("RAG_CONTEXT_BUDGET", 8000),
			ConfidenceFloor:  getEnvAsFloat("RAG_CONFIDENCE_FLOOR", 0.35),
			WeightCitedFrac:  getEnvAsFloat("RAG_WEIGHT_CITED_FRACTION", 0.5),
			WeightCitedScore: getEnvAsFloat("RAG_WEIGHT_CITED_SCORE", 0.3),
			WeightRankAgree:  getEnvAsFloat("RAG_WEIGHT_RANK_AGREEMENT", 0.2),
			VectorBackend:    getEnv("VECTOR_INDEX_BACKEND", "memory"),
		},
		Ingest: IngestConfig{
			TopicName:      getEnv("INGEST_DOCUMENT_TOPIC_NAME", "INGEST_DOCUMENT"),
			ChunkSize:      getEnvAsInt("CHUNK_TARGET_SIZE", 1000),
			ChunkOverlap:   getEnvAsInt("CHUNK_OVERLAP", 200),
			WorkerCount:    getEnvAsInt("INGEST_WORKER_COUNT", 4),
			EmbedBatchSize: getEnvAsInt("EMBED_BATCH_SIZE", 32),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
