package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Ai        AIConfig
	Retrieval RetrievalConfig
	Jobs      JobsConfig
	Prompts   PromptConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	// JWTSecret enables bearer auth on the API group when set.
	JWTSecret string
}

type DatabaseConfig struct {
	Connection string
	// VectorBackend selects the index implementation: "pgvector" or "bolt".
	VectorBackend string
	BoltPath      string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	// ReportRecipient gets a mail when a queued report finishes. Empty
	// disables mailing.
	ReportRecipient string
}

type AIConfig struct {
	EmbeddingProvider    string // "ark", "jina" or "ollama"
	ArkBaseURL           string
	ArkAPIKey            string
	EmbeddingModel       string
	JinaAPIKey           string
	OllamaBaseURL        string
	OllamaEmbeddingModel string

	LLMProvider string // "ollama", "openai", "dashscope", "ark", "deepseek"
	LLMModel    string
	LLMBaseURL  string
	LLMAPIKey   string

	VisionModel         string
	VisionBaseURL       string
	VisionAPIKey        string
	VisionFallbackModel string

	RerankerBaseURL string
	RerankerAPIKey  string
}

type RetrievalConfig struct {
	TopK              int
	RerankTopK        int
	TextWeight        float64
	ImageWeight       float64
	MinIndicatorRatio float64
	SessionTTLMinutes int
}

type JobsConfig struct {
	// Mode is "direct" (inline execution) or "queued".
	Mode           string
	WorkerPoolSize int
	IngestTopic    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection:    getEnv("DB_CONNECTION_STRING", ""),
			VectorBackend: getEnv("VECTOR_BACKEND", "pgvector"),
			BoltPath:      getEnv("BOLT_PATH", "manual_index.db"),
		},
		SMTP: SMTPConfig{
			Host:            getEnv("SMTP_HOST", ""),
			Port:            getEnvAsInt("SMTP_PORT", 587),
			Email:           getEnv("SMTP_EMAIL", ""),
			Password:        getEnv("SMTP_PASSWORD", ""),
			SenderName:      getEnv("SMTP_SENDER_NAME", "UrbanInspection"),
			ReportRecipient: getEnv("REPORT_MAIL_RECIPIENT", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:    getEnv("EMBEDDING_PROVIDER", "ark"),
			ArkBaseURL:           getEnv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			ArkAPIKey:            getEnv("ARK_API_KEY", ""),
			EmbeddingModel:       getEnv("EMBEDDING_MODEL", "doubao-embedding-vision-241215"),
			JinaAPIKey:           getEnv("JINA_API_KEY", ""),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:          getEnv("LLM_PROVIDER", "dashscope"),
			LLMModel:             getEnv("LLM_MODEL", "qwen-plus"),
			LLMBaseURL:           getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:            getEnv("LLM_API_KEY", ""),
			VisionModel:          getEnv("VISION_MODEL", "qwen-vl-max"),
			VisionBaseURL:        getEnv("VISION_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
			VisionAPIKey:         getEnv("VISION_API_KEY", ""),
			VisionFallbackModel:  getEnv("VISION_FALLBACK_MODEL", ""),
			RerankerBaseURL:      getEnv("RERANKER_BASE_URL", ""),
			RerankerAPIKey:       getEnv("RERANKER_API_KEY", ""),
		},
		Retrieval: RetrievalConfig{
			TopK:              getEnvAsInt("RETRIEVAL_TOP_K", 5),
			RerankTopK:        getEnvAsInt("RERANK_TOP_K", 3),
			TextWeight:        getEnvAsFloat("FUSION_TEXT_WEIGHT", 0.6),
			ImageWeight:       getEnvAsFloat("FUSION_IMAGE_WEIGHT", 0.4),
			MinIndicatorRatio: getEnvAsFloat("MIN_INDICATOR_RATIO", 0.3),
			SessionTTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
		Jobs: JobsConfig{
			Mode:           getEnv("JOBS_MODE", "direct"),
			WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 4),
			IngestTopic:    getEnv("INGEST_TOPIC_NAME", "INGEST_MANUAL_CHUNK"),
		},
		Prompts: LoadPrompts(getEnv("PROMPT_CONFIG_FILE", "")),
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
