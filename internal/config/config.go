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
	SMTP     SMTPConfig
	Tracker  TrackerConfig
	Keys     APIKeys
	Ai       AIConfig
	Session  SessionConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host          string
	Port          int
	Email         string
	Password      string
	SenderName    string
	OperatorEmail string
}

// TrackerConfig covers the task tracker the agent serves: its OAuth endpoints,
// its REST API, and the shared secret for webhook signatures.
type TrackerConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	AuthURL          string
	TokenURL         string
	WorkspaceInfoURL string
	APIBaseURL       string
	WebhookSecret    string
}

type APIKeys struct {
	Geoapify    string
	GitHubToken string
}

type AIConfig struct {
	LLMProvider    string // "ollama" or "huggingface"
	LLMModel       string
	OllamaBaseURL  string
	HuggingFaceKey string
}

type SessionConfig struct {
	// EncryptionKey is a hex-encoded 32-byte key. Empty disables
	// encryption-at-rest for session state.
	EncryptionKey string
	TTLDays       int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:          getEnv("SMTP_HOST", ""),
			Port:          getEnvAsInt("SMTP_PORT", 587),
			Email:         getEnv("SMTP_EMAIL", ""),
			Password:      getEnv("SMTP_PASSWORD", ""),
			SenderName:    getEnv("SMTP_SENDER_NAME", "Issue Agent"),
			OperatorEmail: getEnv("OPERATOR_EMAIL", ""),
		},
		Tracker: TrackerConfig{
			ClientID:         getEnv("TRACKER_CLIENT_ID", ""),
			ClientSecret:     getEnv("TRACKER_CLIENT_SECRET", ""),
			RedirectURL:      getEnv("TRACKER_REDIRECT_URL", "http://localhost:3000/api/oauth/callback"),
			AuthURL:          getEnv("TRACKER_AUTH_URL", ""),
			TokenURL:         getEnv("TRACKER_TOKEN_URL", ""),
			WorkspaceInfoURL: getEnv("TRACKER_WORKSPACE_INFO_URL", ""),
			APIBaseURL:       getEnv("TRACKER_API_BASE_URL", ""),
			WebhookSecret:    getEnv("TRACKER_WEBHOOK_SECRET", ""),
		},
		Keys: APIKeys{
			Geoapify:    getEnv("GEOAPIFY_API_KEY", ""),
			GitHubToken: getEnv("GITHUB_TOKEN", ""),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceKey: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Session: SessionConfig{
			EncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", ""),
			TTLDays:       getEnvAsInt("SESSION_TTL_DAYS", 30),
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
