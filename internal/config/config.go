package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string
	JWTTTL    time.Duration

	// LLM
	LLMProvider       string
	LLMAPIKey         string
	LLMModel          string
	LLMBaseURL        string
	LLMTimeout        time.Duration
	LLMMaxAttempts    int
	LLMConcurrentReqs int

	// Caches
	QuizCacheTTL        time.Duration
	LeaderboardCacheTTL time.Duration

	// Notifications
	NotifyWorkers int

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

// providerKeyEnv maps each supported LLM provider to the env var holding its API key.
var providerKeyEnv = map[string]string{
	"groq":      "GROQ_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	provider := getEnvOrDefault("LLM_PROVIDER", "groq")

	cfg := &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		Env:                 getEnvOrDefault("ENV", "development"),
		DatabaseURL:         mustGetEnv("DATABASE_URL"),
		RedisURL:            mustGetEnv("REDIS_URL"),
		JWTSecret:           mustGetEnv("JWT_SECRET"),
		JWTTTL:              time.Duration(getEnvAsIntOrDefault("JWT_TTL_HOURS", 24)) * time.Hour,
		LLMProvider:         provider,
		LLMAPIKey:           os.Getenv(providerKeyEnv[provider]),
		LLMModel:            getEnvOrDefault("LLM_MODEL", ""),
		LLMBaseURL:          getEnvOrDefault("LLM_BASE_URL", ""),
		LLMTimeout:          time.Duration(getEnvAsIntOrDefault("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
		LLMMaxAttempts:      getEnvAsIntOrDefault("LLM_MAX_ATTEMPTS", 2),
		LLMConcurrentReqs:   getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 5),
		QuizCacheTTL:        time.Duration(getEnvAsIntOrDefault("QUIZ_CACHE_TTL_SECONDS", 600)) * time.Second,
		LeaderboardCacheTTL: time.Duration(getEnvAsIntOrDefault("LEADERBOARD_CACHE_TTL_SECONDS", 60)) * time.Second,
		NotifyWorkers:       getEnvAsIntOrDefault("NOTIFY_WORKERS", 2),
		SMTPHost:            getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:            getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:            getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:            getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:            getEnvOrDefault("SMTP_FROM", "noreply@aiquizzer.app"),
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	keyEnv, ok := providerKeyEnv[c.LLMProvider]
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.LLMProvider)
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("%s is required for the %s provider", keyEnv, c.LLMProvider)
	}
	if c.LLMMaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be at least 1")
	}
	if c.LLMConcurrentReqs < 1 {
		return fmt.Errorf("LLM_CONCURRENT_REQUESTS must be at least 1")
	}
	return nil
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
