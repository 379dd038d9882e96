package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	AppName  string
	Debug    bool
	LogLevel string

	// database
	DatabaseURL     string
	DBTimeout       time.Duration
	DBMaxOpenConns  int
	DBMinIdleConns  int
	DBStatementTime time.Duration

	// upstream chat completions (OpenRouter-compatible)
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	ModelName         string
	AITimeout         time.Duration
	OpenRouterSiteURL string
	OpenRouterAppName string

	// optional collaborators; empty disables them
	RedisURL    string
	RabbitURL   string
	RabbitQueue string

	CORSOrigins  []string
	APIKeyHeader string
}

// Load reads .env (if present) and the process environment. It fails when any
// of DATABASE_URL, OPENAI_API_KEY, OPENAI_BASE_URL or MODEL_NAME is missing.
func Load() (Config, error) {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		DatabaseURL:   required("DATABASE_URL"),
		OpenAIAPIKey:  required("OPENAI_API_KEY"),
		OpenAIBaseURL: required("OPENAI_BASE_URL"),
		ModelName:     required("MODEL_NAME"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8000"
	}
	cfg.AppName = os.Getenv("APP_NAME")
	if cfg.AppName == "" {
		cfg.AppName = "API REST MCP"
	}
	cfg.Debug = strings.EqualFold(os.Getenv("DEBUG"), "true")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.DBTimeout = durationEnv("DB_TIMEOUT", 60*time.Second)
	cfg.DBStatementTime = durationEnv("DB_STATEMENT_TIMEOUT", 60*time.Second)
	cfg.DBMaxOpenConns = intEnv("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMinIdleConns = intEnv("DB_MIN_IDLE_CONNS", 1)

	cfg.AITimeout = durationEnv("AI_TIMEOUT", 60*time.Second)
	cfg.OpenRouterSiteURL = os.Getenv("OPENROUTER_SITE_URL")
	cfg.OpenRouterAppName = os.Getenv("OPENROUTER_APP_NAME")

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RabbitURL = os.Getenv("RABBIT_URL")
	cfg.RabbitQueue = os.Getenv("RABBIT_QUEUE")
	if cfg.RabbitQueue == "" {
		cfg.RabbitQueue = "order_events"
	}

	cfg.CORSOrigins = []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	cfg.APIKeyHeader = os.Getenv("API_KEY_HEADER")
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "X-API-Key"
	}

	return cfg, nil
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// durationEnv accepts Go durations ("45s") or plain seconds ("45").
func durationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
