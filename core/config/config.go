package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"dealerops.dev/storyline/core/db"
)

type Config struct {
	OTel       OTelConfig
	OpenAI     OpenAIConfig
	Story      StoryConfig
	Vehicle    VehicleConfig
	Env        string
	Port       string
	CORSOrigin string
	DB         db.Config
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// StoryConfig controls the generation orchestrator.
type StoryConfig struct {
	MaxAttempts      int
	MaxTokens        int
	StructuredOutput bool
	PromptsDir       string // optional override for the embedded templates
	ClaimRulesPath   string // optional override for the embedded claim rules
}

// VehicleConfig points at the VIN decode service (vPIC-compatible API).
type VehicleConfig struct {
	BaseURL string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeCLI    ServiceType = "cli"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the HTTP service
//   - .env.cli for the one-shot generator
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("STORYLINE_ENV", "development") == "development" {
		// Try service-specific env file first, fall back to .env
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:        getEnv("STORYLINE_ENV", "development"),
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 4),
			MinConns: getEnvInt32("DB_MIN_CONNS", 1),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "storyline"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4.1"),
		},
		Story: StoryConfig{
			MaxAttempts:      getEnvInt("STORY_MAX_ATTEMPTS", 3),
			MaxTokens:        getEnvInt("STORY_MAX_TOKENS", 1200),
			StructuredOutput: getEnvBool("STORY_STRUCTURED_OUTPUT", true),
			PromptsDir:       getEnv("PROMPTS_DIR", ""),
			ClaimRulesPath:   getEnv("CLAIM_RULES_PATH", ""),
		},
		Vehicle: VehicleConfig{
			BaseURL: getEnv("VPIC_BASE_URL", "https://vpic.nhtsa.dot.gov/api"),
		},
	}

	if cfg.OpenAI.APIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
