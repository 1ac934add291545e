package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"basegraph.app/intake/core/db"
)

type Config struct {
	OTel     OTelConfig
	LLM      LLMConfig
	Intake   IntakeConfig
	Sessions SessionConfig
	Archive  ArchiveConfig
	Tickets  TicketConfig
	Env      string
	Port     string
	NodeID   int64
	DB       db.Config

	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type LLMConfig struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// IntakeConfig tunes the conversation.
type IntakeConfig struct {
	MaxQuestions    int
	HistoryWindow   int
	LogPreviewChars int
	// CompletionGuard refuses the extractor's completion claim while required
	// fields are missing and question budget remains.
	CompletionGuard bool
}

type SessionConfig struct {
	Backend  string // "memory" or "redis"
	RedisURL string
	TTL      time.Duration
}

type ArchiveConfig struct {
	Backend         string // "s3", "local" or "none"
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Dir             string
}

type TicketConfig struct {
	Provider string // "jira" or "gitlab"
	Jira     JiraConfig
	GitLab   GitLabConfig
}

type JiraConfig struct {
	APIKey     string
	BaseURL    string
	ProjectKey string
	Email      string
	Assignee   string
}

type GitLabConfig struct {
	Token     string
	BaseURL   string
	ProjectID string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeCLI    ServiceType = "cli"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the API server
//   - .env.cli for the bugchat CLI
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("INTAKE_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:         getEnv("INTAKE_ENV", "development"),
		Port:        getEnv("PORT", "8000"),
		NodeID:      int64(getEnvInt("SNOWFLAKE_NODE_ID", 1)),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "intake"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		LLM: LLMConfig{
			Provider:  getEnv("LLM_PROVIDER", "openai"),
			APIKey:    getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
			BaseURL:   getEnv("LLM_BASE_URL", ""),
			Model:     getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 1500),
			Timeout:   getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Intake: IntakeConfig{
			MaxQuestions:    getEnvInt("INTAKE_MAX_QUESTIONS", 2),
			HistoryWindow:   getEnvInt("INTAKE_HISTORY_WINDOW", 10),
			LogPreviewChars: getEnvInt("INTAKE_LOG_PREVIEW_CHARS", 500),
			CompletionGuard: getEnvBool("INTAKE_COMPLETION_GUARD", false),
		},
		Sessions: SessionConfig{
			Backend:  getEnv("SESSION_BACKEND", "memory"),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
			TTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		},
		Archive: ArchiveConfig{
			Backend:         getEnv("ARCHIVE_BACKEND", "s3"),
			Bucket:          getEnv("S3_BUCKET_NAME", "bug-reports"),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Dir:             getEnv("ARCHIVE_DIR", "./data/reports"),
		},
		Tickets: TicketConfig{
			Provider: getEnv("TICKET_PROVIDER", "jira"),
			Jira: JiraConfig{
				APIKey:     getEnv("JIRA_API_KEY", ""),
				BaseURL:    getEnv("JIRA_BASE_URL", ""),
				ProjectKey: getEnv("JIRA_PROJECT_KEY", ""),
				Email:      getEnv("JIRA_EMAIL", ""),
				Assignee:   getEnv("JIRA_ASSIGNEE", ""),
			},
			GitLab: GitLabConfig{
				Token:     getEnv("GITLAB_TOKEN", ""),
				BaseURL:   getEnv("GITLAB_BASE_URL", ""),
				ProjectID: getEnv("GITLAB_PROJECT_ID", ""),
			},
		},
	}

	if !cfg.LLM.Enabled() {
		return Config{}, fmt.Errorf("LLM_API_KEY (or OPENAI_API_KEY) is required and LLM_PROVIDER must be openai or anthropic")
	}

	switch cfg.Sessions.Backend {
	case "memory", "redis":
	default:
		return Config{}, fmt.Errorf("SESSION_BACKEND must be memory or redis, got %q", cfg.Sessions.Backend)
	}

	if cfg.Intake.MaxQuestions < 0 {
		return Config{}, fmt.Errorf("INTAKE_MAX_QUESTIONS must not be negative")
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

func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && (c.Provider == "openai" || c.Provider == "anthropic")
}

// S3Enabled reports whether an S3 archive can be built from the environment.
func (c ArchiveConfig) S3Enabled() bool {
	return c.Backend == "s3" && c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func (c JiraConfig) Enabled() bool {
	return c.APIKey != "" && c.BaseURL != "" && c.ProjectKey != ""
}

func (c GitLabConfig) Enabled() bool {
	return c.Token != "" && c.ProjectID != ""
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

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" && part != "*" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
