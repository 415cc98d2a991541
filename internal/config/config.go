package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret"

// DefaultSystemPrompt frames every chat request sent to the assistant.
const DefaultSystemPrompt = `You are a helpful customer service AI assistant for Smart Resolve AI. Your role is to:
1. Help users with their questions and complaints
2. Provide helpful information when possible
3. When you can't resolve an issue, inform the user you'll create a support ticket
4. Be friendly, professional, and empathetic
5. Keep responses concise but helpful`

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Classifier   ClassifierConfig
	Notification NotificationConfig
	Workspace    WorkspaceConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	MinPasswordLength     int
}

// ClassifierConfig points at the external categorization/chat service.
type ClassifierConfig struct {
	BaseURL                  string
	TimeoutSeconds           int
	HistoryWindow            int
	SystemPrompt             string
	EscalationTimeoutSeconds int
}

// NotificationConfig controls the per-session notice queue and event webhook.
type NotificationConfig struct {
	NoticeTTLSeconds int
	MaxNotices       int
	WebhookURL       string
}

// WorkspaceConfig controls eviction of idle per-session state.
type WorkspaceConfig struct {
	IdleMinutes  int
	SweepSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "smart-resolve"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", devJWTSecret),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MinPasswordLength:     getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", 6),
		},
		Classifier: ClassifierConfig{
			BaseURL:                  getEnv("CLASSIFIER_BASE_URL", "http://localhost:5000"),
			TimeoutSeconds:           getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 15),
			HistoryWindow:            getEnvAsInt("CLASSIFIER_HISTORY_WINDOW", 5),
			SystemPrompt:             getEnv("CLASSIFIER_SYSTEM_PROMPT", DefaultSystemPrompt),
			EscalationTimeoutSeconds: getEnvAsInt("CLASSIFIER_ESCALATION_TIMEOUT_SECONDS", 10),
		},
		Notification: NotificationConfig{
			NoticeTTLSeconds: getEnvAsInt("NOTIFY_NOTICE_TTL_SECONDS", 3600),
			MaxNotices:       getEnvAsInt("NOTIFY_MAX_NOTICES", 50),
			WebhookURL:       getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Workspace: WorkspaceConfig{
			IdleMinutes:  getEnvAsInt("WORKSPACE_IDLE_MINUTES", 60),
			SweepSeconds: getEnvAsInt("WORKSPACE_SWEEP_SECONDS", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Classifier.BaseURL == "" {
		return errors.New("CLASSIFIER_BASE_URL must not be empty")
	}
	if c.Classifier.HistoryWindow <= 0 {
		return fmt.Errorf("CLASSIFIER_HISTORY_WINDOW must be positive, got %d", c.Classifier.HistoryWindow)
	}
	if c.App.Env == "production" && c.Auth.JWTSecret == devJWTSecret {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the outbound request timeout; zero disables it.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EscalationTimeout bounds each step of turning a conversation into a ticket.
func (c ClassifierConfig) EscalationTimeout() time.Duration {
	if c.EscalationTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.EscalationTimeoutSeconds) * time.Second
}

// NoticeTTL returns how long undelivered notices are kept.
func (n NotificationConfig) NoticeTTL() time.Duration {
	if n.NoticeTTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(n.NoticeTTLSeconds) * time.Second
}

// IdleTimeout returns how long an unused workspace is kept.
func (w WorkspaceConfig) IdleTimeout() time.Duration {
	if w.IdleMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(w.IdleMinutes) * time.Minute
}

// SweepInterval returns how often idle workspaces are collected.
func (w WorkspaceConfig) SweepInterval() time.Duration {
	if w.SweepSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(w.SweepSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
