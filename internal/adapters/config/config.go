package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"marketscope/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	AI            AIConfig
	Search        SearchConfig
	Twitter       TwitterConfig
	Agents        AgentsConfig
	ErrorTracking ErrorTrackingConfig
	Server        ServerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"marketscope"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a Redis host was configured.
// The change feed degrades to a no-op without one.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// AIConfig holds generative provider keys. Every key is optional: a missing
// key degrades that provider's path to the next fallback tier instead of
// failing the pipeline.
type AIConfig struct {
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY"`
	GeminiKey       string        `envconfig:"GEMINI_API_KEY"`
	GroqKey         string        `envconfig:"GROQ_API_KEY"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"openai"`
	RequestTimeout  time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"60s"`
	RequestsPerMin  int           `envconfig:"AI_REQUESTS_PER_MINUTE" default:"60"`
	EmbeddingModel  string        `envconfig:"AI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
}

type SearchConfig struct {
	GoogleAPIKey   string `envconfig:"GOOGLE_SEARCH_API_KEY"`
	GoogleEngineID string `envconfig:"GOOGLE_SEARCH_ENGINE_ID"`
}

func (c SearchConfig) Enabled() bool {
	return c.GoogleAPIKey != "" && c.GoogleEngineID != ""
}

type TwitterConfig struct {
	ConsumerKey       string `envconfig:"TWITTER_CONSUMER_KEY"`
	ConsumerSecret    string `envconfig:"TWITTER_CONSUMER_SECRET"`
	AccessToken       string `envconfig:"TWITTER_ACCESS_TOKEN"`
	AccessTokenSecret string `envconfig:"TWITTER_ACCESS_TOKEN_SECRET"`
}

func (c TwitterConfig) Enabled() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" &&
		c.AccessToken != "" && c.AccessTokenSecret != ""
}

// AgentsConfig controls the research pipeline runtime
type AgentsConfig struct {
	AgentTimeout   time.Duration `envconfig:"AGENT_TIMEOUT" default:"90s"`
	InsightTimeout time.Duration `envconfig:"INSIGHT_TIMEOUT" default:"120s"`
	ChunkSize      int           `envconfig:"RAG_CHUNK_SIZE" default:"500"`
	SearchLimit    int           `envconfig:"RAG_SEARCH_LIMIT" default:"5"`
	MatchThreshold float64       `envconfig:"RAG_MATCH_THRESHOLD" default:"0.7"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type ServerConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8080"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
