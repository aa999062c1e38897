// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/pr-warden/internal/logger"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// GitHubConfig holds GitHub App and token credentials.
type GitHubConfig struct {
	AppID          int64
	WebhookSecret  string
	PrivateKeyPath string
	Token          string
}

// AIConfig holds model provider settings for the direct-API review path.
type AIConfig struct {
	Provider        string
	GeneratorModel  string
	GeminiAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string
	EmbedderModel   string
	QdrantHost      string
}

// ReviewConfig holds the orchestration pipeline settings. WorkspaceRoot is
// injected here once at process start; nothing else reads an ambient
// temp-directory global.
type ReviewConfig struct {
	WorkspaceRoot     string
	CloneDepth        int
	ToolCommand       string
	ToolArgs          []string
	ToolTimeout       time.Duration
	MaxDiffChars      int
	MaxWorkers        int
	IndexPollInterval time.Duration
	IndexMaxAttempts  int
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig
	GitHub   GitHubConfig
	AI       AIConfig
	Review   ReviewConfig
	Database DBConfig
	Logging  logger.Config
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("WORKSPACE_ROOT", filepath.Join(os.TempDir(), "pr-warden"))
	viper.SetDefault("CLONE_DEPTH", 50)
	viper.SetDefault("REVIEW_TOOL_COMMAND", "gemini")
	viper.SetDefault("REVIEW_TOOL_TIMEOUT", "120s")
	viper.SetDefault("MAX_DIFF_CHARS", 30000)
	viper.SetDefault("MAX_WORKERS", 5)
	viper.SetDefault("INDEX_POLL_INTERVAL", "2s")
	viper.SetDefault("INDEX_MAX_ATTEMPTS", 30)
	viper.SetDefault("LLM_PROVIDER", "gemini")
	viper.SetDefault("GENERATOR_MODEL_NAME", "gemini-2.5-flash")
	viper.SetDefault("EMBEDDER_MODEL_NAME", "nomic-embed-text")
	viper.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	viper.SetDefault("QDRANT_HOST", "localhost:6334")
	viper.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/pr-warden-app.private-key.pem")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "warden")
	viper.SetDefault("DB_NAME", "pr_warden")
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	toolTimeout, err := time.ParseDuration(viper.GetString("REVIEW_TOOL_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid REVIEW_TOOL_TIMEOUT: %w", err)
	}
	pollInterval, err := time.ParseDuration(viper.GetString("INDEX_POLL_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid INDEX_POLL_INTERVAL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		GitHub: GitHubConfig{
			AppID:          viper.GetInt64("GITHUB_APP_ID"),
			WebhookSecret:  viper.GetString("GITHUB_WEBHOOK_SECRET"),
			PrivateKeyPath: viper.GetString("GITHUB_PRIVATE_KEY_PATH"),
			Token:          viper.GetString("GITHUB_TOKEN"),
		},
		AI: AIConfig{
			Provider:        viper.GetString("LLM_PROVIDER"),
			GeneratorModel:  viper.GetString("GENERATOR_MODEL_NAME"),
			GeminiAPIKey:    viper.GetString("GEMINI_API_KEY"),
			AnthropicAPIKey: viper.GetString("ANTHROPIC_API_KEY"),
			OllamaHost:      viper.GetString("OLLAMA_HOST"),
			EmbedderModel:   viper.GetString("EMBEDDER_MODEL_NAME"),
			QdrantHost:      viper.GetString("QDRANT_HOST"),
		},
		Review: ReviewConfig{
			WorkspaceRoot:     viper.GetString("WORKSPACE_ROOT"),
			CloneDepth:        viper.GetInt("CLONE_DEPTH"),
			ToolCommand:       viper.GetString("REVIEW_TOOL_COMMAND"),
			ToolArgs:          viper.GetStringSlice("REVIEW_TOOL_ARGS"),
			ToolTimeout:       toolTimeout,
			MaxDiffChars:      viper.GetInt("MAX_DIFF_CHARS"),
			MaxWorkers:        viper.GetInt("MAX_WORKERS"),
			IndexPollInterval: pollInterval,
			IndexMaxAttempts:  viper.GetInt("INDEX_MAX_ATTEMPTS"),
		},
		Database: DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		Logging: logger.Config{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
	}

	if err := cfg.Review.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the review pipeline bounds.
func (c *ReviewConfig) Validate() error {
	if c.WorkspaceRoot == "" {
		return fmt.Errorf("WORKSPACE_ROOT must not be empty")
	}
	if c.CloneDepth <= 0 {
		return fmt.Errorf("CLONE_DEPTH must be positive, got %d", c.CloneDepth)
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("REVIEW_TOOL_TIMEOUT must be positive, got %s", c.ToolTimeout)
	}
	if c.MaxDiffChars <= 0 {
		return fmt.Errorf("MAX_DIFF_CHARS must be positive, got %d", c.MaxDiffChars)
	}
	if c.IndexMaxAttempts <= 0 {
		return fmt.Errorf("INDEX_MAX_ATTEMPTS must be positive, got %d", c.IndexMaxAttempts)
	}
	return nil
}

// ValidateServer checks the fields only the webhook server requires.
func (c *Config) ValidateServer() error {
	if c.GitHub.AppID == 0 {
		return fmt.Errorf("GITHUB_APP_ID must be set")
	}
	if c.GitHub.WebhookSecret == "" {
		return fmt.Errorf("GITHUB_WEBHOOK_SECRET must be set")
	}
	return nil
}
