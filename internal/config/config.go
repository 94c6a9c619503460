// Package config provides configuration loading for tubefocusd.
package config

import (
	"fmt"
	"time"
)

// Config is the full daemon configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	YouTube   YouTubeConfig   `koanf:"youtube"`
	Coach     CoachConfig     `koanf:"coach"`
	Librarian LibrarianConfig `koanf:"librarian"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	APIKey          Secret   `koanf:"api_key"`
	ReadTimeout     Duration `koanf:"read_timeout"`
	WriteTimeout    Duration `koanf:"write_timeout"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// GeminiConfig configures the generative model client.
type GeminiConfig struct {
	APIKey         Secret   `koanf:"api_key"`
	Model          string   `koanf:"model"`
	EmbeddingModel string   `koanf:"embedding_model"`
	BaseURL        string   `koanf:"base_url"`
	Timeout        Duration `koanf:"timeout"`
	MaxRetries     int      `koanf:"max_retries"`
}

// YouTubeConfig configures the video metadata client.
type YouTubeConfig struct {
	APIKey   Secret   `koanf:"api_key"`
	BaseURL  string   `koanf:"base_url"`
	Timeout  Duration `koanf:"timeout"`
	CacheTTL Duration `koanf:"cache_ttl"`
}

// CoachConfig configures the session coach.
type CoachConfig struct {
	Cooldown       Duration `koanf:"cooldown"`
	MaxEvents      int      `koanf:"max_events"`
	MaxSessions    int      `koanf:"max_sessions"`
	MessageTimeout Duration `koanf:"message_timeout"`
}

// LibrarianConfig configures the watched-video library.
type LibrarianConfig struct {
	// Path is the persistence directory. Empty disables persistence.
	Path string `koanf:"path"`
	// Compress enables gzip compression for stored vectors.
	Compress bool `koanf:"compress"`
}

// applyDefaults fills in unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(30 * time.Second)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = Duration(60 * time.Second)
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Gemini.EmbeddingModel == "" {
		cfg.Gemini.EmbeddingModel = "text-embedding-004"
	}
	if cfg.Gemini.Timeout == 0 {
		cfg.Gemini.Timeout = Duration(30 * time.Second)
	}
	if cfg.Gemini.MaxRetries == 0 {
		cfg.Gemini.MaxRetries = 3
	}
	if cfg.YouTube.Timeout == 0 {
		cfg.YouTube.Timeout = Duration(15 * time.Second)
	}
	if cfg.YouTube.CacheTTL == 0 {
		cfg.YouTube.CacheTTL = Duration(24 * time.Hour)
	}
	if cfg.Coach.Cooldown == 0 {
		cfg.Coach.Cooldown = Duration(2 * time.Minute)
	}
	if cfg.Coach.MaxEvents == 0 {
		cfg.Coach.MaxEvents = 200
	}
	if cfg.Coach.MaxSessions == 0 {
		cfg.Coach.MaxSessions = 1024
	}
	if cfg.Coach.MessageTimeout == 0 {
		cfg.Coach.MessageTimeout = Duration(10 * time.Second)
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	if !c.Gemini.APIKey.IsSet() {
		return fmt.Errorf("gemini api key is required (TUBEFOCUS_GEMINI_API_KEY)")
	}
	if !c.YouTube.APIKey.IsSet() {
		return fmt.Errorf("youtube api key is required (TUBEFOCUS_YOUTUBE_API_KEY)")
	}
	if c.Coach.MaxEvents < 1 {
		return fmt.Errorf("coach max_events must be positive, got %d", c.Coach.MaxEvents)
	}
	if c.Coach.MaxSessions < 1 {
		return fmt.Errorf("coach max_sessions must be positive, got %d", c.Coach.MaxSessions)
	}
	return nil
}
