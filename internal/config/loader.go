package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TUBEFOCUS_"

// Load reads configuration from an optional YAML file, then overrides with
// TUBEFOCUS_* environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (TUBEFOCUS_SERVER_PORT, TUBEFOCUS_GEMINI_API_KEY, ...)
//  2. YAML config file
//  3. Defaults
//
// An empty configPath skips the file layer entirely.
//
// # Environment Variable Mapping
//
// Variables are stripped of the TUBEFOCUS_ prefix, lowercased, and split on
// the first underscore into section and field:
//
//	TUBEFOCUS_SERVER_PORT        -> server.port
//	TUBEFOCUS_GEMINI_API_KEY     -> gemini.api_key
//	TUBEFOCUS_COACH_MAX_SESSIONS -> coach.max_sessions
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", transformEnv), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// transformEnv maps TUBEFOCUS_SECTION_FIELD_NAME to section.field_name.
// Split on the first underscore only; field names keep theirs.
func transformEnv(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
