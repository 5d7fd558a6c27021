// Package config loads server configuration from a TOML file with
// environment overrides. API keys are never read from the file; they come
// from the environment only.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full server configuration.
type Config struct {
	Bind        string  `toml:"bind"`
	BaseURL     string  `toml:"base_url"`
	FeedJSON    string  `toml:"feed_json"`
	DownloadDir string  `toml:"download_dir"`
	LLM         LLM     `toml:"llm"`
	Profile     Profile `toml:"profile"`
}

// LLM configures the structured invocation layer.
type LLM struct {
	Provider              string `toml:"provider"`
	Model                 string `toml:"model"`
	MaxOutputTokens       int    `toml:"max_output_tokens"`
	MaxToolRounds         int    `toml:"max_tool_rounds"`
	TimeoutSeconds        int    `toml:"timeout_seconds"`
	RecipeCacheTTLSeconds int    `toml:"recipe_cache_ttl_seconds"`
	RecipeCacheMaxSize    int    `toml:"recipe_cache_max_size"`
}

// Address is the demo profile's delivery address.
type Address struct {
	Line1 string `toml:"line1" json:"line1"`
	City  string `toml:"city" json:"city"`
	State string `toml:"state" json:"state"`
	Zip   string `toml:"zip" json:"zip"`
}

// Profile is the fixed demo user returned by the profile route.
type Profile struct {
	UserID              string  `toml:"user_id" json:"user_id"`
	Name                string  `toml:"name" json:"name"`
	CreditsBalanceCents int     `toml:"credits_balance_cents" json:"credits_balance_cents"`
	DefaultAddress      Address `toml:"default_address" json:"default_address"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Bind:        ":8000",
		FeedJSON:    "data/videos.json",
		DownloadDir: "",
		LLM: LLM{
			Provider:              "anthropic",
			Model:                 "claude-haiku-4-5",
			MaxOutputTokens:       1024,
			MaxToolRounds:         2,
			TimeoutSeconds:        30,
			RecipeCacheTTLSeconds: 900,
			RecipeCacheMaxSize:    256,
		},
		Profile: Profile{
			UserID:              "u1",
			Name:                "Alex",
			CreditsBalanceCents: 2500,
			DefaultAddress: Address{
				Line1: "123 Demo St",
				City:  "San Francisco",
				State: "CA",
				Zip:   "94107",
			},
		},
	}
}

// Load reads a TOML config file over the defaults and then applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// Run on defaults.
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HANGRY_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("FEED_JSON"); v != "" {
		cfg.FeedJSON = v
	}
	if v := os.Getenv("DOWNLOAD_DIR"); v != "" {
		cfg.DownloadDir = v
	}
	if v := os.Getenv("HANGRY_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("HANGRY_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("HANGRY_LLM_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLM.TimeoutSeconds = n
		}
	}
}
