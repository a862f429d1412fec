package main

import (
	"fmt"
	"os"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/dedup"
	"github.com/fwojciec/casegen/explore"
	"github.com/fwojciec/casegen/export"
	casegenhttp "github.com/fwojciec/casegen/http"
	"gopkg.in/yaml.v3"
)

// Config holds exploration and export settings. It is loaded from an
// optional YAML file and then overridden by command-line flags.
type Config struct {
	Strategy casegen.StrategyName `yaml:"strategy"`
	MaxDepth int                  `yaml:"maxDepth"`
	MaxPages int                  `yaml:"maxPages"`

	// Static fetches pages over plain HTTP instead of headless Chrome.
	Static    bool   `yaml:"static"`
	UserAgent string `yaml:"userAgent"`

	// RespectRobots skips URLs disallowed by the host's robots.txt.
	RespectRobots bool `yaml:"respectRobots"`

	// RateLimit is the number of requests per second per host. Zero
	// disables throttling.
	RateLimit float64 `yaml:"rateLimit"`

	SimilarityThreshold float64 `yaml:"similarityThreshold"`
	Merge               bool    `yaml:"merge"`

	// Model and NarrateConcurrency configure Gemini narration, which is
	// enabled by GEMINI_API_KEY.
	Model              string `yaml:"model"`
	NarrateConcurrency int    `yaml:"narrateConcurrency"`

	Format    export.Format `yaml:"format"`
	OutputDir string        `yaml:"outputDir"`

	Explore explore.Config `yaml:"explore"`
}

// DefaultConfig returns the settings used when neither a file nor a flag
// sets a value.
func DefaultConfig() Config {
	return Config{
		Strategy:            casegen.StrategyBreadthFirst,
		MaxDepth:            3,
		MaxPages:            50,
		UserAgent:           casegenhttp.DefaultUserAgent,
		RespectRobots:       true,
		RateLimit:           1,
		SimilarityThreshold: dedup.DefaultThreshold,
		NarrateConcurrency:  4,
		Format:              export.Markdown,
		Explore: explore.Config{
			PageTimeout:   explore.DefaultPageTimeout,
			MaxPageErrors: explore.DefaultMaxPageErrors,
		},
	}
}

// LoadConfig reads path over DefaultConfig. Keys missing from the file keep
// their defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate returns an error if the config contains invalid values.
// Budgets and the strategy name are validated when a session starts.
func (c Config) Validate() error {
	if !export.Valid(c.Format) {
		return casegen.Errorf(casegen.EINVALID, "unknown export format %q", c.Format)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return casegen.Errorf(casegen.EINVALID, "similarity threshold must be between 0 and 1")
	}
	if c.RateLimit < 0 {
		return casegen.Errorf(casegen.EINVALID, "rate limit must not be negative")
	}
	if c.NarrateConcurrency < 0 {
		return casegen.Errorf(casegen.EINVALID, "narrate concurrency must not be negative")
	}
	return nil
}
