package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/crawl"
	"github.com/fwojciec/casegen/explore"
	"github.com/fwojciec/casegen/export"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Config   Config
	Sessions casegen.SessionService
	CaseSets casegen.CaseSetService
	Reports  casegen.ReportWriter
	Registry *explore.Registry
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config string `short:"c" type:"path" help:"YAML config file"`
	Debug  bool   `help:"Log debug output to stderr"`

	Explore ExploreCmd `cmd:"" help:"Explore a web application and generate test cases"`
	List    ListCmd    `cmd:"" help:"List stored exploration sessions"`
	Show    ShowCmd    `cmd:"" help:"Export the test cases of a stored session"`
}

// ExploreCmd is the "explore" subcommand. Unset flags fall back to the
// config file and then to DefaultConfig.
type ExploreCmd struct {
	URL       string         `arg:"" help:"Start URL of the application"`
	Strategy  *string        `short:"s" help:"Navigation strategy: bfs, dfs, priority, adaptive"`
	MaxDepth  *int           `short:"d" help:"Maximum link depth from the start URL"`
	MaxPages  *int           `short:"n" help:"Maximum number of pages to visit"`
	Format    *string        `short:"f" help:"Export format: json, yaml, markdown, text"`
	Output    *string        `short:"o" type:"path" help:"Directory to write the report to (default: stdout)"`
	Static    *bool          `help:"Fetch pages over HTTP without a browser"`
	Robots    *bool          `negatable:"" help:"Respect robots.txt"`
	Rate      *float64       `help:"Requests per second per host (0 disables throttling)"`
	Threshold *float64       `help:"Similarity threshold for deduplication"`
	Merge     *bool          `help:"Merge cases whose steps are contained in a related case"`
	Timeout   *time.Duration `help:"Timeout for a single page load"`
	Retry     *bool          `help:"Retry failed page loads with backoff (1s, 2s, 4s)"`
}

// Apply overrides cfg with every flag that was set.
func (c *ExploreCmd) Apply(cfg Config) Config {
	if c.Strategy != nil {
		cfg.Strategy = casegen.StrategyName(*c.Strategy)
	}
	if c.MaxDepth != nil {
		cfg.MaxDepth = *c.MaxDepth
	}
	if c.MaxPages != nil {
		cfg.MaxPages = *c.MaxPages
	}
	if c.Format != nil {
		cfg.Format = export.Format(*c.Format)
	}
	if c.Output != nil {
		cfg.OutputDir = *c.Output
	}
	if c.Static != nil {
		cfg.Static = *c.Static
	}
	if c.Robots != nil {
		cfg.RespectRobots = *c.Robots
	}
	if c.Rate != nil {
		cfg.RateLimit = *c.Rate
	}
	if c.Threshold != nil {
		cfg.SimilarityThreshold = *c.Threshold
	}
	if c.Merge != nil {
		cfg.Merge = *c.Merge
	}
	if c.Timeout != nil {
		cfg.Explore.PageTimeout = *c.Timeout
	}
	if c.Retry != nil {
		cfg.Explore.RetryDelays = nil
		if *c.Retry {
			cfg.Explore.RetryDelays = crawl.DefaultRetryDelays()
		}
	}
	return cfg
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Status string `help:"Only show sessions with this status"`
	Limit  int    `short:"l" default:"20" help:"Maximum number of sessions to show"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID     string  `arg:"" help:"Session ID"`
	Format *string `short:"f" help:"Export format: json, yaml, markdown, text"`
	Output *string `short:"o" type:"path" help:"Directory to write the report to (default: stdout)"`
}

// Apply overrides cfg with every flag that was set.
func (c *ShowCmd) Apply(cfg Config) Config {
	if c.Format != nil {
		cfg.Format = export.Format(*c.Format)
	}
	if c.Output != nil {
		cfg.OutputDir = *c.Output
	}
	return cfg
}
