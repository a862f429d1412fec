package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/explore"
)

// Run executes the explore command: it runs one session to completion,
// generates and exports its cases and leaves both persisted.
// An interrupt stops the crawl and generates cases from what was explored.
func (c *ExploreCmd) Run(deps *Dependencies) error {
	cfg := deps.Config

	id, err := deps.Registry.Start(deps.Ctx, explore.StartRequest{
		URL:      c.URL,
		Strategy: cfg.Strategy,
		MaxDepth: cfg.MaxDepth,
		MaxPages: cfg.MaxPages,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", casegen.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stderr, "Exploring %s (session %s, %s, depth %d, up to %d pages)\n",
		c.URL, id, cfg.Strategy, cfg.MaxDepth, cfg.MaxPages)

	if err := deps.Registry.Wait(deps.Ctx, id); err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Fprintln(deps.Stderr, "Interrupted, stopping after the current page...")
		if err := deps.Registry.Stop(id); err != nil {
			return err
		}
		if err := deps.Registry.Wait(context.Background(), id); err != nil {
			return err
		}
	}

	// Generation is local work apart from narration; let it finish after
	// an interrupt.
	ctx := context.WithoutCancel(deps.Ctx)

	results, err := deps.Registry.Results(id)
	if err != nil {
		return err
	}
	if results.Session.Status == casegen.StatusError {
		if strings.Contains(results.Session.LastError, "browser") {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or use --static")
		}
		return fmt.Errorf("exploration failed: %s", results.Session.LastError)
	}

	set, err := deps.Registry.GenerateCases(ctx, id)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", casegen.ErrorMessage(err))
		return err
	}

	data, err := deps.Registry.ExportCases(ctx, id, cfg.Format)
	if err != nil {
		return err
	}
	if err := writeReport(ctx, deps, id, data); err != nil {
		return err
	}

	s := results.Session
	fmt.Fprintf(deps.Stderr, "Explored %d pages (%d failed), found %d elements, generated %d cases\n",
		s.PagesExplored, s.PagesFailed, s.ElementsFound, len(set.Cases))
	if set.Coverage != nil {
		fmt.Fprintf(deps.Stderr, "Coverage: %.1f%% (%s)\n", set.Coverage.Average, set.Coverage.Status)
	}
	return nil
}

// writeReport prints data to stdout, or stores it with the ReportWriter when
// an output directory is configured.
func writeReport(ctx context.Context, deps *Dependencies, sessionID string, data []byte) error {
	if deps.Reports == nil {
		_, err := deps.Stdout.Write(data)
		return err
	}
	name := fmt.Sprintf("casegen-%s.%s", sessionID, deps.Config.Format.Extension())
	path, err := deps.Reports.Write(ctx, name, data)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "Report written to %s\n", path)
	return nil
}
