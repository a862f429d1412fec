package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/casegen"
)

// Ensure LoggingNarrator implements casegen.Narrator.
var _ casegen.Narrator = (*LoggingNarrator)(nil)

// LoggingNarrator wraps a Narrator with logging.
type LoggingNarrator struct {
	next   casegen.Narrator
	logger *slog.Logger
}

// NewLoggingNarrator creates a new LoggingNarrator.
func NewLoggingNarrator(next casegen.Narrator, logger *slog.Logger) *LoggingNarrator {
	return &LoggingNarrator{next: next, logger: logger}
}

// Narrate logs the original and narrated names.
func (n *LoggingNarrator) Narrate(ctx context.Context, tc *casegen.TestCase) (out *casegen.Narrative, err error) {
	defer func(begin time.Time) {
		var from, to string
		if tc != nil {
			from = tc.Name
		}
		if out != nil {
			to = out.Name
		}
		n.logger.Info("narrate",
			"case", from,
			"name", to,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return n.next.Narrate(ctx, tc)
}
