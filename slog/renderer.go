// Package slog provides logging decorators for casegen services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/casegen"
)

// Ensure LoggingRenderer implements casegen.Renderer.
var _ casegen.Renderer = (*LoggingRenderer)(nil)

// LoggingRenderer wraps a Renderer with logging.
type LoggingRenderer struct {
	next   casegen.Renderer
	logger *slog.Logger
}

// NewLoggingRenderer creates a new LoggingRenderer.
func NewLoggingRenderer(next casegen.Renderer, logger *slog.Logger) *LoggingRenderer {
	return &LoggingRenderer{next: next, logger: logger}
}

// Render logs the URL being rendered and delegates to the wrapped renderer.
func (r *LoggingRenderer) Render(ctx context.Context, url string) (res *casegen.RenderResult, err error) {
	defer func(begin time.Time) {
		var bytes, status int
		if res != nil {
			bytes, status = len(res.Content), res.StatusCode
		}
		r.logger.Info("render",
			"url", url,
			"status", status,
			"bytes", bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Render(ctx, url)
}

// Close delegates to the wrapped renderer.
func (r *LoggingRenderer) Close() error {
	return r.next.Close()
}
