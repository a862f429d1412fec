package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/casegen"
)

// DefaultRetryDelays returns backoff delays for render retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RenderWithRetry renders url, retrying once per entry in delays after
// waiting that long. A nil or empty delays slice means a single attempt.
// Each attempt gets its own timeout when timeout is positive.
func RenderWithRetry(
	ctx context.Context,
	r casegen.Renderer,
	url string,
	timeout time.Duration,
	delays []time.Duration,
	logger *slog.Logger,
) (*casegen.RenderResult, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		res, err := renderOnce(ctx, r, url, timeout)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if logger != nil {
			logger.Debug("retry render", "url", url, "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}

func renderOnce(ctx context.Context, r casegen.Renderer, url string, timeout time.Duration) (*casegen.RenderResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return r.Render(ctx, url)
}
