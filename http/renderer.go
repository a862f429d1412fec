// Package http provides HTTP-based adapters: a Renderer for static sites
// that don't require JavaScript rendering and a robots.txt LinkPolicy.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/casegen"
)

// DefaultRenderTimeout is the default timeout for HTTP requests.
// Kept consistent with rod.DefaultRenderTimeout.
const DefaultRenderTimeout = 10 * time.Second

// DefaultUserAgent identifies requests made by casegen.
const DefaultUserAgent = "casegen/1.0"

// maxBodySize caps the bytes read from a single response.
const maxBodySize = 10 << 20

// Ensure Renderer implements casegen.Renderer at compile time.
var _ casegen.Renderer = (*Renderer)(nil)

// Renderer retrieves HTML content from URLs using HTTP requests.
// Unlike rod.Renderer, this does not execute JavaScript, so results carry no
// viewport or element geometry.
type Renderer struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultRenderTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		r.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(r *Renderer) {
		r.userAgent = ua
	}
}

// NewRenderer creates a new HTTP-based Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		timeout:   DefaultRenderTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.client = &http.Client{
		Timeout: r.timeout,
	}

	return r
}

// Render retrieves the HTML content from the given URL. Redirects are
// followed and reported through FinalURL. Status codes of 400 and above are
// render errors.
func (r *Renderer) Render(ctx context.Context, url string) (*casegen.RenderResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, casegen.Errorf(casegen.ERENDER, "build request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, requestError(ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, casegen.Errorf(casegen.ERENDER, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, requestError(ctx, url, err)
	}

	return &casegen.RenderResult{
		StatusCode: resp.StatusCode,
		Content:    string(body),
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

// Close releases resources. For the HTTP renderer this is a no-op since
// http.Client doesn't require explicit cleanup.
func (r *Renderer) Close() error {
	return nil
}

func requestError(ctx context.Context, url string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		return casegen.Errorf(casegen.ETIMEOUT, "timed out loading %s", url)
	}
	return casegen.Errorf(casegen.ERENDER, "load %s: %v", url, err)
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
