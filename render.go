package casegen

import "context"

// Viewport is the size of the rendering surface in CSS pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box is the on-screen geometry of an element.
type Box struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Visible bool    `json:"visible"`
}

// RenderResult holds the outcome of loading a page.
type RenderResult struct {
	StatusCode int
	Content    string
	FinalURL   string

	// Viewport and Boxes are populated only by renderers that lay the page
	// out. Boxes is keyed by absolute link URL.
	Viewport Viewport
	Boxes    map[string]Box
}

// Renderer loads pages.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Renderer interface {
	// Render navigates to the URL, waits for the page to settle and returns
	// the rendered content. The context bounds the load; errors carry the
	// ETIMEOUT code when the deadline passes and ERENDER otherwise.
	Render(ctx context.Context, url string) (*RenderResult, error)

	// Close releases rendering resources.
	// Must be called when the Renderer is no longer needed.
	Close() error
}

// LinkPolicy decides whether a site permits visiting a URL (e.g. robots.txt).
type LinkPolicy interface {
	Allowed(ctx context.Context, url string) bool
}

// DomainLimiter throttles requests per host.
type DomainLimiter interface {
	// Wait blocks until a request to host is allowed or ctx is done.
	Wait(ctx context.Context, host string) error
}
