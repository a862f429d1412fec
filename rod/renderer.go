// Package rod renders pages with headless Chrome through go-rod, so
// JavaScript-built content and element geometry are available to the
// exploration loop.
package rod

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultRenderTimeout bounds a single page load when the caller's context
// has no earlier deadline.
const DefaultRenderTimeout = 10 * time.Second

// DefaultViewport is the emulated window size.
var DefaultViewport = casegen.Viewport{Width: 1280, Height: 800}

// Ensure Renderer implements casegen.Renderer at compile time.
var _ casegen.Renderer = (*Renderer)(nil)

// Renderer loads pages in headless Chrome and reports the rendered HTML,
// the final URL, the document status and the on-screen boxes of links.
// Renderer is safe for concurrent use by multiple goroutines.
type Renderer struct {
	manager  *BrowserManager
	timeout  time.Duration
	viewport casegen.Viewport
	closed   atomic.Bool
}

// Option configures a Renderer.
type Option func(*rendererConfig)

type rendererConfig struct {
	timeout  time.Duration
	viewport casegen.Viewport
	manager  []ManagerOption
}

// WithRenderTimeout sets the per-page load timeout.
// Defaults to DefaultRenderTimeout if not specified.
func WithRenderTimeout(d time.Duration) Option {
	return func(c *rendererConfig) {
		c.timeout = d
	}
}

// WithViewport sets the emulated window size.
func WithViewport(v casegen.Viewport) Option {
	return func(c *rendererConfig) {
		c.viewport = v
	}
}

// WithManagerOptions passes options to the underlying BrowserManager.
func WithManagerOptions(opts ...ManagerOption) Option {
	return func(c *rendererConfig) {
		c.manager = append(c.manager, opts...)
	}
}

// NewRenderer launches a headless Chrome browser.
// Close must be called when the Renderer is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := rendererConfig{
		timeout:  DefaultRenderTimeout,
		viewport: DefaultViewport,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.manager...)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		manager:  manager,
		timeout:  cfg.timeout,
		viewport: cfg.viewport,
	}, nil
}

// Render navigates to the URL in a fresh tab, waits for the load event and
// collects the page.
func (r *Renderer) Render(ctx context.Context, url string) (*casegen.RenderResult, error) {
	if r.closed.Load() {
		return nil, casegen.Errorf(casegen.EINVALID, "renderer is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, renderError(url, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	page, err := r.manager.Browser().Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, renderError(url, err)
	}
	defer page.Close()
	defer r.manager.IncrementPageCount()

	// Set context for all subsequent operations
	page = page.Context(ctx)

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             int(r.viewport.Width),
		Height:            int(r.viewport.Height),
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, renderError(url, err)
	}

	if err := page.Navigate(url); err != nil {
		return nil, renderError(url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, renderError(url, err)
	}

	html, err := page.Eval(serializeJS)
	if err != nil {
		return nil, renderError(url, err)
	}

	layout, err := page.Eval(layoutJS)
	if err != nil {
		return nil, renderError(url, err)
	}
	var snap pageLayout
	if err := json.Unmarshal([]byte(layout.Value.Str()), &snap); err != nil {
		return nil, casegen.Errorf(casegen.ERENDER, "decode layout of %s: %v", url, err)
	}

	finalURL := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	status := snap.Status
	if status == 0 {
		status = 200
	}
	if status >= 400 {
		return nil, casegen.Errorf(casegen.ERENDER, "HTTP %d for %s", status, url)
	}

	boxes := make(map[string]casegen.Box, len(snap.Links))
	for _, l := range snap.Links {
		if _, ok := boxes[l.Href]; ok {
			continue
		}
		boxes[l.Href] = casegen.Box{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height, Visible: l.Visible}
	}

	return &casegen.RenderResult{
		StatusCode: status,
		Content:    html.Value.Str(),
		FinalURL:   finalURL,
		Viewport:   casegen.Viewport{Width: snap.Width, Height: snap.Height},
		Boxes:      boxes,
	}, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (r *Renderer) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (r *Renderer) LauncherPID() int {
	return r.manager.LauncherPID()
}

type pageLayout struct {
	Status int          `json:"status"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Links  []linkLayout `json:"links"`
}

type linkLayout struct {
	Href    string  `json:"href"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Visible bool    `json:"visible"`
}

func renderError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return casegen.Errorf(casegen.ETIMEOUT, "timed out loading %s", url)
	}
	return casegen.Errorf(casegen.ERENDER, "load %s: %v", url, err)
}

// serializeJS returns the document HTML with open shadow roots inlined as
// declarative shadow DOM templates.
const serializeJS = `() => {
	const roots = [];
	const walk = (root) => {
		root.querySelectorAll('*').forEach((el) => {
			if (el.shadowRoot) {
				roots.push(el.shadowRoot);
				walk(el.shadowRoot);
			}
		});
	};
	walk(document);
	const html = document.documentElement;
	if (roots.length === 0 || typeof html.getHTML !== 'function') {
		return html.outerHTML;
	}
	return '<html>' + html.getHTML({ shadowRoots: roots }) + '</html>';
}`

// layoutJS reports the navigation status, the viewport and the bounding
// box of every link, keyed by its absolute URL without fragment.
const layoutJS = `() => {
	const nav = performance.getEntriesByType('navigation')[0];
	const links = [];
	document.querySelectorAll('a[href]').forEach((a) => {
		const r = a.getBoundingClientRect();
		const style = window.getComputedStyle(a);
		links.push({
			href: a.href.split('#')[0],
			x: r.left + window.scrollX,
			y: r.top + window.scrollY,
			width: r.width,
			height: r.height,
			visible: r.width > 0 && r.height > 0 && style.visibility !== 'hidden' && style.display !== 'none',
		});
	});
	return JSON.stringify({
		status: (nav && nav.responseStatus) || 0,
		width: window.innerWidth,
		height: window.innerHeight,
		links: links,
	});
}`
