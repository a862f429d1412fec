package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/temoto/robotstxt"
)

// DefaultRobotsTTL is how long fetched robots.txt rules are cached per host.
const DefaultRobotsTTL = 30 * time.Minute

// Ensure RobotsPolicy implements casegen.LinkPolicy at compile time.
var _ casegen.LinkPolicy = (*RobotsPolicy)(nil)

// RobotsPolicy permits URLs according to each host's robots.txt.
// Rules are fetched lazily and cached per host. Hosts whose robots.txt
// cannot be fetched are allowed, and that answer is cached like fetched rules.
type RobotsPolicy struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	cache map[string]robotsEntry
}

type robotsEntry struct {
	fetched time.Time
	// rules is nil when robots.txt could not be fetched.
	rules *robotstxt.RobotsData
}

// RobotsOption configures a RobotsPolicy.
type RobotsOption func(*RobotsPolicy)

// WithRobotsClient sets the HTTP client used to fetch robots.txt.
func WithRobotsClient(c *http.Client) RobotsOption {
	return func(p *RobotsPolicy) {
		p.client = c
	}
}

// WithRobotsTTL sets the cache lifetime of fetched rules.
func WithRobotsTTL(d time.Duration) RobotsOption {
	return func(p *RobotsPolicy) {
		p.ttl = d
	}
}

// NewRobotsPolicy creates a RobotsPolicy that evaluates rules for userAgent,
// falling back to the "*" group.
func NewRobotsPolicy(userAgent string, opts ...RobotsOption) *RobotsPolicy {
	p := &RobotsPolicy{
		client:    &http.Client{Timeout: DefaultRenderTimeout},
		userAgent: userAgent,
		ttl:       DefaultRobotsTTL,
		now:       time.Now,
		cache:     make(map[string]robotsEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Allowed reports whether rawURL may be visited. Relative or unparsable URLs
// are never allowed.
func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() {
		return false
	}

	rules := p.rules(ctx, target)
	if rules == nil {
		return true
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return rules.TestAgent(path, p.userAgent)
}

// rules returns the cached or freshly fetched rules for the target's host.
// It returns nil when robots.txt is unavailable. Failures are cached unless
// ctx was cancelled.
func (p *RobotsPolicy) rules(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	host := strings.ToLower(target.Host)

	p.mu.RLock()
	entry, ok := p.cache[host]
	p.mu.RUnlock()
	if ok && p.now().Sub(entry.fetched) < p.ttl {
		return entry.rules
	}

	data, err := p.fetch(ctx, target)
	if err != nil && ctx.Err() != nil {
		return nil
	}

	p.mu.Lock()
	p.cache[host] = robotsEntry{fetched: p.now(), rules: data}
	p.mu.Unlock()

	return data
}

func (p *RobotsPolicy) fetch(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	// FromResponse allows everything on 4xx and disallows everything on 5xx.
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
