package mock

import (
	"context"

	"github.com/fwojciec/casegen"
)

var _ casegen.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of casegen.Renderer.
type Renderer struct {
	RenderFn func(ctx context.Context, url string) (*casegen.RenderResult, error)
	CloseFn  func() error
}

func (r *Renderer) Render(ctx context.Context, url string) (*casegen.RenderResult, error) {
	return r.RenderFn(ctx, url)
}

func (r *Renderer) Close() error {
	if r.CloseFn == nil {
		return nil
	}
	return r.CloseFn()
}

var _ casegen.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of casegen.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, host string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, host string) error {
	return l.WaitFn(ctx, host)
}

var _ casegen.LinkPolicy = (*LinkPolicy)(nil)

// LinkPolicy is a mock implementation of casegen.LinkPolicy.
type LinkPolicy struct {
	AllowedFn func(ctx context.Context, url string) bool
}

func (p *LinkPolicy) Allowed(ctx context.Context, url string) bool {
	return p.AllowedFn(ctx, url)
}
