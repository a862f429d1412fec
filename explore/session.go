// Package explore runs exploration sessions: one sequential crawl loop per
// session, driven by a navigation strategy under a depth and page budget,
// and a registry that exposes start, pause, resume and stop controls.
package explore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/crawl"
)

// Defaults applied when Config fields are zero.
const (
	DefaultPageTimeout   = 30 * time.Second
	DefaultMaxPageErrors = 100
)

// Config tunes the crawl loop of every session.
type Config struct {
	// PageTimeout bounds a single render attempt.
	PageTimeout time.Duration `yaml:"pageTimeout"`

	// SettleDelay is slept after every processed page.
	SettleDelay time.Duration `yaml:"settleDelay"`

	// RetryDelays lists waits between render attempts. Empty means a
	// failed render is not retried.
	RetryDelays []time.Duration `yaml:"retryDelays"`

	// MaxPageErrors bounds the per-session error log; the oldest entries
	// are dropped first.
	MaxPageErrors int `yaml:"maxPageErrors"`
}

func (c Config) withDefaults() Config {
	if c.PageTimeout <= 0 {
		c.PageTimeout = DefaultPageTimeout
	}
	if c.MaxPageErrors <= 0 {
		c.MaxPageErrors = DefaultMaxPageErrors
	}
	return c
}

// PageError records a recoverable failure on one page.
type PageError struct {
	URL  string    `json:"url"`
	Code string    `json:"code"`
	Err  string    `json:"error"`
	At   time.Time `json:"at"`
}

// ProgressEvent reports progress of a session's crawl loop.
type ProgressEvent struct {
	SessionID string
	Type      ProgressType
	URL       string
	Depth     int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressVisited ProgressType = iota
	ProgressDuplicate
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress. It is called
// from the session goroutine and must not block.
type ProgressFunc func(event ProgressEvent)

// deps are the collaborators a session uses. Renderer is acquired by the
// session itself through newRenderer.
type deps struct {
	newRenderer func(ctx context.Context) (casegen.Renderer, error)
	extractor   casegen.Extractor
	classifier  casegen.PageClassifier
	policy      casegen.LinkPolicy
	limiter     casegen.DomainLimiter
	logger      *slog.Logger
	progress    ProgressFunc

	// onFinish is called once with the terminal snapshot.
	onFinish func(casegen.Session)
}

// Session is one exploration. All mutable fields are guarded by mu; the
// page store carries its own lock so snapshots are safe while the loop runs.
type Session struct {
	mu      sync.Mutex
	rec     casegen.Session
	errs    []PageError
	looping bool
	cases   *casegen.CaseSet

	renderer casegen.Renderer
	store    *crawl.PageStore
	strategy casegen.Strategy
	cfg      Config
	deps     deps

	finishOnce sync.Once
	finished   chan struct{}
}

func newSession(rec casegen.Session, strategy casegen.Strategy, cfg Config, d deps) *Session {
	store := crawl.NewPageStore(rec.MaxPages)
	store.AddPage(rec.StartURL, 0, "")
	store.Enqueue(rec.StartURL, "")
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.logger = d.logger.With("session", rec.ID)
	return &Session{
		rec:      rec,
		store:    store,
		strategy: strategy,
		cfg:      cfg.withDefaults(),
		deps:     d,
		looping:  true,
		finished: make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.rec.ID }

// Snapshot returns a copy of the session record.
func (s *Session) Snapshot() *casegen.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *casegen.Session {
	rec := s.rec
	if s.rec.EndedAt != nil {
		t := *s.rec.EndedAt
		rec.EndedAt = &t
	}
	return &rec
}

// PageErrors returns the recorded per-page failures, oldest first.
func (s *Session) PageErrors() []PageError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PageError, len(s.errs))
	copy(out, s.errs)
	return out
}

// Pages returns a snapshot of all discovered pages in discovery order.
func (s *Session) Pages() []casegen.PageState { return s.store.Snapshot() }

// Stats summarizes the session's page store.
func (s *Session) Stats() casegen.Stats { return s.store.Stats() }

// PathTo returns the discovery chain from the start URL to url.
func (s *Session) PathTo(url string) []string { return s.store.PathTo(url) }

// Done is closed once the session is terminal and its loop has exited.
func (s *Session) Done() <-chan struct{} { return s.finished }

// Pause suspends a running session at the next iteration boundary.
// Queue and page state are kept for Resume.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.Status != casegen.StatusRunning {
		return casegen.Errorf(casegen.ECONFLICT, "cannot pause %s session", s.rec.Status)
	}
	s.rec.Status = casegen.StatusPaused
	s.deps.logger.Info("session paused")
	return nil
}

// Resume continues a paused session from its existing queue.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec.Status != casegen.StatusPaused {
		return casegen.Errorf(casegen.ECONFLICT, "cannot resume %s session", s.rec.Status)
	}
	s.rec.Status = casegen.StatusRunning
	s.deps.logger.Info("session resumed")
	// A loop that has not yet observed the pause keeps running.
	if !s.looping {
		s.looping = true
		go s.loop(ctx)
	}
	return nil
}

// Stop ends the session. The loop observes the request at its next
// iteration boundary; an in-flight render completes or times out first.
// Stopping a terminal session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.rec.Status.Terminal() {
		s.mu.Unlock()
		return
	}
	s.completeLocked()
	s.deps.logger.Info("session stopped")
	idle := !s.looping
	s.mu.Unlock()

	if idle {
		s.finish()
	}
}

func (s *Session) completeLocked() {
	s.endLocked(casegen.StatusCompleted)
}

func (s *Session) failLocked(err error) {
	if !s.rec.Status.CanTransition(casegen.StatusError) {
		return
	}
	s.rec.LastError = err.Error()
	s.endLocked(casegen.StatusError)
}

func (s *Session) endLocked(status casegen.SessionStatus) {
	if !s.rec.Status.CanTransition(status) {
		return
	}
	now := time.Now().UTC()
	s.rec.Status = status
	s.rec.EndedAt = &now
	s.rec.CurrentURL = ""
}

// finish releases the renderer and publishes the terminal state. It runs
// once, after the loop has exited.
func (s *Session) finish() {
	s.finishOnce.Do(func() {
		if s.renderer != nil {
			if err := s.renderer.Close(); err != nil {
				s.deps.logger.Warn("close renderer", "err", err)
			}
		}
		snap := s.Snapshot()
		s.deps.logger.Info("session finished",
			"status", snap.Status,
			"explored", snap.PagesExplored,
			"failed", snap.PagesFailed,
		)
		if s.deps.onFinish != nil {
			s.deps.onFinish(*snap)
		}
		s.report(ProgressEvent{Type: ProgressFinished})
		close(s.finished)
	})
}

// run acquires the renderer and enters the loop. It is the entry point of
// the session goroutine; looping is set from creation so a Stop during
// acquisition leaves the finish to the loop.
func (s *Session) run(ctx context.Context) {
	r, err := s.deps.newRenderer(ctx)

	s.mu.Lock()
	select {
	case <-s.finished:
		s.mu.Unlock()
		if r != nil {
			_ = r.Close()
		}
		return
	default:
	}
	if err != nil {
		s.failLocked(fmt.Errorf("acquire renderer: %w", err))
		s.looping = false
		s.deps.logger.Error("session failed", "err", err)
		s.mu.Unlock()
		s.finish()
		return
	}
	s.renderer = r
	if s.rec.Status == casegen.StatusPending {
		s.rec.Status = casegen.StatusRunning
	}
	s.mu.Unlock()

	s.loop(ctx)
}

func (s *Session) loop(ctx context.Context) {
	for {
		page, ok := s.next(ctx)
		if !ok {
			return
		}
		s.visit(ctx, page)

		if s.cfg.SettleDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.SettleDelay):
			}
		}
	}
}

// next performs the checks at the top of an iteration and pops the next
// page to visit. When it returns false the loop has given up the session.
func (s *Session) next(ctx context.Context) (casegen.PageState, bool) {
	s.mu.Lock()
	for {
		if s.rec.Status == casegen.StatusRunning {
			switch {
			case ctx.Err() != nil:
				s.completeLocked()
			case !s.store.ShouldContinue():
				s.completeLocked()
			case s.strategy.ShouldStop(s.store.Stats()):
				s.deps.logger.Info("strategy requested stop")
				s.completeLocked()
			}
		}
		if s.rec.Status != casegen.StatusRunning {
			s.looping = false
			terminal := s.rec.Status.Terminal()
			s.mu.Unlock()
			if terminal {
				s.finish()
			}
			return casegen.PageState{}, false
		}

		item, ok := s.store.NextPending()
		if !ok {
			s.completeLocked()
			continue
		}
		page, ok := s.store.Page(item.URL)
		if !ok || page.Depth > s.rec.MaxDepth {
			continue
		}
		s.rec.CurrentURL = page.URL
		s.mu.Unlock()
		return page, true
	}
}

// visit processes one page. Failures are recorded and never abort the loop.
func (s *Session) visit(ctx context.Context, page casegen.PageState) {
	defer func() {
		if v := recover(); v != nil {
			s.store.MarkFailed(page.URL)
			s.recordFailure(page, casegen.Errorf(casegen.EINTERNAL, "panic processing page: %v", v))
		}
	}()

	if s.deps.limiter != nil {
		if err := s.deps.limiter.Wait(ctx, crawl.Host(page.URL)); err != nil {
			return
		}
	}

	res, err := crawl.RenderWithRetry(ctx, s.renderer, page.URL, s.cfg.PageTimeout, s.cfg.RetryDelays, s.deps.logger)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.store.MarkFailed(page.URL)
		s.recordFailure(page, err)
		return
	}

	if s.store.IsDuplicateContent(res.Content) {
		s.store.MarkDuplicate(page.URL, res.Content)
		s.mu.Lock()
		s.rec.PagesExplored++
		s.mu.Unlock()
		s.deps.logger.Debug("duplicate content", "url", page.URL)
		s.report(ProgressEvent{Type: ProgressDuplicate, URL: page.URL, Depth: page.Depth})
		return
	}

	base := res.FinalURL
	if base == "" {
		base = page.URL
	}
	data, err := s.deps.extractor.Extract(res.Content, base)
	if err != nil {
		s.store.MarkFailed(page.URL)
		s.recordFailure(page, fmt.Errorf("extract: %w", err))
		return
	}

	pageType := crawl.ClassifyPage(data)
	if s.deps.classifier != nil {
		pageType = s.deps.classifier.Classify(res.Content)
	}
	s.store.MarkVisited(page.URL, res.Content)
	s.store.SetPageData(page.URL, data, pageType)

	s.mu.Lock()
	s.rec.PagesExplored++
	s.rec.ElementsFound += len(data.Elements)
	s.mu.Unlock()

	s.report(ProgressEvent{Type: ProgressVisited, URL: page.URL, Depth: page.Depth})
	s.follow(ctx, page, data, res, pageType)
}

// follow records the links discovered on page and enqueues the ones the
// strategy accepts, in the strategy's preferred order.
func (s *Session) follow(ctx context.Context, page casegen.PageState, data *casegen.PageData, res *casegen.RenderResult, pageType casegen.PageType) {
	fc := casegen.FollowContext{
		Depth:    page.Depth,
		MaxDepth: s.rec.MaxDepth,
		Visited:  s.store.Visited,
		PageType: pageType,
		Viewport: res.Viewport,
		Boxes:    normalizeBoxes(res.Boxes),
	}

	seen := make(map[string]bool)
	var accepted []casegen.Link
	for _, link := range data.Links {
		u, err := crawl.NormalizeURL(link.URL)
		if err != nil || seen[u] {
			continue
		}
		seen[u] = true
		link.URL = u

		s.store.AddPage(u, page.Depth+1, page.URL)
		if !s.strategy.ShouldFollow(link, fc) {
			continue
		}
		if s.deps.policy != nil && !s.deps.policy.Allowed(ctx, u) {
			continue
		}
		accepted = append(accepted, link)
	}

	for _, link := range s.strategy.RankLinks(accepted, fc) {
		s.store.Enqueue(link.URL, page.URL)
	}
}

func normalizeBoxes(boxes map[string]casegen.Box) map[string]casegen.Box {
	if len(boxes) == 0 {
		return nil
	}
	out := make(map[string]casegen.Box, len(boxes))
	for raw, b := range boxes {
		if u, err := crawl.NormalizeURL(raw); err == nil {
			out[u] = b
		}
	}
	return out
}

func (s *Session) recordFailure(page casegen.PageState, err error) {
	s.mu.Lock()
	s.rec.PagesFailed++
	s.errs = append(s.errs, PageError{
		URL:  page.URL,
		Code: casegen.ErrorCode(err),
		Err:  err.Error(),
		At:   time.Now().UTC(),
	})
	if n := len(s.errs) - s.cfg.MaxPageErrors; n > 0 {
		s.errs = append(s.errs[:0:0], s.errs[n:]...)
	}
	s.mu.Unlock()

	s.deps.logger.Warn("page failed", "url", page.URL, "depth", page.Depth, "err", err)
	s.report(ProgressEvent{Type: ProgressFailed, URL: page.URL, Depth: page.Depth, Error: err})
}

func (s *Session) report(evt ProgressEvent) {
	if s.deps.progress == nil {
		return
	}
	evt.SessionID = s.rec.ID
	s.deps.progress(evt)
}

// setCaseSet records the latest generated case set.
func (s *Session) setCaseSet(set *casegen.CaseSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases = set
	s.rec.CasesGenerated = len(set.Cases)
}

func (s *Session) caseSet() *casegen.CaseSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cases
}
