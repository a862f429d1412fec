package explore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/coverage"
	"github.com/fwojciec/casegen/crawl"
	"github.com/fwojciec/casegen/dedup"
	"github.com/fwojciec/casegen/export"
	"github.com/fwojciec/casegen/generate"
	"github.com/google/uuid"
)

// persistTimeout bounds writes of terminal session snapshots.
const persistTimeout = 5 * time.Second

// StartRequest describes a new exploration.
type StartRequest struct {
	URL      string
	Strategy casegen.StrategyName
	MaxDepth int
	MaxPages int
}

// Results is a point-in-time view of a session.
type Results struct {
	Session *casegen.Session    `json:"session"`
	Pages   []casegen.PageState `json:"pages"`
	Stats   casegen.Stats       `json:"stats"`
	Errors  []PageError         `json:"errors"`
}

// Registry owns all sessions of a process and is the control surface for
// them. Exported fields must be set before the first call to Start.
type Registry struct {
	// NewRenderer acquires a renderer for one session. Required.
	NewRenderer func(ctx context.Context) (casegen.Renderer, error)

	// Extractor turns rendered content into links, forms and elements. Required.
	Extractor casegen.Extractor

	// Optional collaborators.
	Classifier casegen.PageClassifier
	LinkPolicy casegen.LinkPolicy
	Limiter    casegen.DomainLimiter
	Sessions   casegen.SessionService
	CaseSets   casegen.CaseSetService
	Progress   ProgressFunc

	Generator    *generate.Generator
	Deduplicator *dedup.Deduplicator
	Reporter     *coverage.Reporter

	// Merge folds cases whose steps are contained in a related case after
	// deduplication.
	Merge bool

	Logger *slog.Logger
	Config Config

	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRegistry returns an empty registry. Session loops run under a context
// owned by the registry and canceled by Shutdown.
func NewRegistry() *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *Registry) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

// Start validates req, registers a session and launches its loop.
// It returns the new session ID. Invalid requests fail with EINVALID and
// no session is created.
func (r *Registry) Start(ctx context.Context, req StartRequest) (string, error) {
	if r.NewRenderer == nil || r.Extractor == nil {
		return "", casegen.Errorf(casegen.EINTERNAL, "registry requires a renderer factory and an extractor")
	}

	name := req.Strategy
	if name == "" {
		name = casegen.StrategyBreadthFirst
	}
	strategy, err := crawl.NewStrategy(name)
	if err != nil {
		return "", err
	}

	rec := casegen.Session{
		StartURL: req.URL,
		Strategy: name,
		MaxDepth: req.MaxDepth,
		MaxPages: req.MaxPages,
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}
	start, err := crawl.NormalizeURL(req.URL)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	rec.ID = uuid.NewString()
	rec.StartURL = start
	rec.Status = casegen.StatusPending
	rec.StartedAt = now

	if r.Sessions != nil {
		if err := r.Sessions.CreateSession(ctx, &rec); err != nil {
			return "", fmt.Errorf("create session: %w", err)
		}
	}

	s := newSession(rec, strategy, r.Config, deps{
		newRenderer: r.NewRenderer,
		extractor:   r.Extractor,
		classifier:  r.Classifier,
		policy:      r.LinkPolicy,
		limiter:     r.Limiter,
		logger:      r.logger(),
		progress:    r.Progress,
		onFinish:    r.persist,
	})

	r.mu.Lock()
	r.sessions[rec.ID] = s
	r.order = append(r.order, rec.ID)
	r.mu.Unlock()

	r.logger().Info("session started",
		"session", rec.ID,
		"url", rec.StartURL,
		"strategy", rec.Strategy,
		"maxDepth", rec.MaxDepth,
		"maxPages", rec.MaxPages,
	)

	go s.run(r.ctx)

	return rec.ID, nil
}

// persist stores a session snapshot when a SessionService is configured.
func (r *Registry) persist(rec casegen.Session) {
	if r.Sessions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := r.Sessions.UpdateSession(ctx, &rec); err != nil {
		r.logger().Error("persist session", "session", rec.ID, "err", err)
	}
}

func (r *Registry) session(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, casegen.Errorf(casegen.ENOTFOUND, "session %q not found", id)
	}
	return s, nil
}

// Status returns a snapshot of the session record.
func (r *Registry) Status(id string) (*casegen.Session, error) {
	s, err := r.session(id)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// Pause suspends a running session. Returns ECONFLICT if it is not running.
func (r *Registry) Pause(id string) error {
	s, err := r.session(id)
	if err != nil {
		return err
	}
	return s.Pause()
}

// Resume continues a paused session. Returns ECONFLICT if it is not paused.
func (r *Registry) Resume(id string) error {
	s, err := r.session(id)
	if err != nil {
		return err
	}
	return s.Resume(r.ctx)
}

// Stop ends a session. Stopping a terminal session is a no-op.
func (r *Registry) Stop(id string) error {
	s, err := r.session(id)
	if err != nil {
		return err
	}
	s.Stop()
	return nil
}

// Wait blocks until the session is terminal and its loop has exited.
func (r *Registry) Wait(ctx context.Context, id string) error {
	s, err := r.session(id)
	if err != nil {
		return err
	}
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns the session record together with a snapshot of every
// discovered page.
func (r *Registry) Results(id string) (*Results, error) {
	s, err := r.session(id)
	if err != nil {
		return nil, err
	}
	return &Results{
		Session: s.Snapshot(),
		Pages:   s.Pages(),
		Stats:   s.Stats(),
		Errors:  s.PageErrors(),
	}, nil
}

// PathTo returns the discovery chain from the start URL to url within a
// session. For a URL the session never discovered the path is just url.
func (r *Registry) PathTo(id, url string) ([]string, error) {
	s, err := r.session(id)
	if err != nil {
		return nil, err
	}
	return s.PathTo(url), nil
}

// GenerateCases runs the artifact pipeline over the pages explored so far:
// generate, deduplicate, optionally merge, narrate and score coverage.
func (r *Registry) GenerateCases(ctx context.Context, id string) (*casegen.CaseSet, error) {
	s, err := r.session(id)
	if err != nil {
		return nil, err
	}

	pages := s.Pages()
	gen := r.Generator
	if gen == nil {
		gen = &generate.Generator{Logger: r.Logger}
	}
	cases := gen.Generate(pages)
	generated := len(cases)

	cases = r.Deduplicator.Deduplicate(cases)
	if r.Merge {
		cases = dedup.Merge(cases)
	}
	gen.Narrate(ctx, cases)

	set := &casegen.CaseSet{
		ID:        uuid.NewString(),
		SessionID: id,
		Cases:     cases,
		Coverage:  r.Reporter.Report(pages, cases),
		CreatedAt: time.Now().UTC(),
	}
	s.setCaseSet(set)

	r.logger().Info("cases generated",
		"session", id,
		"generated", generated,
		"kept", len(cases),
		"coverage", set.Coverage.Average,
	)

	if r.CaseSets != nil {
		if err := r.CaseSets.SaveCaseSet(ctx, set); err != nil {
			return nil, fmt.Errorf("save case set: %w", err)
		}
	}
	if r.Sessions != nil {
		if err := r.Sessions.UpdateSession(ctx, s.Snapshot()); err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}
	}
	return set, nil
}

// ExportCases serializes the session's latest case set, generating one
// first if none exists.
func (r *Registry) ExportCases(ctx context.Context, id string, format export.Format) ([]byte, error) {
	s, err := r.session(id)
	if err != nil {
		return nil, err
	}
	if !export.Valid(format) {
		return nil, casegen.Errorf(casegen.EINVALID, "unknown export format %q", format)
	}
	set := s.caseSet()
	if set == nil {
		if set, err = r.GenerateCases(ctx, id); err != nil {
			return nil, err
		}
	}
	return export.Render(format, export.NewReport(s.Snapshot(), set))
}

// List returns snapshots of all sessions in start order.
func (r *Registry) List() []*casegen.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*casegen.Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id].Snapshot())
	}
	return out
}

// Shutdown stops every session, cancels in-flight renders and waits for
// all loops to exit or ctx to be done.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	for _, s := range snapshot {
		s.Stop()
	}
	r.cancel()

	for _, s := range snapshot {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
