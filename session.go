package casegen

import (
	"context"
	"net/url"
	"time"
)

// SessionStatus is the lifecycle state of an exploration session.
type SessionStatus string

// Session statuses.
const (
	StatusPending   SessionStatus = "pending"
	StatusRunning   SessionStatus = "running"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusError     SessionStatus = "error"
)

// Terminal reports whether no further transitions are possible.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether moving from s to next is allowed.
// Statuses only move forward, except that a paused session may resume.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusCompleted || next == StatusError
	case StatusRunning:
		return next == StatusPaused || next == StatusCompleted || next == StatusError
	case StatusPaused:
		return next == StatusRunning || next == StatusCompleted || next == StatusError
	}
	return false
}

// StrategyName selects a navigation strategy.
type StrategyName string

// Navigation strategies.
const (
	StrategyBreadthFirst StrategyName = "bfs"
	StrategyDepthFirst   StrategyName = "dfs"
	StrategyPriority     StrategyName = "priority"
	StrategyAdaptive     StrategyName = "adaptive"
)

// Session represents one exploration of a web application.
type Session struct {
	ID             string        `json:"id" yaml:"id"`
	StartURL       string        `json:"startUrl" yaml:"startUrl"`
	Strategy       StrategyName  `json:"strategy" yaml:"strategy"`
	MaxDepth       int           `json:"maxDepth" yaml:"maxDepth"`
	MaxPages       int           `json:"maxPages" yaml:"maxPages"`
	Status         SessionStatus `json:"status" yaml:"status"`
	CurrentURL     string        `json:"currentUrl,omitempty" yaml:"currentUrl,omitempty"`
	PagesExplored  int           `json:"pagesExplored" yaml:"pagesExplored"`
	PagesFailed    int           `json:"pagesFailed" yaml:"pagesFailed"`
	ElementsFound  int           `json:"elementsFound" yaml:"elementsFound"`
	CasesGenerated int           `json:"casesGenerated" yaml:"casesGenerated"`
	StartedAt      time.Time     `json:"startedAt" yaml:"startedAt"`
	EndedAt        *time.Time    `json:"endedAt,omitempty" yaml:"endedAt,omitempty"`
	LastError      string        `json:"lastError,omitempty" yaml:"lastError,omitempty"`
}

// Validate returns an error if the session contains invalid fields.
func (s *Session) Validate() error {
	if s.StartURL == "" {
		return Errorf(EINVALID, "start URL required")
	}
	u, err := url.Parse(s.StartURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Errorf(EINVALID, "malformed start URL %q", s.StartURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINVALID, "start URL must use http or https, got %q", u.Scheme)
	}
	if s.MaxDepth < 0 {
		return Errorf(EINVALID, "max depth must not be negative")
	}
	if s.MaxPages <= 0 {
		return Errorf(EINVALID, "max pages must be positive")
	}
	return nil
}

// SessionService persists session snapshots.
type SessionService interface {
	// CreateSession stores a new session record. The ID must already be set.
	CreateSession(ctx context.Context, session *Session) error

	// UpdateSession overwrites the stored record with the given snapshot.
	// Returns ENOTFOUND if the session does not exist.
	UpdateSession(ctx context.Context, session *Session) error

	// FindSessionByID retrieves a session by ID.
	// Returns ENOTFOUND if the session does not exist.
	FindSessionByID(ctx context.Context, id string) (*Session, error)

	// FindSessions retrieves sessions matching the filter, newest first.
	FindSessions(ctx context.Context, filter SessionFilter) ([]*Session, error)
}

// SessionFilter represents a filter for FindSessions.
type SessionFilter struct {
	Status *SessionStatus `json:"status" yaml:"status"`

	Offset int `json:"offset" yaml:"offset"`
	Limit  int `json:"limit" yaml:"limit"`
}
