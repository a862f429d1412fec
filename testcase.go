package casegen

import (
	"context"
	"slices"
	"time"
)

// Priority ranks how important a test case is.
type Priority string

// Priorities from most to least important.
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns an ordinal for comparison. Unknown priorities rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	}
	return 2
}

// Step actions.
const (
	ActionNavigate = "navigate"
	ActionType     = "type"
	ActionClick    = "click"
)

// Assertion types.
const (
	AssertURLContains    = "urlContains"
	AssertElementVisible = "elementVisible"
	AssertElementExists  = "elementExists"
)

// Step is a single action in a test case.
type Step struct {
	Name     string `json:"name" yaml:"name"`
	Action   string `json:"action" yaml:"action"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Assertion is an expectation checked after the steps run.
type Assertion struct {
	Type        string `json:"type" yaml:"type"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// CaseOrigin records where a test case was derived from.
type CaseOrigin struct {
	PageURL      string `json:"pageUrl,omitempty" yaml:"pageUrl,omitempty"`
	FormSelector string `json:"formSelector,omitempty" yaml:"formSelector,omitempty"`
}

// TestCase is a candidate test derived from explored page structure.
type TestCase struct {
	Name              string      `json:"name" yaml:"name"`
	Description       string      `json:"description" yaml:"description"`
	Priority          Priority    `json:"priority" yaml:"priority"`
	Steps             []Step      `json:"steps" yaml:"steps"`
	Assertions        []Assertion `json:"assertions" yaml:"assertions"`
	Tags              []string    `json:"tags" yaml:"tags"`
	EstimatedDuration int         `json:"estimatedDuration" yaml:"estimatedDuration"`
	Origin            CaseOrigin  `json:"origin" yaml:"origin"`
	MergedFrom        []string    `json:"mergedFrom,omitempty" yaml:"mergedFrom,omitempty"`
}

// HasTag reports whether the case carries tag.
func (tc *TestCase) HasTag(tag string) bool {
	return slices.Contains(tc.Tags, tag)
}

// Selectors returns the ordered step selectors, skipping steps without one.
func (tc *TestCase) Selectors() []string {
	out := make([]string, 0, len(tc.Steps))
	for _, s := range tc.Steps {
		if s.Selector != "" {
			out = append(out, s.Selector)
		}
	}
	return out
}

// Clone returns a deep copy of the case.
func (tc *TestCase) Clone() *TestCase {
	c := *tc
	c.Steps = slices.Clone(tc.Steps)
	c.Assertions = slices.Clone(tc.Assertions)
	c.Tags = slices.Clone(tc.Tags)
	c.MergedFrom = slices.Clone(tc.MergedFrom)
	return &c
}

// CaseSet is the final output of generation for one session.
type CaseSet struct {
	ID        string          `json:"id" yaml:"id"`
	SessionID string          `json:"sessionId" yaml:"sessionId"`
	Cases     []*TestCase     `json:"cases" yaml:"cases"`
	Coverage  *CoverageReport `json:"coverage" yaml:"coverage"`
	CreatedAt time.Time       `json:"createdAt" yaml:"createdAt"`
}

// CaseSetService persists generated case sets.
type CaseSetService interface {
	// SaveCaseSet stores a case set, replacing any previous set for the
	// same session. Assigns an ID if empty.
	SaveCaseSet(ctx context.Context, set *CaseSet) error

	// FindCaseSet returns the case set stored for a session.
	// Returns ENOTFOUND if none exists.
	FindCaseSet(ctx context.Context, sessionID string) (*CaseSet, error)
}

// ReportWriter stores exported reports.
type ReportWriter interface {
	// Write stores data under name and returns the location it was written to.
	Write(ctx context.Context, name string, data []byte) (string, error)
}
