// Package export serializes generated case sets into machine-readable and
// human-readable reports.
package export

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

// Supported formats.
const (
	JSON     Format = "json"
	YAML     Format = "yaml"
	Markdown Format = "markdown"
	Text     Format = "text"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{JSON, YAML, Markdown, Text}
}

// Valid reports whether f is a supported format.
func Valid(f Format) bool {
	return slices.Contains(Formats(), f)
}

// Extension returns the file extension for reports in format f.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return "md"
	case Text:
		return "txt"
	}
	return string(f)
}

// Summary aggregates a case set.
type Summary struct {
	Total int `json:"total" yaml:"total"`

	// ByPriority and ByTag count cases per priority and per tag.
	ByPriority map[casegen.Priority]int `json:"byPriority" yaml:"byPriority"`
	ByTag      map[string]int           `json:"byTag" yaml:"byTag"`

	// EstimatedDuration is the sum of case durations in seconds.
	EstimatedDuration int `json:"estimatedDuration" yaml:"estimatedDuration"`
}

// Report is the exported view of one session and its cases.
type Report struct {
	Session     *casegen.Session        `json:"session" yaml:"session"`
	Summary     Summary                 `json:"summary" yaml:"summary"`
	Cases       []*casegen.TestCase     `json:"cases" yaml:"cases"`
	Coverage    *casegen.CoverageReport `json:"coverage,omitempty" yaml:"coverage,omitempty"`
	GeneratedAt time.Time               `json:"generatedAt" yaml:"generatedAt"`
}

// NewReport builds a report from a session snapshot and its case set.
// Case tags are sorted in the output.
func NewReport(session *casegen.Session, set *casegen.CaseSet) *Report {
	r := &Report{Session: session, GeneratedAt: time.Now().UTC()}
	if set == nil {
		r.Summary = Summarize(nil)
		return r
	}
	r.Cases = make([]*casegen.TestCase, 0, len(set.Cases))
	for _, tc := range set.Cases {
		c := tc.Clone()
		slices.Sort(c.Tags)
		r.Cases = append(r.Cases, c)
	}
	r.Coverage = set.Coverage
	r.Summary = Summarize(r.Cases)
	return r
}

// Summarize counts cases by priority and tag and totals their durations.
func Summarize(cases []*casegen.TestCase) Summary {
	s := Summary{
		Total:      len(cases),
		ByPriority: make(map[casegen.Priority]int),
		ByTag:      make(map[string]int),
	}
	for _, tc := range cases {
		s.ByPriority[tc.Priority]++
		for _, t := range tc.Tags {
			s.ByTag[t]++
		}
		s.EstimatedDuration += tc.EstimatedDuration
	}
	return s
}

// Render encodes r in the given format.
// Returns EINVALID for an unknown format.
func Render(format Format, r *Report) ([]byte, error) {
	switch format {
	case JSON:
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(b, '\n'), nil
	case YAML:
		b, err := yaml.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return b, nil
	case Markdown:
		return []byte(renderMarkdown(r)), nil
	case Text:
		return []byte(renderText(r)), nil
	}
	return nil, casegen.Errorf(casegen.EINVALID, "unknown export format %q", format)
}

// priorities lists priorities from most to least important.
var priorities = []casegen.Priority{
	casegen.PriorityCritical,
	casegen.PriorityHigh,
	casegen.PriorityMedium,
	casegen.PriorityLow,
}

func renderMarkdown(r *Report) string {
	var b strings.Builder

	b.WriteString("# Test Case Report\n\n")
	if s := r.Session; s != nil {
		fmt.Fprintf(&b, "- **Session:** %s\n", s.ID)
		fmt.Fprintf(&b, "- **Start URL:** %s\n", s.StartURL)
		fmt.Fprintf(&b, "- **Strategy:** %s\n", s.Strategy)
		fmt.Fprintf(&b, "- **Status:** %s\n", s.Status)
		fmt.Fprintf(&b, "- **Pages explored:** %d (failed %d)\n", s.PagesExplored, s.PagesFailed)
	}
	fmt.Fprintf(&b, "- **Cases:** %d\n", r.Summary.Total)
	fmt.Fprintf(&b, "- **Estimated duration:** %ds\n\n", r.Summary.EstimatedDuration)

	if r.Coverage != nil {
		b.WriteString("## Coverage\n\n")
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Metric", "Covered", "Total", "Percentage"})
		for _, m := range r.Coverage.Metrics {
			t.AppendRow(table.Row{m.Name, m.Covered, m.Total, fmt.Sprintf("%.1f%%", m.Percentage)})
		}
		b.WriteString(t.RenderMarkdown())
		fmt.Fprintf(&b, "\n\n**Average:** %.1f%% (%s)\n\n", r.Coverage.Average, r.Coverage.Status)
		for _, rec := range r.Coverage.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Test Cases\n")
	for i, tc := range r.Cases {
		fmt.Fprintf(&b, "\n### %d. %s\n\n", i+1, tc.Name)
		if tc.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", tc.Description)
		}
		fmt.Fprintf(&b, "**Priority:** %s | **Tags:** %s | **Duration:** %ds\n\n",
			tc.Priority, strings.Join(tc.Tags, ", "), tc.EstimatedDuration)
		b.WriteString("**Steps:**\n\n")
		for j, s := range tc.Steps {
			fmt.Fprintf(&b, "%d. %s\n", j+1, describeStep(s))
		}
		if len(tc.Assertions) > 0 {
			b.WriteString("\n**Assertions:**\n\n")
			for _, a := range tc.Assertions {
				fmt.Fprintf(&b, "- %s `%s`\n", a.Type, a.Value)
			}
		}
	}
	return b.String()
}

func describeStep(s casegen.Step) string {
	switch s.Action {
	case casegen.ActionNavigate:
		return fmt.Sprintf("%s: navigate to %s", s.Name, s.Value)
	case casegen.ActionType:
		return fmt.Sprintf("%s: type %q into `%s`", s.Name, s.Value, s.Selector)
	}
	return fmt.Sprintf("%s: %s `%s`", s.Name, s.Action, s.Selector)
}

func renderText(r *Report) string {
	var b strings.Builder

	cases := table.NewWriter()
	cases.SetStyle(table.StyleRounded)
	cases.AppendHeader(table.Row{"#", "Name", "Priority", "Steps", "Tags", "Duration"})
	for i, tc := range r.Cases {
		cases.AppendRow(table.Row{i + 1, tc.Name, tc.Priority, len(tc.Steps), strings.Join(tc.Tags, ","), fmt.Sprintf("%ds", tc.EstimatedDuration)})
	}
	cases.AppendFooter(table.Row{"", "Total", "", "", "", fmt.Sprintf("%ds", r.Summary.EstimatedDuration)})
	b.WriteString(cases.Render())
	b.WriteString("\n")

	counts := table.NewWriter()
	counts.SetStyle(table.StyleRounded)
	counts.AppendHeader(table.Row{"Priority", "Cases"})
	for _, p := range priorities {
		counts.AppendRow(table.Row{p, r.Summary.ByPriority[p]})
	}
	b.WriteString(counts.Render())
	b.WriteString("\n")

	if len(r.Summary.ByTag) > 0 {
		tags := table.NewWriter()
		tags.SetStyle(table.StyleRounded)
		tags.AppendHeader(table.Row{"Tag", "Cases"})
		for _, tag := range slices.Sorted(maps.Keys(r.Summary.ByTag)) {
			tags.AppendRow(table.Row{tag, r.Summary.ByTag[tag]})
		}
		b.WriteString(tags.Render())
		b.WriteString("\n")
	}

	if r.Coverage != nil {
		cov := table.NewWriter()
		cov.SetStyle(table.StyleRounded)
		cov.AppendHeader(table.Row{"Metric", "Covered", "Total", "Percentage"})
		for _, m := range r.Coverage.Metrics {
			cov.AppendRow(table.Row{m.Name, m.Covered, m.Total, fmt.Sprintf("%.1f%%", m.Percentage)})
		}
		cov.AppendFooter(table.Row{"Average", "", string(r.Coverage.Status), fmt.Sprintf("%.1f%%", r.Coverage.Average)})
		b.WriteString(cov.Render())
		b.WriteString("\n")
	}
	return b.String()
}
