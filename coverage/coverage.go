// Package coverage scores a set of test cases against explored pages.
package coverage

import (
	"fmt"
	"slices"
	"time"

	"github.com/fwojciec/casegen"
)

// Features is the taxonomy of tags a complete case set is expected to carry.
var Features = []string{"login", "register", "search", "navigation", "form", "interaction", "e2e"}

// healthyThreshold is the percentage below which a metric gets a recommendation.
const healthyThreshold = 80

// Reporter computes coverage reports.
type Reporter struct {
	// Now returns the report timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Report scores cases against the pages cases could be generated from
// (visited, not failed, not content duplicates). Covered sets are always
// intersected with what was discovered, so percentages stay within
// [0, 100]; a metric with nothing discovered scores 0.
func (r *Reporter) Report(pages []casegen.PageState, cases []*casegen.TestCase) *casegen.CoverageReport {
	var explored []casegen.PageState
	for _, p := range pages {
		if p.Generatable() {
			explored = append(explored, p)
		}
	}

	metrics := []casegen.Metric{
		pageCoverage(explored, cases),
		elementCoverage(explored, cases),
		linkCoverage(explored, cases),
		formCoverage(explored, cases),
		featureCoverage(cases),
	}

	var sum float64
	for _, m := range metrics {
		sum += m.Percentage
	}
	avg := sum / float64(len(metrics))

	now := time.Now
	if r != nil && r.Now != nil {
		now = r.Now
	}
	return &casegen.CoverageReport{
		Metrics:         metrics,
		Average:         avg,
		Status:          casegen.CoverageStatusFor(avg),
		Recommendations: recommendations(metrics),
		GeneratedAt:     now().UTC(),
	}
}

func pageCoverage(pages []casegen.PageState, cases []*casegen.TestCase) casegen.Metric {
	discovered := newOrderedSet()
	for _, p := range pages {
		discovered.add(p.URL)
	}
	used := make(map[string]bool)
	for _, tc := range cases {
		for _, s := range tc.Steps {
			if s.Action == casegen.ActionNavigate && s.Value != "" {
				used[s.Value] = true
			}
		}
	}
	return metric(casegen.MetricPage, discovered, used)
}

func elementCoverage(pages []casegen.PageState, cases []*casegen.TestCase) casegen.Metric {
	discovered := newOrderedSet()
	for _, p := range pages {
		for _, el := range p.Elements {
			if el.Selector != "" {
				discovered.add(el.Selector)
			}
		}
	}
	used := make(map[string]bool)
	for _, tc := range cases {
		for _, sel := range tc.Selectors() {
			used[sel] = true
		}
		for _, a := range tc.Assertions {
			if a.Value != "" {
				used[a.Value] = true
			}
		}
	}
	return metric(casegen.MetricElement, discovered, used)
}

// linkCoverage counts every discovered link on every page separately. A
// link is covered by a click on its selector from a case that starts on the
// link's page, or from a case with no recorded origin.
func linkCoverage(pages []casegen.PageState, cases []*casegen.TestCase) casegen.Metric {
	clicked := make(map[string]bool)
	for _, tc := range cases {
		for _, s := range tc.Steps {
			if s.Action == casegen.ActionClick && s.Selector != "" {
				clicked[linkKey(tc.Origin.PageURL, s.Selector)] = true
			}
		}
	}
	discovered := newOrderedSet()
	used := make(map[string]bool)
	for _, p := range pages {
		for _, l := range p.Links {
			key := linkKey(p.URL, l.URL)
			discovered.add(key)
			sel := linkSelector(l)
			if clicked[linkKey(p.URL, sel)] || clicked[linkKey("", sel)] {
				used[key] = true
			}
		}
	}
	return metric(casegen.MetricLink, discovered, used)
}

func linkKey(pageURL, v string) string {
	return pageURL + " -> " + v
}

func linkSelector(l casegen.Link) string {
	if l.Selector != "" {
		return l.Selector
	}
	return fmt.Sprintf("a[href='%s']", l.URL)
}

func formCoverage(pages []casegen.PageState, cases []*casegen.TestCase) casegen.Metric {
	discovered := newOrderedSet()
	for _, p := range pages {
		for _, f := range p.Forms {
			discovered.add(formKey(p.URL, f.Selector))
		}
	}
	used := make(map[string]bool)
	for _, tc := range cases {
		if tc.HasTag("form") {
			used[formKey(tc.Origin.PageURL, tc.Origin.FormSelector)] = true
		}
	}
	return metric(casegen.MetricForm, discovered, used)
}

func formKey(pageURL, selector string) string {
	return pageURL + " " + selector
}

func featureCoverage(cases []*casegen.TestCase) casegen.Metric {
	discovered := newOrderedSet()
	for _, f := range Features {
		discovered.add(f)
	}
	used := make(map[string]bool)
	for _, tc := range cases {
		for _, t := range tc.Tags {
			used[t] = true
		}
	}
	return metric(casegen.MetricFeature, discovered, used)
}

func metric(name string, discovered *orderedSet, used map[string]bool) casegen.Metric {
	var covered, uncovered []string
	for _, item := range discovered.items {
		if used[item] {
			covered = append(covered, item)
		} else {
			uncovered = append(uncovered, item)
		}
	}
	total := len(discovered.items)
	var pct float64
	if total > 0 {
		pct = float64(len(covered)) / float64(total) * 100
	}
	return casegen.Metric{
		Name:       name,
		Covered:    len(covered),
		Total:      total,
		Percentage: pct,
		Details: map[string][]string{
			"covered":   nonNil(covered),
			"uncovered": nonNil(uncovered),
		},
	}
}

func recommendations(metrics []casegen.Metric) []string {
	var out []string
	for _, m := range metrics {
		if m.Percentage < healthyThreshold {
			out = append(out, fmt.Sprintf("increase %s-related cases (%.1f%%)", m.Name, m.Percentage))
		}
	}
	if len(out) == 0 {
		out = append(out, "coverage is healthy")
	}
	return out
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	if !s.seen[v] {
		s.seen[v] = true
		s.items = append(s.items, v)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clip(s)
}
