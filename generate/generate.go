// Package generate derives candidate test cases from explored page state.
package generate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"unicode"

	"github.com/fwojciec/casegen"
	"golang.org/x/sync/errgroup"
)

// Form kinds.
const (
	FormLogin    = "login"
	FormRegister = "register"
	FormSearch   = "search"
	FormGeneral  = "general"
)

// Generation limits and timings, in seconds where noted.
const (
	maxNavigationLinks = 3
	maxInteractions    = 5
	maxNavigationDepth = 1

	formStepSeconds   = 2
	navigationSeconds = 5
	interactSeconds   = 3
	searchSeconds     = 5

	defaultNarrateConcurrency = 4
)

// LoginRedirectPath is the path a successful login is expected to land on.
const LoginRedirectPath = "/dashboard"

// SearchResultsSelector is the container expected to show search results.
const SearchResultsSelector = ".search-results"

// Generator converts visited pages into candidate test cases.
type Generator struct {
	// Narrator, if set, rewrites names and descriptions after generation.
	Narrator casegen.Narrator
	// NarrateConcurrency bounds concurrent Narrator calls. Defaults to 4.
	NarrateConcurrency int
	Logger             *slog.Logger
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g.Logger
}

// Generate derives cases from every visited, non-duplicate page. A page
// whose data cannot be processed is skipped and generation continues. The
// result has obvious repeats (same name and step count) removed.
func (g *Generator) Generate(pages []casegen.PageState) []*casegen.TestCase {
	var eligible []casegen.PageState
	for _, p := range pages {
		if p.Generatable() {
			eligible = append(eligible, p)
		}
	}

	var cases []*casegen.TestCase
	for _, p := range eligible {
		cases = append(cases, g.safely(p, formCases)...)
	}
	for _, p := range eligible {
		cases = append(cases, g.safely(p, navigationCases)...)
	}
	for _, p := range eligible {
		cases = append(cases, g.safely(p, interactionCases)...)
	}
	for _, p := range eligible {
		cases = append(cases, g.safely(p, searchCases)...)
	}
	return uniqueByNameAndSteps(cases)
}

// safely runs fn for one page, dropping its output if it panics.
func (g *Generator) safely(p casegen.PageState, fn func(casegen.PageState) []*casegen.TestCase) (out []*casegen.TestCase) {
	defer func() {
		if r := recover(); r != nil {
			g.logger().Warn("generate", "url", p.URL, "err", fmt.Sprint(r))
			out = nil
		}
	}()
	return fn(p)
}

// Narrate replaces names and descriptions using the Narrator. Cases whose
// narration fails keep their generated text. It is a no-op without a Narrator.
func (g *Generator) Narrate(ctx context.Context, cases []*casegen.TestCase) {
	if g.Narrator == nil {
		return
	}
	limit := g.NarrateConcurrency
	if limit <= 0 {
		limit = defaultNarrateConcurrency
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, tc := range cases {
		eg.Go(func() error {
			n, err := g.Narrator.Narrate(ctx, tc.Clone())
			if err != nil {
				g.logger().Warn("narrate", "case", tc.Name, "err", err)
				return nil
			}
			if n != nil && strings.TrimSpace(n.Name) != "" {
				tc.Name = strings.TrimSpace(n.Name)
			}
			if n != nil && strings.TrimSpace(n.Description) != "" {
				tc.Description = strings.TrimSpace(n.Description)
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// ClassifyForm identifies the purpose of a form from its fields.
func ClassifyForm(form casegen.Form) string {
	for _, f := range form.Fields {
		if strings.EqualFold(f.Type, "password") || containsFold(f.Name, "password") {
			return FormLogin
		}
	}
	for _, f := range form.Fields {
		if strings.EqualFold(f.Type, "email") || containsFold(f.Name, "email") || containsFold(f.ID, "email") {
			return FormRegister
		}
	}
	if containsFold(form.Action, "search") {
		return FormSearch
	}
	for _, f := range form.Fields {
		if containsFold(f.Name, "search") || containsFold(f.ID, "search") {
			return FormSearch
		}
	}
	return FormGeneral
}

// SyntheticValue returns test input appropriate for a field type.
func SyntheticValue(fieldType string) string {
	switch strings.ToLower(fieldType) {
	case "password":
		return "Test@123"
	case "email":
		return "test@example.com"
	case "number":
		return "123"
	case "date":
		return "2024-01-01"
	case "tel":
		return "1234567890"
	case "url":
		return "https://example.com"
	}
	return "test"
}

// fieldHints map name keywords to test input for fields whose type says
// nothing more than text. Earlier hints win, so specific keywords precede
// the generic ones they contain.
var fieldHints = []struct {
	keywords []string
	value    string
}{
	{[]string{"password", "passwd", "pwd"}, "Test@123"},
	{[]string{"email", "mail"}, "test@example.com"},
	{[]string{"username", "userid", "login", "user"}, "testuser"},
	{[]string{"firstname", "fname", "givenname"}, "Test"},
	{[]string{"lastname", "lname", "surname", "familyname"}, "User"},
	{[]string{"phone", "telephone", "mobile", "tel", "cell"}, "1234567890"},
	{[]string{"zip", "zipcode", "postal", "postcode", "postalcode"}, "10001"},
	{[]string{"city", "town"}, "New York"},
	{[]string{"state", "province", "region"}, "NY"},
	{[]string{"country"}, "USA"},
	{[]string{"company", "organization", "org", "business"}, "Test Company"},
	{[]string{"address", "street", "addr"}, "123 Main St"},
	{[]string{"website", "url", "homepage"}, "https://example.com"},
	{[]string{"dob", "birthday", "birthdate", "date"}, "2024-01-01"},
	{[]string{"qty", "quantity", "amount"}, "123"},
	{[]string{"search", "query", "q"}, "test query"},
	{[]string{"fullname", "name"}, "Test User"},
}

// FieldValue returns test input for a form field. Specific input types
// decide the value; text-like fields fall back to keywords in the field's
// name or id, then to SyntheticValue.
func FieldValue(f casegen.Field) string {
	switch strings.ToLower(f.Type) {
	case "", "text", "search", "textarea":
	default:
		return SyntheticValue(f.Type)
	}
	tokens := fieldTokens(f.Name + " " + f.ID)
	for _, h := range fieldHints {
		for _, kw := range h.keywords {
			if matchesKeyword(tokens, kw) {
				return h.value
			}
		}
	}
	return SyntheticValue(f.Type)
}

// fieldTokens splits a field name into lowercase words and also returns the
// words joined, so "first_name" yields "first", "name" and "firstname".
func fieldTokens(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) > 1 {
		words = append(words, strings.Join(words, ""))
	}
	return words
}

// matchesKeyword reports whether a token equals kw or, for keywords of four
// or more letters, contains it.
func matchesKeyword(tokens []string, kw string) bool {
	for _, t := range tokens {
		if t == kw || (len(kw) >= 4 && strings.Contains(t, kw)) {
			return true
		}
	}
	return false
}

func formCases(p casegen.PageState) []*casegen.TestCase {
	var out []*casegen.TestCase
	for _, form := range p.Forms {
		if tc := formCase(p, form); tc != nil {
			out = append(out, tc)
		}
	}
	return out
}

func formCase(p casegen.PageState, form casegen.Form) *casegen.TestCase {
	if len(form.Fields) == 0 {
		return nil
	}
	kind := ClassifyForm(form)

	steps := []casegen.Step{navigateStep(p.URL)}
	for _, f := range form.Fields {
		steps = append(steps, casegen.Step{
			Name:     "Fill " + fieldLabel(f),
			Action:   casegen.ActionType,
			Selector: f.Selector,
			Value:    FieldValue(f),
		})
	}
	if form.SubmitSelector != "" {
		steps = append(steps, casegen.Step{
			Name:     "Submit the form",
			Action:   casegen.ActionClick,
			Selector: form.SubmitSelector,
		})
	}

	tc := &casegen.TestCase{
		Steps:             steps,
		Tags:              []string{kind, "form", "e2e"},
		EstimatedDuration: len(steps) * formStepSeconds,
		Origin:            casegen.CaseOrigin{PageURL: p.URL, FormSelector: form.Selector},
	}
	switch kind {
	case FormLogin:
		tc.Name = "User login"
		tc.Description = "Log in with a username and password on " + p.URL
		tc.Priority = casegen.PriorityCritical
		tc.Assertions = []casegen.Assertion{{
			Type:        casegen.AssertURLContains,
			Value:       LoginRedirectPath,
			Description: "Lands on the post-login page",
		}}
	case FormRegister:
		tc.Name = "User registration"
		tc.Description = "Register a new account on " + p.URL
		tc.Priority = casegen.PriorityHigh
		tc.Assertions = []casegen.Assertion{actionAssertion(form.Action)}
	case FormSearch:
		tc.Name = "Search form submission"
		tc.Description = "Submit the search form on " + p.URL
		tc.Priority = casegen.PriorityHigh
		tc.Assertions = []casegen.Assertion{searchAssertion()}
	default:
		tc.Name = "Form submission - " + form.Action
		tc.Description = fmt.Sprintf("Submit the form posting to %s on %s", form.Action, p.URL)
		tc.Priority = casegen.PriorityMedium
		tc.Assertions = []casegen.Assertion{actionAssertion(form.Action)}
	}
	return tc
}

func navigationCases(p casegen.PageState) []*casegen.TestCase {
	if p.Depth > maxNavigationDepth {
		return nil
	}
	var out []*casegen.TestCase
	for _, link := range p.Links[:min(len(p.Links), maxNavigationLinks)] {
		selector := link.Selector
		if selector == "" {
			selector = fmt.Sprintf("a[href='%s']", link.URL)
		}
		label := strings.TrimSpace(link.Text)
		if label == "" {
			label = displayPath(link.URL)
		}
		out = append(out, &casegen.TestCase{
			Name:        "Navigate to " + label,
			Description: fmt.Sprintf("Follow the link from %s to %s", p.URL, link.URL),
			Priority:    casegen.PriorityMedium,
			Steps: []casegen.Step{
				navigateStep(p.URL),
				{Name: "Click link " + label, Action: casegen.ActionClick, Selector: selector},
			},
			Assertions: []casegen.Assertion{{
				Type:        casegen.AssertURLContains,
				Value:       link.URL,
				Description: "Lands on the link target",
			}},
			Tags:              []string{"navigation", "smoke"},
			EstimatedDuration: navigationSeconds,
			Origin:            casegen.CaseOrigin{PageURL: p.URL},
		})
	}
	return out
}

func interactionCases(p casegen.PageState) []*casegen.TestCase {
	var out []*casegen.TestCase
	for _, el := range p.Elements {
		if len(out) == maxInteractions {
			break
		}
		if !el.Clickable || el.Selector == "" {
			continue
		}
		label := truncate(strings.TrimSpace(el.Text), 50)
		if label == "" {
			label = el.Tag
		}
		out = append(out, &casegen.TestCase{
			Name:        fmt.Sprintf("Click %s %d", label, len(out)+1),
			Description: fmt.Sprintf("Click the %s element on %s", el.Tag, p.URL),
			Priority:    casegen.PriorityLow,
			Steps: []casegen.Step{
				navigateStep(p.URL),
				{Name: "Click " + label, Action: casegen.ActionClick, Selector: el.Selector},
			},
			Assertions: []casegen.Assertion{{
				Type:        casegen.AssertElementExists,
				Value:       el.Selector,
				Description: "Element exists and is clickable",
			}},
			Tags:              []string{"interaction", "ui"},
			EstimatedDuration: interactSeconds,
			Origin:            casegen.CaseOrigin{PageURL: p.URL},
		})
	}
	return out
}

func searchCases(p casegen.PageState) []*casegen.TestCase {
	var out []*casegen.TestCase
	for _, form := range p.Forms {
		if ClassifyForm(form) != FormSearch || len(form.Fields) == 0 {
			continue
		}
		steps := []casegen.Step{
			navigateStep(p.URL),
			{Name: "Enter a search term", Action: casegen.ActionType, Selector: form.Fields[0].Selector, Value: "test"},
		}
		if form.SubmitSelector != "" {
			steps = append(steps, casegen.Step{Name: "Run the search", Action: casegen.ActionClick, Selector: form.SubmitSelector})
		}
		out = append(out, &casegen.TestCase{
			Name:              "Search flow",
			Description:       "Search from " + p.URL + " and check that results appear",
			Priority:          casegen.PriorityHigh,
			Steps:             steps,
			Assertions:        []casegen.Assertion{searchAssertion()},
			Tags:              []string{"search", "e2e"},
			EstimatedDuration: searchSeconds,
			Origin:            casegen.CaseOrigin{PageURL: p.URL},
		})
	}
	return out
}

// uniqueByNameAndSteps keeps the first case for each (name, step count).
func uniqueByNameAndSteps(cases []*casegen.TestCase) []*casegen.TestCase {
	type key struct {
		name  string
		steps int
	}
	seen := make(map[key]bool, len(cases))
	out := make([]*casegen.TestCase, 0, len(cases))
	for _, tc := range cases {
		k := key{tc.Name, len(tc.Steps)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, tc)
	}
	return out
}

func navigateStep(pageURL string) casegen.Step {
	return casegen.Step{Name: "Open " + pageURL, Action: casegen.ActionNavigate, Value: pageURL}
}

func actionAssertion(action string) casegen.Assertion {
	return casegen.Assertion{Type: casegen.AssertURLContains, Value: action, Description: "Form submits to its action"}
}

func searchAssertion() casegen.Assertion {
	return casegen.Assertion{Type: casegen.AssertElementVisible, Value: SearchResultsSelector, Description: "Search results are shown"}
}

func fieldLabel(f casegen.Field) string {
	switch {
	case f.Name != "":
		return f.Name
	case f.ID != "":
		return f.ID
	}
	return f.Type + " field"
}

func displayPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	return u.Path
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
