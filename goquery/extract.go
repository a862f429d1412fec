package goquery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/casegen"
	"golang.org/x/net/html"
)

// Ensure Extractor implements casegen.Extractor at compile time.
var _ casegen.Extractor = (*Extractor)(nil)

// maxElementText bounds the text recorded for an interactive element.
const maxElementText = 80

// interactiveSelector matches elements a user can act on.
const interactiveSelector = "a[href], button, input, select, textarea, [role='button'], [onclick]"

// Extractor parses rendered HTML into links, forms and interactive elements.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses content. Relative URLs are resolved against pageURL.
func (e *Extractor) Extract(content string, pageURL string) (*casegen.PageData, error) {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return nil, casegen.Errorf(casegen.EINVALID, "invalid page URL %q", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, casegen.Errorf(casegen.EINVALID, "failed to parse HTML: %v", err)
	}

	return &casegen.PageData{
		Links:    extractLinks(doc, base),
		Forms:    extractForms(doc, base),
		Elements: extractElements(doc),
	}, nil
}

// extractLinks returns anchors in document order, deduplicated by resolved
// URL. Self references and non-HTTP schemes are skipped.
func extractLinks(doc *goquery.Document, base *url.URL) []casegen.Link {
	seen := make(map[string]bool)
	var links []casegen.Link

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || isNonHTTPLink(href) {
			return
		}
		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true

		links = append(links, casegen.Link{
			URL:        resolved,
			Text:       collapse(sel.Text()),
			Selector:   anchorSelector(doc, sel, href),
			IsExternal: !isSameHost(base, resolved),
		})
	})
	return links
}

func extractForms(doc *goquery.Document, base *url.URL) []casegen.Form {
	var forms []casegen.Form

	doc.Find("form").Each(func(i int, sel *goquery.Selection) {
		selector := stableSelector(sel)
		if selector == "" {
			selector = fmt.Sprintf("form:nth-of-type(%d)", i+1)
		}

		action := base.String()
		if a, ok := sel.Attr("action"); ok && strings.TrimSpace(a) != "" {
			if ref, err := url.Parse(strings.TrimSpace(a)); err == nil {
				action = base.ResolveReference(ref).String()
			}
		}
		method := strings.ToUpper(strings.TrimSpace(sel.AttrOr("method", "GET")))
		if method == "" {
			method = "GET"
		}

		form := casegen.Form{
			Action:   action,
			Method:   method,
			Selector: selector,
		}

		sel.Find("input, select, textarea").Each(func(_ int, in *goquery.Selection) {
			if f, ok := extractField(in); ok {
				form.Fields = append(form.Fields, f)
			}
		})

		submit := sel.Find("button[type='submit'], input[type='submit']").First()
		if submit.Length() == 0 {
			submit = sel.Find("button:not([type])").First()
		}
		if submit.Length() > 0 {
			form.SubmitSelector = stableSelector(submit)
			if form.SubmitSelector == "" {
				form.SubmitSelector = selector + " " + goquery.NodeName(submit)
				if _, typed := submit.Attr("type"); typed {
					form.SubmitSelector += "[type='submit']"
				}
			}
		}

		forms = append(forms, form)
	})
	return forms
}

// extractField describes a form control. Hidden and button-like inputs and
// controls with neither name nor id are skipped.
func extractField(sel *goquery.Selection) (casegen.Field, bool) {
	tag := goquery.NodeName(sel)
	typ := strings.ToLower(sel.AttrOr("type", ""))
	switch tag {
	case "select", "textarea":
		typ = tag
	default:
		if typ == "" {
			typ = "text"
		}
	}
	switch typ {
	case "hidden", "submit", "button", "reset", "image":
		return casegen.Field{}, false
	}

	name := sel.AttrOr("name", "")
	id := sel.AttrOr("id", "")
	if name == "" && id == "" {
		return casegen.Field{}, false
	}

	selector := "#" + id
	if id == "" {
		selector = fmt.Sprintf("%s[name='%s']", tag, quote(name))
	}
	_, required := sel.Attr("required")
	return casegen.Field{
		Name:     name,
		ID:       id,
		Type:     typ,
		Selector: selector,
		Required: required,
	}, true
}

// extractElements lists interactive elements with a stable selector,
// deduplicated by selector.
func extractElements(doc *goquery.Document) []casegen.Element {
	seen := make(map[string]bool)
	var elements []casegen.Element

	doc.Find(interactiveSelector).Each(func(_ int, sel *goquery.Selection) {
		n := sel.Get(0)
		tag := n.Data
		typ := strings.ToLower(attr(n, "type"))
		if tag == "input" && typ == "hidden" {
			return
		}
		selector := stableSelector(sel)
		if href, ok := sel.Attr("href"); ok && tag == "a" {
			selector = anchorSelector(doc, sel, href)
		}
		if selector == "" || seen[selector] {
			return
		}
		seen[selector] = true

		text := collapse(sel.Text())
		if text == "" {
			text = collapse(firstNonEmpty(attr(n, "aria-label"), attr(n, "value"), attr(n, "placeholder")))
		}
		elements = append(elements, casegen.Element{
			Selector:  selector,
			Tag:       tag,
			Type:      typ,
			Text:      truncate(text, maxElementText),
			Clickable: isClickable(n, typ),
		})
	})
	return elements
}

func isClickable(n *html.Node, typ string) bool {
	switch n.Data {
	case "a", "button":
		return true
	case "input":
		switch typ {
		case "submit", "button", "reset", "checkbox", "radio", "image", "file":
			return true
		}
		return false
	}
	return attr(n, "role") == "button" || hasAttr(n, "onclick")
}

// anchorSelector identifies a link by a document-unique id or test id,
// falling back to its raw href. Class selectors are never used for links:
// navigation bars share classes across every item.
func anchorSelector(doc *goquery.Document, sel *goquery.Selection, href string) string {
	n := sel.Get(0)
	var candidates []string
	if id := strings.TrimSpace(attr(n, "id")); id != "" && !strings.ContainsAny(id, " \t") {
		candidates = append(candidates, "#"+id)
	}
	if v := attr(n, "data-testid"); v != "" {
		candidates = append(candidates, fmt.Sprintf("[data-testid='%s']", quote(v)))
	}
	if v := attr(n, "data-cy"); v != "" {
		candidates = append(candidates, fmt.Sprintf("[data-cy='%s']", quote(v)))
	}
	for _, c := range candidates {
		if doc.Find(c).Length() == 1 {
			return c
		}
	}
	return fmt.Sprintf("a[href='%s']", quote(href))
}

// stableSelector builds the most stable CSS selector available for sel:
// id, then test ids, then name, then aria-label, then classes. It returns
// "" when the element carries none of these.
func stableSelector(sel *goquery.Selection) string {
	n := sel.Get(0)
	if n == nil {
		return ""
	}
	tag := n.Data
	if id := strings.TrimSpace(attr(n, "id")); id != "" && !strings.ContainsAny(id, " \t") {
		return "#" + id
	}
	if v := attr(n, "data-testid"); v != "" {
		return fmt.Sprintf("[data-testid='%s']", quote(v))
	}
	if v := attr(n, "data-cy"); v != "" {
		return fmt.Sprintf("[data-cy='%s']", quote(v))
	}
	if v := attr(n, "name"); v != "" {
		return fmt.Sprintf("%s[name='%s']", tag, quote(v))
	}
	if v := attr(n, "aria-label"); v != "" {
		return fmt.Sprintf("%s[aria-label='%s']", tag, quote(v))
	}
	if classes := strings.Fields(attr(n, "class")); len(classes) > 0 {
		return tag + "." + strings.Join(classes, ".")
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed or if the resolved URL
// is self-referential (same as base URL after stripping fragment).
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isSameHost checks if the resolved URL has the same host as the base URL.
// Subdomains are considered different hosts.
func isSameHost(base *url.URL, resolved string) bool {
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, base.Host)
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		strings.HasPrefix(href, "#")
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
