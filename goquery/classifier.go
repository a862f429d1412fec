package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/casegen"
)

// Ensure Classifier implements casegen.PageClassifier at compile time.
var _ casegen.PageClassifier = (*Classifier)(nil)

// Thresholds for structural classification.
const (
	dashboardWidgets = 3
	dashboardLinks   = 20
	listRows         = 5
	listLinks        = 6
)

// Classifier identifies the kind of application page from its markup.
// It checks for form, dashboard and list markers in that order and falls
// back to link density.
type Classifier struct{}

// NewClassifier creates a new Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns PageTypeUnknown if the page cannot be parsed or shows
// no distinctive structure.
func (c *Classifier) Classify(content string) casegen.PageType {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return casegen.PageTypeUnknown
	}

	// A password field or a form in the main content makes the form the
	// point of the page; a search box in the header does not.
	if c.hasSelector(doc, "form input[type='password']") ||
		c.hasSelector(doc, "main form, [role='main'] form, article form") {
		return casegen.PageTypeForm
	}

	if c.hasSelector(doc, "[class*='dashboard'], [id*='dashboard']") ||
		c.count(doc, ".widget, .card, .panel, .stat, [class*='metric']") >= dashboardWidgets {
		return casegen.PageTypeDashboard
	}

	if c.count(doc, "table tbody tr") >= listRows ||
		c.count(doc, "main ul > li a, main ol > li a, [role='list'] a") >= listLinks {
		return casegen.PageTypeList
	}

	if c.hasSelector(doc, "form") {
		return casegen.PageTypeForm
	}
	switch links := c.count(doc, "a[href]"); {
	case links > dashboardLinks:
		return casegen.PageTypeDashboard
	case links >= listLinks:
		return casegen.PageTypeList
	}
	return casegen.PageTypeUnknown
}

// hasSelector checks if the document contains at least one element matching the selector.
func (c *Classifier) hasSelector(doc *goquery.Document, selector string) bool {
	return doc.Find(selector).Length() > 0
}

func (c *Classifier) count(doc *goquery.Document, selector string) int {
	return doc.Find(selector).Length()
}
