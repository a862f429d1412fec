package casegen

// Link is an anchor discovered on a page.
type Link struct {
	URL        string `json:"url"`
	Text       string `json:"text,omitempty"`
	Selector   string `json:"selector"`
	IsExternal bool   `json:"isExternal,omitempty"`
}

// Field is an input inside a form.
type Field struct {
	Name     string `json:"name,omitempty"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Selector string `json:"selector"`
	Required bool   `json:"required,omitempty"`
}

// Form is a form discovered on a page.
type Form struct {
	Action         string  `json:"action"`
	Method         string  `json:"method"`
	Selector       string  `json:"selector"`
	Fields         []Field `json:"fields"`
	SubmitSelector string  `json:"submitSelector,omitempty"`
}

// Element is an interactive element discovered on a page.
type Element struct {
	Selector  string `json:"selector"`
	Tag       string `json:"tag"`
	Type      string `json:"type,omitempty"`
	Text      string `json:"text,omitempty"`
	Clickable bool   `json:"clickable"`
}

// PageData is the structured content of a rendered page.
type PageData struct {
	Links    []Link
	Forms    []Form
	Elements []Element
}

// Extractor turns rendered content into structured page data.
type Extractor interface {
	// Extract parses content and returns links, forms and interactive
	// elements. Relative URLs are resolved against pageURL.
	Extract(content string, pageURL string) (*PageData, error)
}

// PageClassifier identifies the kind of page from rendered content.
type PageClassifier interface {
	// Classify returns PageTypeUnknown if the kind cannot be determined.
	Classify(content string) PageType
}
