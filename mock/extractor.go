package mock

import "github.com/fwojciec/casegen"

var _ casegen.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of casegen.Extractor.
type Extractor struct {
	ExtractFn func(content string, pageURL string) (*casegen.PageData, error)
}

func (e *Extractor) Extract(content string, pageURL string) (*casegen.PageData, error) {
	return e.ExtractFn(content, pageURL)
}

var _ casegen.PageClassifier = (*PageClassifier)(nil)

// PageClassifier is a mock implementation of casegen.PageClassifier.
type PageClassifier struct {
	ClassifyFn func(content string) casegen.PageType
}

func (c *PageClassifier) Classify(content string) casegen.PageType {
	return c.ClassifyFn(content)
}
