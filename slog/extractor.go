package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/casegen"
)

// Ensure LoggingExtractor implements casegen.Extractor.
var _ casegen.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with debug logging of what each page
// yielded.
type LoggingExtractor struct {
	next   casegen.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next casegen.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract logs link, form and element counts and delegates to the wrapped
// extractor.
func (e *LoggingExtractor) Extract(content string, pageURL string) (data *casegen.PageData, err error) {
	defer func(begin time.Time) {
		var links, forms, elements int
		if data != nil {
			links, forms, elements = len(data.Links), len(data.Forms), len(data.Elements)
		}
		e.logger.Debug("extract",
			"url", pageURL,
			"links", links,
			"forms", forms,
			"elements", elements,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(content, pageURL)
}
