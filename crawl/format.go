// Package crawl provides the page-visitation state and link-following
// policies used to explore a web application.
package crawl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// interTagSpace matches whitespace between two tags.
var interTagSpace = regexp.MustCompile(`>\s+<`)

// Fingerprint returns a deterministic hash of normalized page content.
// Whitespace between tags is dropped, other runs of whitespace collapse to a
// single space and the result is trimmed, so content that differs only in
// formatting shares a fingerprint.
func Fingerprint(content string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(normalizeContent(content)))
}

func normalizeContent(content string) string {
	return strings.Join(strings.Fields(interTagSpace.ReplaceAllString(content, "><")), " ")
}

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}
