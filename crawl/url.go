package crawl

import (
	"net/url"
	"strings"

	"github.com/fwojciec/casegen"
)

var ignoredSchemes = []string{"javascript:", "mailto:", "tel:", "ftp:", "data:"}

var ignoredPaths = []string{"/logout", "/signout"}

var downloadExtensions = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip", ".rar"}

// NormalizeURL returns the canonical form of an absolute http(s) URL used as
// the page identity: lowercase scheme and host, default ports and fragment
// removed, empty path replaced by "/".
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", casegen.Errorf(casegen.EINVALID, "malformed URL %q", rawURL)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", casegen.Errorf(casegen.EINVALID, "URL %q is not absolute", rawURL)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", casegen.Errorf(casegen.EINVALID, "unsupported scheme %q", u.Scheme)
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	if (scheme == "http" && u.Port() == "80") || (scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// IsFollowable reports whether a link target is a syntactically valid
// absolute http(s) URL worth visiting. Fragment-only links, script and
// mail/tel/ftp/data links, logout endpoints and document downloads are
// rejected.
func IsFollowable(rawURL string) bool {
	raw := strings.TrimSpace(rawURL)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return false
	}
	lower := strings.ToLower(raw)
	for _, s := range ignoredSchemes {
		if strings.HasPrefix(lower, s) {
			return false
		}
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, p := range ignoredPaths {
		if strings.Contains(path, p) {
			return false
		}
	}
	for _, ext := range downloadExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}

// Host returns the host of rawURL, or the empty string if it cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
