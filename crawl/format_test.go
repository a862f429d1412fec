package crawl_test

import (
	"testing"

	"github.com/fwojciec/casegen/crawl"
	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, crawl.Fingerprint("<p>hello</p>"), crawl.Fingerprint("<p>hello</p>"))
	})

	t.Run("ignores whitespace differences", func(t *testing.T) {
		t.Parallel()
		a := crawl.Fingerprint("<html>\n  <body>hello   world</body>\n</html>")
		b := crawl.Fingerprint("<html> <body>hello world</body> </html>  ")
		assert.Equal(t, a, b)
	})

	t.Run("ignores whitespace between tags", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t,
			crawl.Fingerprint("<html><body>Welcome</body></html>"),
			crawl.Fingerprint("<html>\n<body>Welcome</body>\n</html>"))
		assert.NotEqual(t, crawl.Fingerprint("<p>a b</p>"), crawl.Fingerprint("<p>ab</p>"))
	})

	t.Run("differs for different content", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, crawl.Fingerprint("<p>a</p>"), crawl.Fingerprint("<p>b</p>"))
	})

	t.Run("renders sixteen hex digits", func(t *testing.T) {
		t.Parallel()
		assert.Regexp(t, `^[0-9a-f]{16}$`, crawl.Fingerprint(""))
	})
}

func TestTruncateURL(t *testing.T) {
	t.Parallel()

	t.Run("returns URL unchanged when shorter than max", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "https://x.com", crawl.TruncateURL("https://x.com", 50))
	})

	t.Run("truncates with ellipsis when longer than max", func(t *testing.T) {
		t.Parallel()
		url := "https://example.com/very/long/path/to/settings"
		result := crawl.TruncateURL(url, 20)
		assert.Equal(t, ".../path/to/settings", result)
		assert.Len(t, result, 20)
	})

	t.Run("returns empty string when maxLen is not positive", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, crawl.TruncateURL("https://example.com", 0))
		assert.Empty(t, crawl.TruncateURL("https://example.com", -1))
	})

	t.Run("returns prefix of URL when maxLen is very small", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "htt", crawl.TruncateURL("https://example.com", 3))
	})
}
