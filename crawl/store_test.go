package crawl_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageStore_AddPage(t *testing.T) {
	t.Parallel()

	t.Run("first discovery wins", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.AddPage("https://example.com/a", 1, "https://example.com/")
		got := s.AddPage("https://example.com/a", 3, "https://example.com/x/y")

		assert.Equal(t, 1, got.Depth)
		assert.Equal(t, "https://example.com/", got.ParentURL)
		assert.Equal(t, 1, s.Stats().Total)
	})

	t.Run("returns a copy", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		p := s.AddPage("https://example.com/", 0, "")
		p.Depth = 7

		got, ok := s.Page("https://example.com/")
		require.True(t, ok)
		assert.Equal(t, 0, got.Depth)
	})
}

func TestPageStore_MarkVisited(t *testing.T) {
	t.Parallel()

	t.Run("sets fingerprint", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.AddPage("https://example.com/", 0, "")
		s.MarkVisited("https://example.com/", "<p>home</p>")

		p, _ := s.Page("https://example.com/")
		assert.True(t, p.Visited)
		assert.Equal(t, crawl.Fingerprint("<p>home</p>"), p.Fingerprint)
		assert.Equal(t, 1, s.Stats().Visited)
	})

	t.Run("fingerprint is immutable once visited", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.AddPage("https://example.com/", 0, "")
		s.MarkVisited("https://example.com/", "<p>first</p>")
		s.MarkVisited("https://example.com/", "<p>second</p>")

		p, _ := s.Page("https://example.com/")
		assert.Equal(t, crawl.Fingerprint("<p>first</p>"), p.Fingerprint)
		assert.Equal(t, 1, s.Stats().Visited)
	})

	t.Run("is a no-op for unknown pages", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.MarkVisited("https://example.com/ghost", "<p>x</p>")

		_, ok := s.Page("https://example.com/ghost")
		assert.False(t, ok)
		assert.False(t, s.IsDuplicateContent("<p>x</p>"))
		assert.Zero(t, s.Stats().Visited)
	})
}

func TestPageStore_IsDuplicateContent(t *testing.T) {
	t.Parallel()

	s := crawl.NewPageStore(10)
	s.AddPage("https://example.com/?sid=1", 0, "")
	s.MarkVisited("https://example.com/?sid=1", "<html><body>Welcome</body></html>")

	assert.True(t, s.IsDuplicateContent("<html><body>Welcome</body></html>"))
	assert.True(t, s.IsDuplicateContent("<html>\n<body>Welcome</body>\n</html>"))
	assert.False(t, s.IsDuplicateContent("<html><body>Other</body></html>"))
}

func TestPageStore_MarkDuplicate(t *testing.T) {
	t.Parallel()

	s := crawl.NewPageStore(10)
	s.AddPage("https://example.com/a", 0, "")
	s.AddPage("https://example.com/b", 1, "https://example.com/a")
	s.MarkVisited("https://example.com/a", "same")
	s.MarkDuplicate("https://example.com/b", "same")

	b, _ := s.Page("https://example.com/b")
	assert.True(t, b.Visited)
	assert.True(t, b.Duplicate)
	assert.NotEmpty(t, b.Fingerprint)
	assert.False(t, b.Generatable())

	stats := s.Stats()
	assert.Equal(t, 2, stats.Visited)
	assert.Equal(t, 1, stats.Duplicates)
	assert.InDelta(t, 0.5, stats.DuplicateRate(), 0.0001)
}

func TestPageStore_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("rejects URLs already queued", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		assert.True(t, s.Enqueue("https://example.com/a", ""))
		assert.False(t, s.Enqueue("https://example.com/a", ""))
		assert.Equal(t, 1, s.Stats().Queued)
	})

	t.Run("rejects visited URLs", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.AddPage("https://example.com/a", 0, "")
		s.MarkVisited("https://example.com/a", "x")

		assert.False(t, s.Enqueue("https://example.com/a", ""))
	})

	t.Run("rejects failed URLs", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.AddPage("https://example.com/a", 0, "")
		s.MarkFailed("https://example.com/a")

		assert.False(t, s.Enqueue("https://example.com/a", ""))
		assert.Equal(t, 1, s.Stats().Failed)
	})

	t.Run("rejects when queue is at page budget", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(2)
		assert.True(t, s.Enqueue("https://example.com/1", ""))
		assert.True(t, s.Enqueue("https://example.com/2", ""))
		assert.False(t, s.Enqueue("https://example.com/3", ""))

		// Capacity rejection does not poison later attempts.
		s.NextPending()
		assert.True(t, s.Enqueue("https://example.com/3", ""))
	})

	t.Run("never re-enqueues a popped URL", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.Enqueue("https://example.com/a", "")
		s.NextPending()

		assert.False(t, s.Enqueue("https://example.com/a", ""))
	})
}

func TestPageStore_NextPending(t *testing.T) {
	t.Parallel()

	t.Run("pops in FIFO order", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.Enqueue("https://example.com/1", "p")
		s.Enqueue("https://example.com/2", "p")
		s.Enqueue("https://example.com/3", "p")

		var got []string
		for {
			item, ok := s.NextPending()
			if !ok {
				break
			}
			assert.Equal(t, "p", item.ParentURL)
			got = append(got, item.URL)
		}
		assert.Equal(t, []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"}, got)
	})

	t.Run("returns false when empty", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		_, ok := s.NextPending()
		assert.False(t, ok)
	})
}

func TestPageStore_ShouldContinue(t *testing.T) {
	t.Parallel()

	s := crawl.NewPageStore(1)
	assert.False(t, s.ShouldContinue(), "empty queue")

	s.Enqueue("https://example.com/a", "")
	assert.True(t, s.ShouldContinue())

	s.AddPage("https://example.com/b", 0, "")
	s.MarkVisited("https://example.com/b", "b")
	assert.False(t, s.ShouldContinue(), "visit budget exhausted")
}

func TestPageStore_Stats(t *testing.T) {
	t.Parallel()

	s := crawl.NewPageStore(10)
	s.AddPage("https://example.com/", 0, "")
	s.AddPage("https://example.com/a", 1, "https://example.com/")
	s.AddPage("https://example.com/b", 1, "https://example.com/")
	s.AddPage("https://example.com/a/c", 2, "https://example.com/a")
	s.Enqueue("https://example.com/a", "https://example.com/")

	stats := s.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Queued)
	assert.Equal(t, map[int]int{0: 1, 1: 2, 2: 1}, stats.DepthHistogram)
}

func TestPageStore_PathTo(t *testing.T) {
	t.Parallel()

	t.Run("reconstructs discovery chain", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.AddPage("https://example.com/", 0, "")
		s.AddPage("https://example.com/a", 1, "https://example.com/")
		s.AddPage("https://example.com/a/b", 2, "https://example.com/a")

		assert.Equal(t, []string{
			"https://example.com/",
			"https://example.com/a",
			"https://example.com/a/b",
		}, s.PathTo("https://example.com/a/b"))
	})

	t.Run("returns partial path on cycles", func(t *testing.T) {
		t.Parallel()

		s := crawl.NewPageStore(10)
		s.AddPage("https://example.com/a", 1, "https://example.com/b")
		s.AddPage("https://example.com/b", 1, "https://example.com/a")

		path := s.PathTo("https://example.com/a")
		assert.Equal(t, []string{"https://example.com/b", "https://example.com/a"}, path)
	})
}

func TestPageStore_SetPageData(t *testing.T) {
	t.Parallel()

	s := crawl.NewPageStore(10)
	s.AddPage("https://example.com/", 0, "")
	data := &casegen.PageData{
		Links: []casegen.Link{{URL: "https://example.com/a", Selector: "#a"}},
		Forms: []casegen.Form{{Selector: "form#login", Fields: []casegen.Field{{Name: "user", Type: "text"}}}},
	}
	s.SetPageData("https://example.com/", data, casegen.PageTypeForm)

	data.Forms[0].Fields[0].Name = "mutated"

	p, _ := s.Page("https://example.com/")
	require.Len(t, p.Forms, 1)
	assert.Equal(t, "user", p.Forms[0].Fields[0].Name)
	assert.Equal(t, casegen.PageTypeForm, p.PageType)
	assert.Len(t, p.Links, 1)
}

func TestPageStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := crawl.NewPageStore(1000)
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := range 50 {
				url := fmt.Sprintf("https://example.com/%d/%d", i, j)
				s.AddPage(url, 1, "")
				s.Enqueue(url, "")
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 500, s.Stats().Queued)
}
