package crawl

import (
	"slices"
	"sync"

	"github.com/fwojciec/casegen"
)

// PageStore owns the crawl state of one exploration: discovered pages, the
// FIFO exploration queue and the content fingerprint index.
// It is safe for concurrent use by multiple goroutines.
type PageStore struct {
	mu       sync.Mutex
	maxPages int

	pages map[string]*casegen.PageState
	order []string

	queue  []casegen.QueueItem
	queued map[string]struct{} // every URL ever enqueued

	fingerprints map[string]string
	visited      int
	duplicates   int
	failed       int
}

// NewPageStore creates a store whose queue and visit count are bounded by maxPages.
func NewPageStore(maxPages int) *PageStore {
	return &PageStore{
		maxPages:     maxPages,
		pages:        make(map[string]*casegen.PageState),
		queued:       make(map[string]struct{}),
		fingerprints: make(map[string]string),
	}
}

// AddPage records a discovered URL. If the URL is already known the existing
// record is returned unchanged; the first discovery's depth and parent win.
func (s *PageStore) AddPage(url string, depth int, parent string) casegen.PageState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pages[url]; ok {
		return clonePage(p)
	}
	p := &casegen.PageState{URL: url, Depth: depth, ParentURL: parent}
	s.pages[url] = p
	s.order = append(s.order, url)
	return clonePage(p)
}

// MarkVisited fingerprints content and marks the page visited.
// It is a no-op for unknown or already visited pages.
func (s *PageStore) MarkVisited(url, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[url]
	if !ok || p.Visited {
		return
	}
	fp := Fingerprint(content)
	p.Visited = true
	p.Fingerprint = fp
	s.visited++
	if _, seen := s.fingerprints[fp]; !seen {
		s.fingerprints[fp] = url
	}
}

// MarkDuplicate marks the page visited as a content duplicate of an earlier
// page. It counts as explored but is excluded from case generation.
func (s *PageStore) MarkDuplicate(url, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[url]
	if !ok || p.Visited {
		return
	}
	p.Visited = true
	p.Duplicate = true
	p.Fingerprint = Fingerprint(content)
	s.visited++
	s.duplicates++
}

// MarkFailed records that the page could not be rendered.
func (s *PageStore) MarkFailed(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[url]
	if !ok || p.Failed || p.Visited {
		return
	}
	p.Failed = true
	s.failed++
}

// IsDuplicateContent reports whether a visited page already has the
// fingerprint of content.
func (s *PageStore) IsDuplicateContent(content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.fingerprints[Fingerprint(content)]
	return ok
}

// SetPageData caches extraction results on a known page.
func (s *PageStore) SetPageData(url string, data *casegen.PageData, pageType casegen.PageType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[url]
	if !ok || data == nil {
		return
	}
	p.Links = slices.Clone(data.Links)
	p.Forms = cloneForms(data.Forms)
	p.Elements = slices.Clone(data.Elements)
	p.PageType = pageType
}

// Enqueue appends url to the exploration queue. It reports false without
// changing anything if the URL was visited, has been queued before or the
// queue is at the page budget.
func (s *PageStore) Enqueue(url, parent string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pages[url]; ok && (p.Visited || p.Failed) {
		return false
	}
	if _, ok := s.queued[url]; ok {
		return false
	}
	if len(s.queue) >= s.maxPages {
		return false
	}
	s.queued[url] = struct{}{}
	s.queue = append(s.queue, casegen.QueueItem{URL: url, ParentURL: parent})
	return true
}

// NextPending pops the oldest queued item.
// The bool result is false if the queue is empty.
func (s *PageStore) NextPending() (casegen.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return casegen.QueueItem{}, false
	}
	item := s.queue[0]
	s.queue[0] = casegen.QueueItem{}
	s.queue = s.queue[1:]
	return item, true
}

// ShouldContinue reports whether the queue is non-empty and fewer than
// maxPages pages have been visited.
func (s *PageStore) ShouldContinue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queue) > 0 && s.visited < s.maxPages
}

// Visited reports whether url has been visited.
func (s *PageStore) Visited(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[url]
	return ok && p.Visited
}

// Page returns a copy of the record for url.
func (s *PageStore) Page(url string) (casegen.PageState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pages[url]
	if !ok {
		return casegen.PageState{}, false
	}
	return clonePage(p), true
}

// Snapshot returns copies of all pages in discovery order.
func (s *PageStore) Snapshot() []casegen.PageState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]casegen.PageState, 0, len(s.order))
	for _, url := range s.order {
		out = append(out, clonePage(s.pages[url]))
	}
	return out
}

// Stats summarizes the store.
func (s *PageStore) Stats() casegen.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist := make(map[int]int)
	for _, p := range s.pages {
		hist[p.Depth]++
	}
	return casegen.Stats{
		Total:          len(s.pages),
		Visited:        s.visited,
		Queued:         len(s.queue),
		Duplicates:     s.duplicates,
		Failed:         s.failed,
		DepthHistogram: hist,
	}
}

// PathTo reconstructs the discovery chain from the start URL to url by
// following parent references. A cycle ends the walk and the partial path
// is returned.
func (s *PageStore) PathTo(url string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var path []string
	seen := make(map[string]bool)
	for cur := url; cur != "" && !seen[cur]; {
		seen[cur] = true
		path = append(path, cur)
		p, ok := s.pages[cur]
		if !ok {
			break
		}
		cur = p.ParentURL
	}
	slices.Reverse(path)
	return path
}

func clonePage(p *casegen.PageState) casegen.PageState {
	c := *p
	c.Links = slices.Clone(p.Links)
	c.Forms = cloneForms(p.Forms)
	c.Elements = slices.Clone(p.Elements)
	return c
}

func cloneForms(forms []casegen.Form) []casegen.Form {
	if forms == nil {
		return nil
	}
	out := make([]casegen.Form, len(forms))
	for i, f := range forms {
		out[i] = f
		out[i].Fields = slices.Clone(f.Fields)
	}
	return out
}
