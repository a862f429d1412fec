package casegen

// PageType is a coarse classification of a rendered page.
type PageType string

// Page types used as navigation hints.
const (
	PageTypeUnknown   PageType = ""
	PageTypeDashboard PageType = "dashboard"
	PageTypeList      PageType = "list"
	PageTypeForm      PageType = "form"
)

// PageState records what is known about one discovered URL.
type PageState struct {
	URL         string    `json:"url"`
	Depth       int       `json:"depth"`
	ParentURL   string    `json:"parentUrl,omitempty"`
	Visited     bool      `json:"visited"`
	Duplicate   bool      `json:"duplicate,omitempty"`
	Failed      bool      `json:"failed,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	PageType    PageType  `json:"pageType,omitempty"`
	Links       []Link    `json:"links,omitempty"`
	Forms       []Form    `json:"forms,omitempty"`
	Elements    []Element `json:"elements,omitempty"`
}

// Generatable reports whether test cases may be derived from the page.
func (p *PageState) Generatable() bool {
	return p.Visited && !p.Duplicate && !p.Failed
}

// QueueItem is a URL awaiting a visit together with the page that linked to it.
type QueueItem struct {
	URL       string
	ParentURL string
}

// Stats summarizes the state of an exploration.
type Stats struct {
	Total          int         `json:"total"`
	Visited        int         `json:"visited"`
	Queued         int         `json:"queued"`
	Duplicates     int         `json:"duplicates"`
	Failed         int         `json:"failed"`
	DepthHistogram map[int]int `json:"depthHistogram"`
}

// DuplicateRate returns the fraction of visited pages whose content
// duplicated an earlier page.
func (s Stats) DuplicateRate() float64 {
	if s.Visited == 0 {
		return 0
	}
	return float64(s.Duplicates) / float64(s.Visited)
}
