package casegen

// FollowContext carries what a strategy may consider when judging links
// discovered on the page just visited.
type FollowContext struct {
	// Depth is the depth of the page the links were found on.
	Depth    int
	MaxDepth int

	// Visited reports whether a URL has already been visited.
	Visited func(url string) bool

	PageType PageType
	Viewport Viewport
	Boxes    map[string]Box
}

// IsVisited is nil-safe access to Visited.
func (fc FollowContext) IsVisited(url string) bool {
	return fc.Visited != nil && fc.Visited(url)
}

// Strategy decides which discovered links to follow and in which order.
type Strategy interface {
	Name() StrategyName

	// ShouldFollow reports whether link should be enqueued.
	ShouldFollow(link Link, fc FollowContext) bool

	// RankLinks orders an accepted batch so preferred links are visited first.
	// It must not modify the input slice.
	RankLinks(links []Link, fc FollowContext) []Link

	// ShouldStop reports additional stop conditions beyond the page budget.
	ShouldStop(stats Stats) bool
}
