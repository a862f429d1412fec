package crawl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/casegen"
)

// Keyword weights used to rank links.
const (
	authKeywordScore    = 10
	primaryKeywordScore = 5
	descriptiveScore    = 2
	anchorTextScore     = 1
	externalPenalty     = 5
	prominenceBonus     = 3

	// descriptiveTextLen is the anchor length, in runes, that counts as descriptive.
	descriptiveTextLen = 12

	// dfsAlwaysFollowDepth is the depth below which DepthFirst follows every link.
	dfsAlwaysFollowDepth = 2

	// adaptiveDuplicateRate is the duplicate fraction above which Adaptive stops.
	adaptiveDuplicateRate = 0.8
	// adaptiveMinVisited is the visit count before the duplicate rate is trusted.
	adaptiveMinVisited = 5
)

var authKeywords = []string{"login", "signin", "sign-in", "auth", "register", "signup"}

var primaryKeywords = []string{"dashboard", "home", "profile", "settings", "account"}

// Compile-time interface verification.
var (
	_ casegen.Strategy = (*BreadthFirst)(nil)
	_ casegen.Strategy = (*DepthFirst)(nil)
	_ casegen.Strategy = (*Priority)(nil)
	_ casegen.Strategy = (*Adaptive)(nil)
)

// NewStrategy returns the strategy registered under name.
func NewStrategy(name casegen.StrategyName) (casegen.Strategy, error) {
	switch name {
	case casegen.StrategyBreadthFirst:
		return &BreadthFirst{}, nil
	case casegen.StrategyDepthFirst:
		return &DepthFirst{}, nil
	case casegen.StrategyPriority:
		return &Priority{}, nil
	case casegen.StrategyAdaptive:
		return &Adaptive{}, nil
	}
	return nil, casegen.Errorf(casegen.EINVALID, "unknown strategy %q", name)
}

// StrategyNames lists the names accepted by NewStrategy.
func StrategyNames() []casegen.StrategyName {
	return []casegen.StrategyName{
		casegen.StrategyBreadthFirst,
		casegen.StrategyDepthFirst,
		casegen.StrategyPriority,
		casegen.StrategyAdaptive,
	}
}

// Score returns the keyword weight of a link. Authentication links score
// highest, then primary navigation, then links with descriptive anchor text.
// External links are penalized. The result is never negative.
func Score(link casegen.Link) int {
	haystack := strings.ToLower(link.URL + " " + link.Text)
	score := 0
	if containsAny(haystack, authKeywords) {
		score += authKeywordScore
	}
	if containsAny(haystack, primaryKeywords) {
		score += primaryKeywordScore
	}
	text := strings.TrimSpace(link.Text)
	if utf8.RuneCountInString(text) >= descriptiveTextLen {
		score += descriptiveScore
	}
	if text != "" {
		score += anchorTextScore
	}
	if link.IsExternal {
		score -= externalPenalty
	}
	return max(score, 0)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func isPrimaryNavigation(link casegen.Link) bool {
	return containsAny(strings.ToLower(link.URL+" "+link.Text), primaryKeywords)
}

// baseFollow applies the rules shared by every strategy: a followable URL,
// not yet visited, whose depth stays within the budget.
func baseFollow(link casegen.Link, fc casegen.FollowContext) bool {
	if !IsFollowable(link.URL) {
		return false
	}
	if fc.Depth+1 > fc.MaxDepth {
		return false
	}
	return !fc.IsVisited(link.URL)
}

// rankBy returns a copy of links sorted by descending score. Ties keep
// discovery order.
func rankBy(links []casegen.Link, score func(casegen.Link) int) []casegen.Link {
	out := slices.Clone(links)
	scores := make(map[string]int, len(out))
	for _, l := range out {
		scores[l.URL] = score(l)
	}
	slices.SortStableFunc(out, func(a, b casegen.Link) int {
		return scores[b.URL] - scores[a.URL]
	})
	return out
}

// BreadthFirst follows every valid link and preserves discovery order,
// which with the FIFO queue yields level-by-level traversal.
type BreadthFirst struct{}

func (*BreadthFirst) Name() casegen.StrategyName { return casegen.StrategyBreadthFirst }

func (*BreadthFirst) ShouldFollow(link casegen.Link, fc casegen.FollowContext) bool {
	return baseFollow(link, fc)
}

func (*BreadthFirst) RankLinks(links []casegen.Link, _ casegen.FollowContext) []casegen.Link {
	return slices.Clone(links)
}

func (*BreadthFirst) ShouldStop(casegen.Stats) bool { return false }

// DepthFirst pushes into primary navigation. Near the start page it follows
// everything; deeper it only follows links that look like primary navigation.
type DepthFirst struct{}

func (*DepthFirst) Name() casegen.StrategyName { return casegen.StrategyDepthFirst }

func (*DepthFirst) ShouldFollow(link casegen.Link, fc casegen.FollowContext) bool {
	if !baseFollow(link, fc) {
		return false
	}
	return fc.Depth < dfsAlwaysFollowDepth || isPrimaryNavigation(link)
}

func (*DepthFirst) RankLinks(links []casegen.Link, _ casegen.FollowContext) []casegen.Link {
	return rankBy(links, Score)
}

func (*DepthFirst) ShouldStop(casegen.Stats) bool { return false }

// Priority ranks links purely by keyword weight.
type Priority struct{}

func (*Priority) Name() casegen.StrategyName { return casegen.StrategyPriority }

func (*Priority) ShouldFollow(link casegen.Link, fc casegen.FollowContext) bool {
	return baseFollow(link, fc)
}

func (*Priority) RankLinks(links []casegen.Link, _ casegen.FollowContext) []casegen.Link {
	return rankBy(links, Score)
}

func (*Priority) ShouldStop(casegen.Stats) bool { return false }

// Adaptive switches behavior on the type of the page just visited:
// breadth-first on dashboards, depth-first on lists and a blend of keyword
// weight and on-screen prominence elsewhere. It stops early once most
// visited pages turn out to be content duplicates.
type Adaptive struct {
	bfs BreadthFirst
	dfs DepthFirst
}

func (*Adaptive) Name() casegen.StrategyName { return casegen.StrategyAdaptive }

func (a *Adaptive) ShouldFollow(link casegen.Link, fc casegen.FollowContext) bool {
	switch fc.PageType {
	case casegen.PageTypeDashboard:
		return a.bfs.ShouldFollow(link, fc)
	case casegen.PageTypeList:
		return a.dfs.ShouldFollow(link, fc)
	}
	return baseFollow(link, fc)
}

func (a *Adaptive) RankLinks(links []casegen.Link, fc casegen.FollowContext) []casegen.Link {
	switch fc.PageType {
	case casegen.PageTypeDashboard:
		return a.bfs.RankLinks(links, fc)
	case casegen.PageTypeList:
		return a.dfs.RankLinks(links, fc)
	}
	return rankBy(links, func(l casegen.Link) int {
		score := Score(l)
		if Prominent(fc.Boxes[l.URL], fc.Viewport) {
			score += prominenceBonus
		}
		return score
	})
}

func (*Adaptive) ShouldStop(stats casegen.Stats) bool {
	return stats.Visited >= adaptiveMinVisited && stats.DuplicateRate() > adaptiveDuplicateRate
}

// Prominent reports whether a visible box has its centre inside the central
// 50% of the viewport.
func Prominent(box casegen.Box, vp casegen.Viewport) bool {
	if !box.Visible || vp.Width <= 0 || vp.Height <= 0 {
		return false
	}
	cx := box.X + box.Width/2
	cy := box.Y + box.Height/2
	return cx >= vp.Width*0.25 && cx <= vp.Width*0.75 &&
		cy >= vp.Height*0.25 && cy <= vp.Height*0.75
}
