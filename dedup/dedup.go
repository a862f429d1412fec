// Package dedup collapses near-duplicate test cases.
package dedup

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/casegen"
)

// DefaultThreshold is the similarity at or above which two cases collapse.
const DefaultThreshold = 0.7

// Similarity weights.
const (
	nameWeight = 0.3
	stepWeight = 0.5
	tagWeight  = 0.2
)

// Signature is a cheap identity for a case used for O(1) group lookup.
type Signature struct {
	NameHash  string
	StepsHash string
	Tags      []string
}

// Key returns the lookup key combining name and step hashes with the sorted
// tag set. Cases sharing a key score a similarity of 1.
func (s Signature) Key() string {
	return s.NameHash + ":" + s.StepsHash + ":" + strings.Join(s.Tags, ",")
}

// SignatureOf computes the signature of tc.
func SignatureOf(tc *casegen.TestCase) Signature {
	tags := slices.Clone(tc.Tags)
	slices.Sort(tags)
	return Signature{
		NameHash:  hash(strings.ToLower(tc.Name)),
		StepsHash: hash(strings.Join(targets(tc), "\x1f")),
		Tags:      slices.Compact(tags),
	}
}

func hash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

// targets returns the ordered step targets: the selector, or for
// navigation steps the destination URL.
func targets(tc *casegen.TestCase) []string {
	out := make([]string, 0, len(tc.Steps))
	for _, s := range tc.Steps {
		t := s.Selector
		if t == "" && s.Action == casegen.ActionNavigate {
			t = s.Value
		}
		out = append(out, t)
	}
	return out
}

// Deduplicator groups similar cases and keeps the best of each group.
type Deduplicator struct {
	// Threshold defaults to DefaultThreshold when zero.
	Threshold float64
}

func (d *Deduplicator) threshold() float64 {
	if d == nil || d.Threshold <= 0 {
		return DefaultThreshold
	}
	return d.Threshold
}

// Similar reports whether a and b score at or above the threshold.
// Cases that both have no steps are always similar.
func (d *Deduplicator) Similar(a, b *casegen.TestCase) bool {
	if len(a.Steps) == 0 && len(b.Steps) == 0 {
		return true
	}
	return Similarity(a, b) >= d.threshold()
}

// Deduplicate collapses similar cases, keeping for each group the case with
// the highest priority, then the most steps, then the most assertions.
// Grouping repeats until no two retained cases are similar, so the result
// is stable under repeated application. The input is not modified.
func (d *Deduplicator) Deduplicate(cases []*casegen.TestCase) []*casegen.TestCase {
	out := slices.Clone(cases)
	for {
		next := d.pass(out)
		if len(next) == len(out) {
			return next
		}
		out = next
	}
}

func (d *Deduplicator) pass(cases []*casegen.TestCase) []*casegen.TestCase {
	var groups [][]*casegen.TestCase
	bySignature := make(map[string]int)

	for _, tc := range cases {
		key := SignatureOf(tc).Key()
		if i, ok := bySignature[key]; ok {
			groups[i] = append(groups[i], tc)
			continue
		}
		found := -1
		for i, g := range groups {
			if d.Similar(tc, g[0]) {
				found = i
				break
			}
		}
		if found >= 0 {
			groups[found] = append(groups[found], tc)
			continue
		}
		bySignature[key] = len(groups)
		groups = append(groups, []*casegen.TestCase{tc})
	}

	out := make([]*casegen.TestCase, 0, len(groups))
	for _, g := range groups {
		out = append(out, Best(g))
	}
	return out
}

// Best returns the preferred case of a group: highest priority, then most
// steps, then most assertions. Ties keep the earliest case.
func Best(group []*casegen.TestCase) *casegen.TestCase {
	if len(group) == 0 {
		return nil
	}
	best := group[0]
	for _, tc := range group[1:] {
		if better(tc, best) {
			best = tc
		}
	}
	return best
}

func better(a, b *casegen.TestCase) bool {
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra > rb
	}
	if len(a.Steps) != len(b.Steps) {
		return len(a.Steps) > len(b.Steps)
	}
	return len(a.Assertions) > len(b.Assertions)
}

// Similarity returns the weighted similarity of two cases in [0, 1].
func Similarity(a, b *casegen.TestCase) float64 {
	return nameWeight*NameSimilarity(a.Name, b.Name) +
		stepWeight*StepSimilarity(targets(a), targets(b)) +
		tagWeight*TagOverlap(a.Tags, b.Tags)
}

// NameSimilarity is one minus the normalized edit distance between the
// lowercased names.
func NameSimilarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return 1 - float64(levenshtein(ra, rb))/float64(max(len(ra), len(rb)))
}

// StepSimilarity is the longest common subsequence of two target lists
// divided by the longer list's length.
func StepSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return float64(lcs(a, b)) / float64(max(len(a), len(b)))
}

// TagOverlap is the Jaccard index of two tag sets. Two empty sets score 0.
func TagOverlap(a, b []string) float64 {
	set := make(map[string]int)
	for _, t := range a {
		set[t] |= 1
	}
	for _, t := range b {
		set[t] |= 2
	}
	if len(set) == 0 {
		return 0
	}
	inter := 0
	for _, v := range set {
		if v == 3 {
			inter++
		}
	}
	return float64(inter) / float64(len(set))
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func lcs(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
