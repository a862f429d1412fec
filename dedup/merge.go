package dedup

import (
	"slices"

	"github.com/fwojciec/casegen"
)

// Merge compacts flows reached through different entry points. A case
// merges into an earlier one when they share a tag and either case's step
// targets form a subsequence of the other's. The merged case keeps the
// longer case's steps, unions tags and assertions and sums durations.
// The input cases are not modified.
func Merge(cases []*casegen.TestCase) []*casegen.TestCase {
	var out []*casegen.TestCase
	for _, cur := range cases {
		merged := false
		for i, existing := range out {
			if shouldMerge(cur, existing) {
				out[i] = mergeTwo(existing, cur)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, cur)
		}
	}
	return out
}

func shouldMerge(a, b *casegen.TestCase) bool {
	if TagOverlap(a.Tags, b.Tags) == 0 {
		return false
	}
	ta, tb := targets(a), targets(b)
	return isSubsequence(ta, tb) || isSubsequence(tb, ta)
}

// isSubsequence reports whether every element of sub appears in seq in order.
func isSubsequence(sub, seq []string) bool {
	i := 0
	for _, s := range seq {
		if i < len(sub) && sub[i] == s {
			i++
		}
	}
	return i == len(sub)
}

func mergeTwo(a, b *casegen.TestCase) *casegen.TestCase {
	base, other := a, b
	if len(b.Steps) > len(a.Steps) {
		base, other = b, a
	}

	out := base.Clone()

	tags := append(slices.Clone(base.Tags), other.Tags...)
	slices.Sort(tags)
	out.Tags = slices.Compact(tags)

	seen := make(map[string]bool)
	for _, as := range base.Assertions {
		seen[as.Type+"\x00"+as.Value] = true
	}
	for _, as := range other.Assertions {
		if k := as.Type + "\x00" + as.Value; !seen[k] {
			seen[k] = true
			out.Assertions = append(out.Assertions, as)
		}
	}

	out.EstimatedDuration = base.EstimatedDuration + other.EstimatedDuration

	var from []string
	for _, tc := range []*casegen.TestCase{a, b} {
		if len(tc.MergedFrom) > 0 {
			from = append(from, tc.MergedFrom...)
		} else {
			from = append(from, tc.Name)
		}
	}
	out.MergedFrom = dedupeStrings(from)
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
