package dedup_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/dedup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clickCase(name string, prio casegen.Priority, tags []string, selectors ...string) *casegen.TestCase {
	tc := &casegen.TestCase{Name: name, Priority: prio, Tags: tags, EstimatedDuration: 3}
	for _, s := range selectors {
		tc.Steps = append(tc.Steps, casegen.Step{Action: casegen.ActionClick, Selector: s})
	}
	return tc
}

func TestNameSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, dedup.NameSimilarity("User Login", "user login"), 1e-9)
	assert.InDelta(t, 1.0, dedup.NameSimilarity("", ""), 1e-9)
	assert.InDelta(t, 0.0, dedup.NameSimilarity("abc", ""), 1e-9)
	assert.InDelta(t, 1-1.0/6, dedup.NameSimilarity("kitten", "sitten"), 1e-9)
	assert.InDelta(t, 1-3.0/7, dedup.NameSimilarity("kitten", "sitting"), 1e-9)
}

func TestStepSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, dedup.StepSimilarity(nil, nil), 1e-9)
	assert.InDelta(t, 0.0, dedup.StepSimilarity([]string{"#a"}, nil), 1e-9)
	assert.InDelta(t, 0.75, dedup.StepSimilarity([]string{"#a", "#b", "#c"}, []string{"#a", "#x", "#b", "#c"}), 1e-9)
	assert.InDelta(t, 0.5, dedup.StepSimilarity([]string{"#a", "#b"}, []string{"#b", "#a"}), 1e-9)
}

func TestTagOverlap(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, dedup.TagOverlap([]string{"login", "form"}, []string{"form", "login"}), 1e-9)
	assert.InDelta(t, 1.0/3, dedup.TagOverlap([]string{"login", "form"}, []string{"form", "e2e"}), 1e-9)
	assert.InDelta(t, 0.0, dedup.TagOverlap(nil, nil), 1e-9)
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	a := clickCase("User login", casegen.PriorityCritical, []string{"login"}, "#u", "#p", "#go")
	b := clickCase("User login", casegen.PriorityCritical, []string{"login"}, "#u", "#p", "#go")
	b.EstimatedDuration = 99

	assert.InDelta(t, 1.0, dedup.Similarity(a, b), 1e-9)
}

func TestSignatureOf(t *testing.T) {
	t.Parallel()

	a := clickCase("Login", casegen.PriorityHigh, []string{"form", "login", "form"}, "#u", "#p")
	b := clickCase("LOGIN", casegen.PriorityLow, []string{"login", "form"}, "#u", "#p")
	c := clickCase("Login", casegen.PriorityHigh, []string{"form", "login"}, "#p", "#u")
	d := clickCase("Login", casegen.PriorityHigh, []string{"smoke"}, "#u", "#p")

	sa := dedup.SignatureOf(a)
	assert.Equal(t, sa.Key(), dedup.SignatureOf(b).Key())
	assert.NotEqual(t, sa.Key(), dedup.SignatureOf(c).Key())
	assert.NotEqual(t, sa.Key(), dedup.SignatureOf(d).Key())
	assert.Equal(t, []string{"form", "login"}, sa.Tags)
	assert.Len(t, sa.NameHash, 16)
}

func TestDeduplicator_Deduplicate(t *testing.T) {
	t.Parallel()

	t.Run("collapses cases differing only in duration", func(t *testing.T) {
		t.Parallel()

		a := clickCase("User login", casegen.PriorityCritical, []string{"login"}, "#u", "#p", "#go")
		b := clickCase("User login", casegen.PriorityCritical, []string{"login"}, "#u", "#p", "#go")
		b.EstimatedDuration = 10

		d := &dedup.Deduplicator{}
		got := d.Deduplicate([]*casegen.TestCase{a, b})

		require.Len(t, got, 1)
		assert.Same(t, a, got[0])
	})

	t.Run("keeps dissimilar cases", func(t *testing.T) {
		t.Parallel()

		a := clickCase("User login", casegen.PriorityCritical, []string{"login"}, "#u", "#p", "#go")
		b := clickCase("Search flow", casegen.PriorityHigh, []string{"search"}, "#q", "#search")

		d := &dedup.Deduplicator{}
		assert.Len(t, d.Deduplicate([]*casegen.TestCase{a, b}), 2)
	})

	t.Run("retains highest priority then most steps then most assertions", func(t *testing.T) {
		t.Parallel()

		low := clickCase("Save", casegen.PriorityLow, []string{"ui"}, "#save")
		high := clickCase("Save", casegen.PriorityHigh, []string{"ui"}, "#save")
		d := &dedup.Deduplicator{}
		assert.Same(t, high, d.Deduplicate([]*casegen.TestCase{low, high})[0])

		short := clickCase("Save", casegen.PriorityHigh, []string{"ui"}, "#a", "#b", "#c", "#d")
		long := clickCase("Save", casegen.PriorityHigh, []string{"ui"}, "#a", "#b", "#c", "#d", "#e")
		assert.Same(t, long, d.Deduplicate([]*casegen.TestCase{short, long})[0])

		plain := clickCase("Save", casegen.PriorityHigh, []string{"ui"}, "#save")
		asserted := clickCase("Save", casegen.PriorityHigh, []string{"ui"}, "#save")
		asserted.Assertions = []casegen.Assertion{{Type: casegen.AssertElementExists, Value: "#save"}}
		assert.Same(t, asserted, d.Deduplicate([]*casegen.TestCase{plain, asserted})[0])
	})

	t.Run("treats score equal to threshold as similar", func(t *testing.T) {
		t.Parallel()

		// Names identical (0.3) + no common steps (0) + identical tags (0.2) = 0.5.
		a := clickCase("Open", casegen.PriorityLow, []string{"x"}, "#a")
		b := clickCase("Open", casegen.PriorityLow, []string{"x"}, "#b")

		assert.Len(t, (&dedup.Deduplicator{Threshold: 0.5}).Deduplicate([]*casegen.TestCase{a, b}), 1)
		assert.Len(t, (&dedup.Deduplicator{Threshold: 0.51}).Deduplicate([]*casegen.TestCase{a, b}), 2)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, (&dedup.Deduplicator{}).Deduplicate(nil))
	})

	t.Run("does not modify input", func(t *testing.T) {
		t.Parallel()

		a := clickCase("A", casegen.PriorityLow, []string{"x"}, "#a")
		b := clickCase("A", casegen.PriorityHigh, []string{"x"}, "#a")
		in := []*casegen.TestCase{a, b}

		(&dedup.Deduplicator{}).Deduplicate(in)

		assert.Same(t, a, in[0])
		assert.Same(t, b, in[1])
	})
}

func randomCases(r *rand.Rand, n int) []*casegen.TestCase {
	names := []string{"User login", "User Login", "Search flow", "Navigate to Home", "Navigate to Help", "Click Save 1", "Click Save 2"}
	selectors := []string{"#a", "#b", "#c", "#d"}
	tags := []string{"login", "form", "search", "navigation", "ui"}
	prios := []casegen.Priority{casegen.PriorityCritical, casegen.PriorityHigh, casegen.PriorityMedium, casegen.PriorityLow}

	out := make([]*casegen.TestCase, n)
	for i := range out {
		var sels []string
		for range r.IntN(4) + 1 {
			sels = append(sels, selectors[r.IntN(len(selectors))])
		}
		var tt []string
		for range r.IntN(3) + 1 {
			tt = append(tt, tags[r.IntN(len(tags))])
		}
		out[i] = clickCase(names[r.IntN(len(names))], prios[r.IntN(len(prios))], tt, sels...)
	}
	return out
}

func TestDeduplicator_SignatureRespectsThreshold(t *testing.T) {
	t.Parallel()

	a := clickCase("Login", casegen.PriorityHigh, []string{"login"}, "#u", "#p")
	b := clickCase("Login", casegen.PriorityHigh, []string{"smoke"}, "#u", "#p")
	require.InDelta(t, 0.8, dedup.Similarity(a, b), 1e-9)

	strict := &dedup.Deduplicator{Threshold: 0.9}
	assert.Len(t, strict.Deduplicate([]*casegen.TestCase{a, b}), 2)

	loose := &dedup.Deduplicator{}
	assert.Len(t, loose.Deduplicate([]*casegen.TestCase{a, b}), 1)
}

func TestDeduplicator_Properties(t *testing.T) {
	t.Parallel()

	d := &dedup.Deduplicator{}
	for seed := range uint64(50) {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			t.Parallel()

			cases := randomCases(rand.New(rand.NewPCG(seed, seed+1)), 30)
			once := d.Deduplicate(cases)
			twice := d.Deduplicate(once)

			assert.LessOrEqual(t, len(once), len(cases), "non-increasing")
			require.Len(t, twice, len(once), "idempotent")
			for i := range once {
				assert.Same(t, once[i], twice[i])
			}
		})
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("merges subsequence flows sharing a tag", func(t *testing.T) {
		t.Parallel()

		short := clickCase("Login from home", casegen.PriorityCritical, []string{"login", "form"}, "#u", "#go")
		short.Assertions = []casegen.Assertion{{Type: casegen.AssertURLContains, Value: "/dashboard"}}
		long := clickCase("Login from landing", casegen.PriorityHigh, []string{"login", "e2e"}, "#u", "#p", "#go")
		long.Assertions = []casegen.Assertion{
			{Type: casegen.AssertURLContains, Value: "/dashboard"},
			{Type: casegen.AssertElementVisible, Value: "#welcome"},
		}
		long.EstimatedDuration = 6

		got := dedup.Merge([]*casegen.TestCase{short, long})

		require.Len(t, got, 1)
		m := got[0]
		assert.Equal(t, "Login from landing", m.Name)
		assert.Len(t, m.Steps, 3)
		assert.Equal(t, []string{"e2e", "form", "login"}, m.Tags)
		assert.Len(t, m.Assertions, 2)
		assert.Equal(t, 9, m.EstimatedDuration)
		assert.Equal(t, []string{"Login from home", "Login from landing"}, m.MergedFrom)

		assert.Nil(t, long.MergedFrom, "inputs untouched")
	})

	t.Run("requires a shared tag", func(t *testing.T) {
		t.Parallel()

		a := clickCase("A", casegen.PriorityLow, []string{"ui"}, "#a")
		b := clickCase("B", casegen.PriorityLow, []string{"navigation"}, "#a", "#b")

		assert.Len(t, dedup.Merge([]*casegen.TestCase{a, b}), 2)
	})

	t.Run("requires subsequence relation", func(t *testing.T) {
		t.Parallel()

		a := clickCase("A", casegen.PriorityLow, []string{"ui"}, "#b", "#a")
		b := clickCase("B", casegen.PriorityLow, []string{"ui"}, "#a", "#b")

		assert.Len(t, dedup.Merge([]*casegen.TestCase{a, b}), 2)
	})

	t.Run("accumulates merged names across chains", func(t *testing.T) {
		t.Parallel()

		a := clickCase("A", casegen.PriorityLow, []string{"ui"}, "#a")
		b := clickCase("B", casegen.PriorityLow, []string{"ui"}, "#a", "#b")
		c := clickCase("C", casegen.PriorityLow, []string{"ui"}, "#a", "#b", "#c")

		got := dedup.Merge([]*casegen.TestCase{a, b, c})

		require.Len(t, got, 1)
		assert.ElementsMatch(t, []string{"A", "B", "C"}, got[0].MergedFrom)
		assert.Equal(t, 9, got[0].EstimatedDuration)
	})
}
