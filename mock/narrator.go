package mock

import (
	"context"

	"github.com/fwojciec/casegen"
)

var _ casegen.Narrator = (*Narrator)(nil)

// Narrator is a mock implementation of casegen.Narrator.
type Narrator struct {
	NarrateFn func(ctx context.Context, tc *casegen.TestCase) (*casegen.Narrative, error)
}

func (n *Narrator) Narrate(ctx context.Context, tc *casegen.TestCase) (*casegen.Narrative, error) {
	return n.NarrateFn(ctx, tc)
}
