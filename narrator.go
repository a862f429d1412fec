package casegen

import "context"

// Narrative is a human-readable name and description for a test case.
type Narrative struct {
	Name        string
	Description string
}

// Narrator writes human-readable names and descriptions for generated cases.
// Implementations typically call a language model.
type Narrator interface {
	Narrate(ctx context.Context, tc *TestCase) (*Narrative, error)
}
