package sim

import "github.com/google/uuid"

// NewNodeID generates a readable unique id for a simulated node, used only
// for labeling test fixtures and failure output — it carries no
// correctness property the scheduler or PRNG depend on.
func NewNodeID() string {
	return uuid.NewString()
}
