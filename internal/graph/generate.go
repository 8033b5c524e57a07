package graph

import "math/rand/v2"

// Generate draws a random transition graph over events.
//
// For every pair i < j two independent Bernoulli(0.5) draws decide the
// edges i->j and j->i, in that order. The same rng stream and node order
// always yield the same graph. Duplicate events are rejected before any
// randomness is consumed.
func Generate(rng *rand.Rand, events []string) (*TransitionGraph, error) {
	if err := checkUnique(events); err != nil {
		return nil, err
	}

	g := newGraph(events)
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			if rng.Float64() > 0.5 {
				g.addEdge(events[i], events[j])
			}
			if rng.Float64() > 0.5 {
				g.addEdge(events[j], events[i])
			}
		}
	}
	g.sortSuccessors()

	return g, nil
}
