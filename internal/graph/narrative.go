package graph

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

// Narrative is the plain-language description of a transition graph
type Narrative struct {
	// Order lists nodes in the order they were described
	Order []string
	// Sentences holds one sentence per node, aligned with Order
	Sentences []string
}

// String joins the sentences with single spaces
func (n Narrative) String() string {
	return strings.Join(n.Sentences, " ")
}

// Narrate describes g starting from a uniformly drawn root.
// An empty graph yields an empty narrative and consumes no randomness.
func Narrate(rng *rand.Rand, g *TransitionGraph) Narrative {
	if g.Len() == 0 {
		return Narrative{}
	}
	root := g.events[rng.IntN(len(g.events))]
	n, _ := NarrateFrom(g, root)
	return n
}

// NarrateFrom describes g by breadth-first traversal from root. When the
// queue drains with nodes left over, traversal restarts from the
// lexicographically smallest unvisited node, so every node is described
// exactly once.
func NarrateFrom(g *TransitionGraph, root string) (Narrative, error) {
	if !g.Has(root) {
		return Narrative{}, fmt.Errorf("%w: %q", ErrUnknownEvent, root)
	}

	w := &narrator{
		graph:   g,
		visited: make(map[string]bool, g.Len()),
		queue:   make([]string, 0, g.Len()),
	}
	w.enqueue(root)
	w.loop()

	for _, e := range g.SortedEvents() {
		if !w.visited[e] {
			w.enqueue(e)
			w.loop()
		}
	}

	return w.out, nil
}

type narrator struct {
	graph   *TransitionGraph
	visited map[string]bool
	queue   []string
	out     Narrative
}

// enqueue marks id visited at enqueue time so it is never queued twice
func (w *narrator) enqueue(id string) {
	w.visited[id] = true
	w.queue = append(w.queue, id)
}

func (w *narrator) loop() {
	for len(w.queue) > 0 {
		id := w.queue[0]
		w.queue = w.queue[1:]

		succ := w.graph.succ[id]
		w.out.Order = append(w.out.Order, id)
		w.out.Sentences = append(w.out.Sentences, Sentence(id, succ))

		for _, s := range succ {
			if !w.visited[s] {
				w.enqueue(s)
			}
		}
	}
}

// Sentence renders the outgoing transitions of one node. Successors are
// listed in sorted order regardless of the order given.
func Sentence(node string, successors []string) string {
	succ := append([]string(nil), successors...)
	sort.Strings(succ)

	switch len(succ) {
	case 0:
		return fmt.Sprintf("After %s, no other events can happen.", node)
	case 1:
		return fmt.Sprintf("After %s, %s must happen.", node, succ[0])
	default:
		return fmt.Sprintf("After %s, either %s must happen.", node, strings.Join(succ, ", or "))
	}
}
