// Package graph generates random transition systems over atomic events and
// renders them as narrative text and as NuSMV finite-state machines.
package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for graph construction and encoding
var (
	// ErrInvalidCount is returned when an event count is negative
	ErrInvalidCount = errors.New("graph: invalid event count")

	// ErrDuplicateEvent is returned when the node list repeats an identifier
	ErrDuplicateEvent = errors.New("graph: duplicate event")

	// ErrUnknownEvent is returned when an event is not part of the node set
	ErrUnknownEvent = errors.New("graph: unknown event")

	// ErrEmptyGraph is returned when an operation needs at least one node
	ErrEmptyGraph = errors.New("graph: no events")
)

// Edge is a directed "may happen next" relation between two events
type Edge struct {
	From string
	To   string
}

// TransitionGraph is an immutable directed graph whose nodes are atomic events.
//
// Invariants:
//   - every edge endpoint is a node;
//   - no self-loops, no duplicate edges.
type TransitionGraph struct {
	events []string
	edges  []Edge
	succ   map[string][]string // sorted successor lists
}

// NewEvents returns the identifiers event1..eventN
func NewEvents(n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	events := make([]string, n)
	for i := range events {
		events[i] = fmt.Sprintf("event%d", i+1)
	}
	return events, nil
}

// New builds a graph from an explicit node and edge list. It is used when
// decoding stored graphs and in tests; random graphs come from Generate.
func New(events []string, edges []Edge) (*TransitionGraph, error) {
	if err := checkUnique(events); err != nil {
		return nil, err
	}
	g := newGraph(events)
	for _, e := range edges {
		if _, ok := g.succ[e.From]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.From)
		}
		if _, ok := g.succ[e.To]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.To)
		}
		if e.From == e.To {
			return nil, fmt.Errorf("graph: self-loop on %q", e.From)
		}
		if g.HasEdge(e.From, e.To) {
			return nil, fmt.Errorf("graph: duplicate edge %s->%s", e.From, e.To)
		}
		g.addEdge(e.From, e.To)
	}
	g.sortSuccessors()
	return g, nil
}

func newGraph(events []string) *TransitionGraph {
	g := &TransitionGraph{
		events: append([]string(nil), events...),
		succ:   make(map[string][]string, len(events)),
	}
	for _, e := range events {
		g.succ[e] = nil
	}
	return g
}

func (g *TransitionGraph) addEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.succ[from] = append(g.succ[from], to)
}

func (g *TransitionGraph) sortSuccessors() {
	for _, s := range g.succ {
		sort.Strings(s)
	}
}

func checkUnique(events []string) error {
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if seen[e] {
			return fmt.Errorf("%w: %q", ErrDuplicateEvent, e)
		}
		seen[e] = true
	}
	return nil
}

// Events returns the node set in its original order
func (g *TransitionGraph) Events() []string {
	return append([]string(nil), g.events...)
}

// SortedEvents returns the node set in lexicographic order
func (g *TransitionGraph) SortedEvents() []string {
	out := g.Events()
	sort.Strings(out)
	return out
}

// Edges returns the edges in generation order
func (g *TransitionGraph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// EdgeCount returns the number of edges
func (g *TransitionGraph) EdgeCount() int {
	return len(g.edges)
}

// Len returns the number of nodes
func (g *TransitionGraph) Len() int {
	return len(g.events)
}

// Has reports whether e is a node of the graph
func (g *TransitionGraph) Has(e string) bool {
	_, ok := g.succ[e]
	return ok
}

// HasEdge reports whether from->to is an edge
func (g *TransitionGraph) HasEdge(from, to string) bool {
	for _, s := range g.succ[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Successors returns the sorted successors of e (nil for unknown nodes)
func (g *TransitionGraph) Successors(e string) []string {
	return append([]string(nil), g.succ[e]...)
}

type graphJSON struct {
	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// MarshalJSON encodes the graph as {"nodes": [...], "edges": [[from, to], ...]}
func (g *TransitionGraph) MarshalJSON() ([]byte, error) {
	out := graphJSON{Nodes: g.Events(), Edges: make([][2]string, len(g.edges))}
	if out.Nodes == nil {
		out.Nodes = []string{}
	}
	for i, e := range g.edges {
		out.Edges[i] = [2]string{e.From, e.To}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the MarshalJSON form, re-checking all invariants
func (g *TransitionGraph) UnmarshalJSON(data []byte) error {
	var in graphJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	edges := make([]Edge, len(in.Edges))
	for i, e := range in.Edges {
		edges[i] = Edge{From: e[0], To: e[1]}
	}
	decoded, err := New(in.Nodes, edges)
	if err != nil {
		return err
	}
	*g = *decoded
	return nil
}
