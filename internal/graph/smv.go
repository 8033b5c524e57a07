package graph

import (
	"fmt"
	"strings"
)

// EncodeModel renders g as a NuSMV module with a single enumerated state
// variable. Cases are sorted by source node; nodes without outgoing edges
// get a self-loop so the transition relation is total.
func EncodeModel(g *TransitionGraph, initial string) (string, error) {
	if g.Len() == 0 {
		return "", ErrEmptyGraph
	}
	if !g.Has(initial) {
		return "", fmt.Errorf("%w: initial state %q", ErrUnknownEvent, initial)
	}

	var b strings.Builder
	b.WriteString("MODULE main\n")
	b.WriteString("VAR\n")
	fmt.Fprintf(&b, "    state : {%s};\n", strings.Join(g.Events(), ", "))
	b.WriteString("ASSIGN\n")
	fmt.Fprintf(&b, "    init(state) := %s;\n", initial)
	b.WriteString("    next(state) := case\n")
	for _, src := range g.SortedEvents() {
		fmt.Fprintf(&b, "        state = %s : %s;\n", src, successorSet(src, g.succ[src]))
	}
	b.WriteString("    esac;")

	return b.String(), nil
}

func successorSet(src string, succ []string) string {
	switch len(succ) {
	case 0:
		return src
	case 1:
		return succ[0]
	default:
		return "{" + strings.Join(succ, ", ") + "}"
	}
}
