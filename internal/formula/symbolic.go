package formula

import "fmt"

// Canonical renders f fully parenthesized with raw atom names,
// e.g. "(F (G (! event2)))" or "(a & (! b))".
func Canonical(f Formula) (string, error) {
	if err := Validate(f); err != nil {
		return "", err
	}
	return render(f, func(name string) string { return name }), nil
}

// Spec renders f for an LTLSPEC line: every atom becomes a parenthesized
// state predicate, e.g. "(F (G (! (state=event2))))".
func Spec(f Formula) (string, error) {
	if err := Validate(f); err != nil {
		return "", err
	}
	return render(f, StatePredicate), nil
}

// StatePredicate wraps an atom as the NuSMV predicate "(state=name)"
func StatePredicate(name string) string {
	return fmt.Sprintf("(state=%s)", name)
}

func render(f Formula, leaf func(string) string) string {
	return Match(f,
		func(n Atomic) string { return leaf(n.Name) },
		func(n Unary) string {
			return fmt.Sprintf("(%s %s)", n.Op, render(n.Child, leaf))
		},
		func(n Binary) string {
			return fmt.Sprintf("(%s %s %s)", render(n.Left, leaf), n.Op, render(n.Right, leaf))
		},
	)
}
