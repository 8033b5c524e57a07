package formula

import (
	"fmt"
	"strings"
)

// Parse reads the bracket structure produced by Canonical or Spec back into
// a Formula. A parenthesized state predicate "(state=x)" becomes the atom x.
func Parse(s string) (Formula, error) {
	p := &parser{tokens: tokenize(s)}
	if len(p.tokens) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrSyntax)
	}
	f, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("%w: trailing %q", ErrSyntax, p.tokens[p.pos])
	}
	return f, nil
}

func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '(' || r == ')':
			flush()
			tokens = append(tokens, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) peek() string {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return ""
}

func (p *parser) take() (string, error) {
	if p.pos >= len(p.tokens) {
		return "", fmt.Errorf("%w: unexpected end of input", ErrSyntax)
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) expect(want string) error {
	t, err := p.take()
	if err != nil {
		return err
	}
	if t != want {
		return fmt.Errorf("%w: expected %q, got %q", ErrSyntax, want, t)
	}
	return nil
}

// expr := ATOM | "(" UNARY expr ")" | "(" expr BINARY expr ")" | "(" "state=" ATOM ")"
func (p *parser) expr() (Formula, error) {
	t, err := p.take()
	if err != nil {
		return nil, err
	}
	if t == ")" || isOperator(t) {
		return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, t)
	}
	if t != "(" {
		return Atom(t), nil
	}

	head := p.peek()
	switch {
	case UnaryOp(head).Valid():
		p.pos++
		child, err := p.expr()
		if err != nil {
			return nil, err
		}
		return Unary{Op: UnaryOp(head), Child: child}, p.expect(")")

	case strings.HasPrefix(head, "state="):
		p.pos++
		name := strings.TrimPrefix(head, "state=")
		if name == "" {
			return nil, fmt.Errorf("%w: empty state predicate", ErrSyntax)
		}
		return Atom(name), p.expect(")")
	}

	left, err := p.expr()
	if err != nil {
		return nil, err
	}
	op, err := p.take()
	if err != nil {
		return nil, err
	}
	if !BinaryOp(op).Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
	right, err := p.expr()
	if err != nil {
		return nil, err
	}
	return Binary{Left: left, Op: BinaryOp(op), Right: right}, p.expect(")")
}

func isOperator(t string) bool {
	return UnaryOp(t).Valid() || BinaryOp(t).Valid()
}
