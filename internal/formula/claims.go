package formula

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/ltlbench/internal/model"
)

// phrase holds the wording of an operator for ground events ("happens")
// and for derived claims ("holds").
type phrase struct {
	atomic   string
	compound string
}

var unaryPhrases = map[UnaryOp]phrase{
	OpNext:     {atomic: "%s happens in the next state", compound: "%s holds in the next state"},
	OpGlobally: {atomic: "%s always happens", compound: "%s always holds"},
	OpFinally:  {atomic: "%s eventually happens", compound: "%s eventually holds"},
	OpNot:      {atomic: "%s does not happen", compound: "%s does not hold"},
}

var binaryPhrases = map[BinaryOp]string{
	OpAnd:     "%s and %s",
	OpOr:      "%s or %s",
	OpImplies: "%s implies %s",
}

// claimRef is the rendered form of a subtree as seen by its parent
type claimRef struct {
	text   string // atom name or "C<n>"
	atomic bool
}

// operand phrases a binary operand
func (r claimRef) operand() string {
	if r.atomic {
		return r.text + " happens"
	}
	return r.text + " holds"
}

// chainState is the claim counter and buffer. It is passed down the
// recursion by value and handed back up with the claims a subtree added.
type chainState struct {
	next   int
	claims []model.Claim
}

func (s chainState) emit(text string) (claimRef, chainState) {
	s.next++
	s.claims = append(s.claims, model.Claim{Index: s.next, Text: capitalize(text)})
	return claimRef{text: model.ClaimRef(s.next)}, s
}

// Claims decomposes f into one claim per operator node in postorder.
// Atoms must cover every leaf of f.
func Claims(f Formula, atoms []string) (model.ClaimChain, error) {
	if err := Validate(f); err != nil {
		return model.ClaimChain{}, err
	}
	base := make(map[string]bool, len(atoms))
	for _, a := range atoms {
		base[a] = true
	}

	ref, st, err := claims(f, base, chainState{})
	if err != nil {
		return model.ClaimChain{}, err
	}

	hypothesis := ref.text
	if ref.atomic {
		hypothesis = ref.operand()
	}
	return model.ClaimChain{Claims: st.claims, Hypothesis: hypothesis}, nil
}

type claimResult struct {
	ref claimRef
	st  chainState
	err error
}

func claims(f Formula, base map[string]bool, st chainState) (claimRef, chainState, error) {
	r := Match(f,
		func(n Atomic) claimResult {
			if !base[n.Name] {
				return claimResult{err: fmt.Errorf("%w: %q", ErrUnknownAtom, n.Name)}
			}
			return claimResult{ref: claimRef{text: n.Name, atomic: true}, st: st}
		},
		func(n Unary) claimResult {
			child, st, err := claims(n.Child, base, st)
			if err != nil {
				return claimResult{err: err}
			}
			p, ok := unaryPhrases[n.Op]
			if !ok {
				return claimResult{err: fmt.Errorf("%w: %q", ErrUnknownOperator, n.Op)}
			}
			format := p.compound
			if child.atomic {
				format = p.atomic
			}
			ref, st := st.emit(fmt.Sprintf(format, child.text))
			return claimResult{ref: ref, st: st}
		},
		func(n Binary) claimResult {
			left, st, err := claims(n.Left, base, st)
			if err != nil {
				return claimResult{err: err}
			}
			right, st, err := claims(n.Right, base, st)
			if err != nil {
				return claimResult{err: err}
			}
			format, ok := binaryPhrases[n.Op]
			if !ok {
				return claimResult{err: fmt.Errorf("%w: %q", ErrUnknownOperator, n.Op)}
			}
			ref, st := st.emit(fmt.Sprintf(format, left.operand(), right.operand()))
			return claimResult{ref: ref, st: st}
		},
	)
	return r.ref, r.st, r.err
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
