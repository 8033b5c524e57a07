package formula

import (
	"fmt"
	"math/rand/v2"
)

// MaxLength bounds the operator budget accepted by NewSynthesizer
const MaxLength = 4096

// operator is one entry of the seven-way operator draw
type operator struct {
	unary  UnaryOp
	binary BinaryOp
}

func (o operator) isUnary() bool { return o.unary != "" }

// operators is the draw table; its order is part of the determinism contract
var operators = []operator{
	{unary: OpNext},
	{unary: OpGlobally},
	{unary: OpFinally},
	{unary: OpNot},
	{binary: OpAnd},
	{binary: OpOr},
	{binary: OpImplies},
}

// Synthesizer builds formulas bottom-up over size buckets. Bucket j holds
// every formula built so far with exactly j operators; bucket 0 holds the
// atoms. Buckets persist across Next calls, so later draws may reuse
// earlier subformulas.
type Synthesizer struct {
	rng     *rand.Rand
	length  int
	buckets [][]Formula
}

// NewSynthesizer validates its input before consuming any randomness
func NewSynthesizer(rng *rand.Rand, atoms []string, length int) (*Synthesizer, error) {
	if length < 0 || length > MaxLength {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if len(atoms) == 0 {
		return nil, ErrNoAtoms
	}

	seen := make(map[string]bool, len(atoms))
	base := make([]Formula, 0, len(atoms))
	for _, a := range atoms {
		if seen[a] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAtom, a)
		}
		seen[a] = true
		base = append(base, Atom(a))
	}

	buckets := make([][]Formula, length+1)
	buckets[0] = base

	return &Synthesizer{rng: rng, length: length, buckets: buckets}, nil
}

// Next returns one formula with exactly the configured number of operators.
// With a zero budget no operator is built, so the result is the last atom
// and no randomness is drawn.
func (s *Synthesizer) Next() Formula {
	for j := 1; j <= s.length; j++ {
		op := operators[s.rng.IntN(len(operators))]

		var f Formula
		if op.isUnary() {
			f = Unary{Op: op.unary, Child: s.pick(j - 1)}
		} else {
			// Split the remaining j-1 operators between the two operands
			left := s.rng.IntN(j)
			l := s.pick(left)
			r := s.pick(j - 1 - left)
			f = Binary{Left: l, Op: op.binary, Right: r}
		}
		s.buckets[j] = append(s.buckets[j], f)
	}

	last := s.buckets[s.length]
	return last[len(last)-1]
}

// pick draws uniformly from bucket size. Every bucket below the one being
// filled is non-empty because buckets fill in ascending order.
func (s *Synthesizer) pick(size int) Formula {
	b := s.buckets[size]
	return b[s.rng.IntN(len(b))]
}

// Generate returns count formulas drawn from one shared Synthesizer
func Generate(rng *rand.Rand, atoms []string, length, count int) ([]Formula, error) {
	if count < 0 {
		return nil, fmt.Errorf("formula: invalid count %d", count)
	}
	s, err := NewSynthesizer(rng, atoms, length)
	if err != nil {
		return nil, err
	}
	out := make([]Formula, count)
	for i := range out {
		out[i] = s.Next()
	}
	return out, nil
}
