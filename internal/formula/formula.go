// Package formula synthesizes random LTL formula trees and renders them as
// canonical strings, NuSMV specifications and natural-language claim chains.
//
// A Formula is a closed sum of Atomic, Unary and Binary. All traversal goes
// through Match, so adding a variant is a compile error at every renderer.
package formula

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the synthesizer, renderers and parser
var (
	ErrUnknownOperator = errors.New("formula: unknown operator")
	ErrNilNode         = errors.New("formula: nil node")
	ErrUnknownAtom     = errors.New("formula: atom not in base set")
	ErrNoAtoms         = errors.New("formula: no atomic events")
	ErrDuplicateAtom   = errors.New("formula: duplicate atomic event")
	ErrInvalidLength   = errors.New("formula: invalid operator budget")
	ErrSyntax          = errors.New("formula: syntax error")
)

// UnaryOp is a temporal or logical operator with one operand
type UnaryOp string

const (
	OpNext     UnaryOp = "X"
	OpGlobally UnaryOp = "G"
	OpFinally  UnaryOp = "F"
	OpNot      UnaryOp = "!"
)

// Valid reports whether op is one of the four unary operators
func (op UnaryOp) Valid() bool {
	switch op {
	case OpNext, OpGlobally, OpFinally, OpNot:
		return true
	}
	return false
}

// BinaryOp is a logical connective with two operands
type BinaryOp string

const (
	OpAnd     BinaryOp = "&"
	OpOr      BinaryOp = "|"
	OpImplies BinaryOp = "->"
)

// Valid reports whether op is one of the three binary operators
func (op BinaryOp) Valid() bool {
	switch op {
	case OpAnd, OpOr, OpImplies:
		return true
	}
	return false
}

// Formula is an immutable LTL formula tree
type Formula interface {
	isFormula()
}

// Atomic is a leaf naming one atomic event
type Atomic struct {
	Name string
}

// Unary applies Op to Child
type Unary struct {
	Op    UnaryOp
	Child Formula
}

// Binary combines Left and Right with Op
type Binary struct {
	Left  Formula
	Op    BinaryOp
	Right Formula
}

func (Atomic) isFormula() {}
func (Unary) isFormula()  {}
func (Binary) isFormula() {}

// Atom returns the leaf for name
func Atom(name string) Formula { return Atomic{Name: name} }

// X returns "next f"
func X(f Formula) Formula { return Unary{Op: OpNext, Child: f} }

// G returns "globally f"
func G(f Formula) Formula { return Unary{Op: OpGlobally, Child: f} }

// F returns "finally f"
func F(f Formula) Formula { return Unary{Op: OpFinally, Child: f} }

// Not returns the negation of f
func Not(f Formula) Formula { return Unary{Op: OpNot, Child: f} }

// And returns l & r
func And(l, r Formula) Formula { return Binary{Left: l, Op: OpAnd, Right: r} }

// Or returns l | r
func Or(l, r Formula) Formula { return Binary{Left: l, Op: OpOr, Right: r} }

// Implies returns l -> r
func Implies(l, r Formula) Formula { return Binary{Left: l, Op: OpImplies, Right: r} }

// Match dispatches on the variant of f. It is the only type switch over
// Formula in the package; f must be non-nil (see Validate).
func Match[T any](f Formula, atomic func(Atomic) T, unary func(Unary) T, binary func(Binary) T) T {
	switch n := f.(type) {
	case Atomic:
		return atomic(n)
	case Unary:
		return unary(n)
	case Binary:
		return binary(n)
	default:
		panic(fmt.Sprintf("formula: unexpected node %T", f))
	}
}

// Validate checks that the tree has no nil nodes and only known operators
func Validate(f Formula) error {
	if f == nil {
		return ErrNilNode
	}
	return Match(f,
		func(Atomic) error { return nil },
		func(n Unary) error {
			if !n.Op.Valid() {
				return fmt.Errorf("%w: %q", ErrUnknownOperator, n.Op)
			}
			return Validate(n.Child)
		},
		func(n Binary) error {
			if !n.Op.Valid() {
				return fmt.Errorf("%w: %q", ErrUnknownOperator, n.Op)
			}
			if err := Validate(n.Left); err != nil {
				return err
			}
			return Validate(n.Right)
		},
	)
}

// Size returns the number of operator nodes in f
func Size(f Formula) int {
	return Match(f,
		func(Atomic) int { return 0 },
		func(n Unary) int { return 1 + Size(n.Child) },
		func(n Binary) int { return 1 + Size(n.Left) + Size(n.Right) },
	)
}

// Atoms returns the leaf names of f in left-to-right order
func Atoms(f Formula) []string {
	return Match(f,
		func(n Atomic) []string { return []string{n.Name} },
		func(n Unary) []string { return Atoms(n.Child) },
		func(n Binary) []string { return append(Atoms(n.Left), Atoms(n.Right)...) },
	)
}

// Operators returns the operator tokens of f in postorder
func Operators(f Formula) []string {
	return Match(f,
		func(Atomic) []string { return nil },
		func(n Unary) []string { return append(Operators(n.Child), string(n.Op)) },
		func(n Binary) []string {
			out := append(Operators(n.Left), Operators(n.Right)...)
			return append(out, string(n.Op))
		},
	)
}

// Equal reports whether a and b are structurally identical
func Equal(a, b Formula) bool {
	return Match(a,
		func(x Atomic) bool {
			y, ok := b.(Atomic)
			return ok && x == y
		},
		func(x Unary) bool {
			y, ok := b.(Unary)
			return ok && x.Op == y.Op && Equal(x.Child, y.Child)
		},
		func(x Binary) bool {
			y, ok := b.(Binary)
			return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
		},
	)
}
