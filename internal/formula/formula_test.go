package formula

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

var events = []string{"event1", "event2", "event3"}

func TestSynthesizer_ExactSize(t *testing.T) {
	for k := 0; k <= 12; k++ {
		for seed := uint64(0); seed < 25; seed++ {
			s, err := NewSynthesizer(newRNG(seed), events, k)
			require.NoError(t, err)
			f := s.Next()
			require.NoError(t, Validate(f))
			assert.Equal(t, k, Size(f), "k=%d seed=%d", k, seed)
			for _, a := range Atoms(f) {
				assert.Contains(t, events, a)
			}
		}
	}
}

func TestSynthesizer_ZeroBudgetIsAtom(t *testing.T) {
	s, err := NewSynthesizer(newRNG(9), events, 0)
	require.NoError(t, err)
	f := s.Next()
	assert.Equal(t, Atom(events[len(events)-1]), f)
	assert.Equal(t, f, s.Next())

	// The stream is left untouched for the draws that follow
	fresh := newRNG(9)
	assert.Equal(t, fresh.Uint64(), s.rng.Uint64())
}

func TestSynthesizer_Deterministic(t *testing.T) {
	a, err := Generate(newRNG(5), events, 6, 4)
	require.NoError(t, err)
	b, err := Generate(newRNG(5), events, 6, 4)
	require.NoError(t, err)
	require.Len(t, a, 4)
	for i := range a {
		assert.True(t, Equal(a[i], b[i]))
	}
}

func TestSynthesizer_SharedBuckets(t *testing.T) {
	s, err := NewSynthesizer(newRNG(2), events, 4)
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, 4, Size(s.Next()))
		for j := 1; j <= 4; j++ {
			assert.Len(t, s.buckets[j], i)
		}
	}
}

func TestSynthesizer_InvalidInput(t *testing.T) {
	_, err := NewSynthesizer(newRNG(1), events, -1)
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = NewSynthesizer(newRNG(1), events, MaxLength+1)
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = NewSynthesizer(newRNG(1), nil, 3)
	assert.ErrorIs(t, err, ErrNoAtoms)

	_, err = NewSynthesizer(newRNG(1), []string{"a", "a"}, 3)
	assert.ErrorIs(t, err, ErrDuplicateAtom)

	_, err = Generate(newRNG(1), events, 2, -1)
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	got, err := Canonical(F(G(Not(Atom("event2")))))
	require.NoError(t, err)
	assert.Equal(t, "(F (G (! event2)))", got)

	got, err = Canonical(Implies(Atom("b"), Not(Atom("a"))))
	require.NoError(t, err)
	assert.Equal(t, "(b -> (! a))", got)

	got, err = Canonical(Atom("event1"))
	require.NoError(t, err)
	assert.Equal(t, "event1", got)
}

func TestSpec(t *testing.T) {
	got, err := Spec(F(G(Not(Atom("event2")))))
	require.NoError(t, err)
	assert.Equal(t, "(F (G (! (state=event2))))", got)

	got, err = Spec(And(Atom("event1"), X(Atom("event3"))))
	require.NoError(t, err)
	assert.Equal(t, "((state=event1) & (X (state=event3)))", got)

	got, err = Spec(Atom("event1"))
	require.NoError(t, err)
	assert.Equal(t, "(state=event1)", got)
}

func TestRenderers_UnknownOperator(t *testing.T) {
	bad := Unary{Op: UnaryOp("U"), Child: Atom("a")}
	_, err := Canonical(bad)
	assert.ErrorIs(t, err, ErrUnknownOperator)
	_, err = Spec(bad)
	assert.ErrorIs(t, err, ErrUnknownOperator)
	_, err = Claims(bad, []string{"a"})
	assert.ErrorIs(t, err, ErrUnknownOperator)

	badBinary := Binary{Left: Atom("a"), Op: BinaryOp("<->"), Right: Atom("a")}
	_, err = Canonical(badBinary)
	assert.ErrorIs(t, err, ErrUnknownOperator)

	_, err = Canonical(Unary{Op: OpNot})
	assert.ErrorIs(t, err, ErrNilNode)
}

func TestClaims_Example(t *testing.T) {
	f := Not(Implies(Atom("b"), Not(Atom("a"))))
	chain, err := Claims(f, []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, chain.Claims, 3)
	assert.Equal(t, "C3", chain.Hypothesis)
	assert.Equal(t,
		"C1: A does not happen.\nC2: B happens implies C1 holds.\nC3: C2 does not hold.",
		chain.Text())
}

func TestClaims_Phrasing(t *testing.T) {
	tests := []struct {
		name string
		f    Formula
		want string
	}{
		{"next atomic", X(Atom("event1")), "C1: Event1 happens in the next state."},
		{"globally atomic", G(Atom("event1")), "C1: Event1 always happens."},
		{"finally atomic", F(Atom("event1")), "C1: Event1 eventually happens."},
		{"not atomic", Not(Atom("event1")), "C1: Event1 does not happen."},
		{"or atomics", Or(Atom("event1"), Atom("event3")), "C1: Event1 happens or event3 happens."},
		{"and atomics", And(Atom("event2"), Atom("event3")), "C1: Event2 happens and event3 happens."},
		{
			"compound chain",
			F(Or(Atom("event1"), Or(Atom("event1"), Atom("event3")))),
			"C1: Event1 happens or event3 happens.\nC2: Event1 happens or C1 holds.\nC3: C2 eventually holds.",
		},
		{
			"next of compound",
			F(X(And(Atom("event2"), Atom("event3")))),
			"C1: Event2 happens and event3 happens.\nC2: C1 holds in the next state.\nC3: C2 eventually holds.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := Claims(tt.f, events)
			require.NoError(t, err)
			assert.Equal(t, tt.want, chain.Text())
		})
	}
}

func TestClaims_AtomicRoot(t *testing.T) {
	chain, err := Claims(Atom("event2"), events)
	require.NoError(t, err)
	assert.Empty(t, chain.Claims)
	assert.Equal(t, "event2 happens", chain.Hypothesis)
}

func TestClaims_UnknownAtom(t *testing.T) {
	_, err := Claims(Not(Atom("event9")), events)
	assert.ErrorIs(t, err, ErrUnknownAtom)
}

// TestClaims_PostorderIndices checks indices run 1..K and the root is last
func TestClaims_PostorderIndices(t *testing.T) {
	for seed := uint64(0); seed < 40; seed++ {
		k := int(seed%9) + 1
		fs, err := Generate(newRNG(seed), events, k, 1)
		require.NoError(t, err)

		chain, err := Claims(fs[0], events)
		require.NoError(t, err)
		require.Len(t, chain.Claims, k)
		for i, c := range chain.Claims {
			assert.Equal(t, i+1, c.Index)
			// A claim only references earlier claims
			for j := i + 1; j <= k; j++ {
				assert.NotContains(t, c.Text+" ", "C"+strconv.Itoa(j)+" ")
			}
		}
		assert.Equal(t, "C"+strconv.Itoa(k), chain.Hypothesis)
	}
}

func TestRenderers_DoNotMutate(t *testing.T) {
	fs, err := Generate(newRNG(11), events, 7, 1)
	require.NoError(t, err)
	f := fs[0]
	before, err := Canonical(f)
	require.NoError(t, err)

	_, err = Claims(f, events)
	require.NoError(t, err)
	_, err = Spec(f)
	require.NoError(t, err)

	after, err := Canonical(f)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestParse_RoundTrip(t *testing.T) {
	for seed := uint64(0); seed < 60; seed++ {
		k := int(seed % 10)
		fs, err := Generate(newRNG(seed), events, k, 1)
		require.NoError(t, err)
		f := fs[0]

		canonical, err := Canonical(f)
		require.NoError(t, err)
		parsed, err := Parse(canonical)
		require.NoError(t, err, canonical)
		assert.True(t, Equal(f, parsed), canonical)
		assert.Equal(t, Operators(f), Operators(parsed))
		assert.Equal(t, Atoms(f), Atoms(parsed))

		spec, err := Spec(f)
		require.NoError(t, err)
		parsed, err = Parse(spec)
		require.NoError(t, err, spec)
		assert.True(t, Equal(f, parsed), spec)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "(", "(F a", "(a & b", "(a ?? b)", "a b", ")", "(state=)", "(&)"} {
		_, err := Parse(in)
		assert.Error(t, err, "input %q", in)
	}
	_, err := Parse("(a ?? b)")
	assert.ErrorIs(t, err, ErrUnknownOperator)
	_, err = Parse("(F a")
	assert.ErrorIs(t, err, ErrSyntax)
}
