package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/ltlbench/internal/formula"
	"github.com/ppiankov/ltlbench/internal/model"
	"github.com/ppiankov/ltlbench/internal/oracle"
)

// fakeVerifier records its inputs and returns a fixed verdict
type fakeVerifier struct {
	verdict bool
	err     error
	calls   int
	model   string
	spec    string
}

func (f *fakeVerifier) Verify(ctx context.Context, model, spec string) (bool, error) {
	f.calls++
	f.model = model
	f.spec = spec
	return f.verdict, f.err
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestGenerator_Generate(t *testing.T) {
	v := &fakeVerifier{verdict: true}
	gen := NewGenerator(v, 0, 0)

	p, err := gen.Generate(context.Background(), newRNG(1), 3, 3)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if v.calls != 1 {
		t.Errorf("verifier called %d times, want 1", v.calls)
	}
	if !p.Answer {
		t.Error("Answer = false, want verifier verdict true")
	}
	if p.Events != 3 || p.FormulaLength != 3 {
		t.Errorf("Events/FormulaLength = %d/%d, want 3/3", p.Events, p.FormulaLength)
	}
	if !strings.HasPrefix(p.Context, "Initially, "+p.InitialState+" happened. After ") {
		t.Errorf("Context = %q", p.Context)
	}
	if got := strings.Count(p.Context, "After "); got != 3 {
		t.Errorf("context has %d sentences, want 3", got)
	}
	if len(p.Claims.Claims) != 3 || p.Claims.Hypothesis != "C3" {
		t.Errorf("claims = %+v", p.Claims)
	}
	if p.Code != oracle.Program(v.model, v.spec) {
		t.Error("Code does not match what was sent to the verifier")
	}
	if !strings.Contains(v.model, "init(state) := "+p.InitialState+";") {
		t.Errorf("model does not start from %s:\n%s", p.InitialState, v.model)
	}

	parsed, err := formula.Parse(v.spec)
	if err != nil {
		t.Fatalf("spec %q does not parse: %v", v.spec, err)
	}
	canonical, err := formula.Canonical(parsed)
	if err != nil {
		t.Fatalf("Canonical() error = %v", err)
	}
	if canonical != p.Formula {
		t.Errorf("spec and formula disagree: %q vs %q", canonical, p.Formula)
	}

	var g struct {
		Nodes []string `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(p.Graph), &g); err != nil {
		t.Fatalf("Graph is not JSON: %v", err)
	}
	if len(g.Nodes) != 3 {
		t.Errorf("graph has %d nodes, want 3", len(g.Nodes))
	}
}

func TestGenerator_Question(t *testing.T) {
	gen := NewGenerator(&fakeVerifier{}, 0, 0)
	p, err := gen.Generate(context.Background(), newRNG(3), 3, 2)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := "=== Context ===\n\n" + p.Context +
		"\n\n=== Hypothesis ===\n\n" + p.Hypothesis() +
		"\n\nC2 is True or False?\n"
	if p.Question != want {
		t.Errorf("Question =\n%s\nwant\n%s", p.Question, want)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	gen := NewGenerator(&fakeVerifier{}, 0, 0)

	a, err := gen.Generate(context.Background(), newRNG(99), 4, 5)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := gen.Generate(context.Background(), newRNG(99), 4, 5)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if a.Question != b.Question || a.Code != b.Code || a.Graph != b.Graph || a.Formula != b.Formula {
		t.Error("same stream produced different problems")
	}
}

func TestGenerator_ZeroLength(t *testing.T) {
	gen := NewGenerator(&fakeVerifier{}, 0, 0)
	p, err := gen.Generate(context.Background(), newRNG(5), 3, 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(p.Claims.Claims) != 0 {
		t.Errorf("zero length formula produced %d claims", len(p.Claims.Claims))
	}
	if !strings.HasSuffix(p.Question, p.Formula+" happens is True or False?\n") {
		t.Errorf("Question = %q", p.Question)
	}
}

func TestGenerator_VerifierError(t *testing.T) {
	v := &fakeVerifier{err: oracle.ErrNoSpecification}
	gen := NewGenerator(v, 0, 0)

	p, err := gen.Generate(context.Background(), newRNG(1), 3, 3)
	if !errors.Is(err, oracle.ErrNoSpecification) {
		t.Fatalf("Generate() error = %v, want ErrNoSpecification", err)
	}
	if p != nil {
		t.Error("Generate() returned a partial problem")
	}
}

func TestGenerator_Limits(t *testing.T) {
	v := &fakeVerifier{}
	gen := NewGenerator(v, 5, 10)

	tests := []struct {
		name   string
		events int
		length int
	}{
		{"no events", 0, 3},
		{"too many events", 6, 3},
		{"negative length", 3, -1},
		{"too long", 3, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := newRNG(1)
			_, err := gen.Generate(context.Background(), rng, tt.events, tt.length)
			if !errors.Is(err, ErrLimit) {
				t.Fatalf("Generate() error = %v, want ErrLimit", err)
			}
			if rng.Uint64() != newRNG(1).Uint64() {
				t.Error("rejected input consumed randomness")
			}
		})
	}
	if v.calls != 0 {
		t.Errorf("verifier called %d times for rejected input", v.calls)
	}
}

func TestNewGeneratorFromConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Generation.MaxEvents = 7
	cfg.Generation.MaxLength = 9

	gen := NewGeneratorFromConfig(cfg)
	if gen.maxEvents != 7 || gen.maxLength != 9 {
		t.Errorf("limits = %d/%d, want 7/9", gen.maxEvents, gen.maxLength)
	}
	if _, ok := gen.verifier.(*oracle.Client); !ok {
		t.Errorf("verifier is %T, want *oracle.Client", gen.verifier)
	}
}

func TestRenderer_JSON(t *testing.T) {
	r := NewRenderer()
	problems := []*model.Problem{
		{Index: 0, Formula: "(F event1)", Answer: true},
		{Index: 1, Formula: "(G event2)"},
	}

	path := filepath.Join(t.TempDir(), "out", "problems.json")
	if err := r.RenderJSON(problems, path); err != nil {
		t.Fatalf("RenderJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var got []model.Problem
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 2 || got[0].Formula != "(F event1)" || !got[0].Answer {
		t.Errorf("decoded %+v", got)
	}

	var buf bytes.Buffer
	if err := r.WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON(nil) error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("WriteJSON(nil) = %q, want []", buf.String())
	}
}

func TestRenderer_Markdown(t *testing.T) {
	p := &model.Problem{
		ID:           12,
		Events:       3,
		InitialState: "event1",
		Question:     "=== Context ===\n\nInitially, event1 happened.\n",
		Formula:      "(F event2)",
		Code:         "MODULE main\nLTLSPEC (F (state=event2))\n",
		Answer:       true,
	}

	md := NewRenderer().RenderMarkdown(p)
	for _, want := range []string{
		"# Problem 12",
		"- **Answer:** True",
		"`(F event2)`",
		"```smv\nMODULE main\nLTLSPEC (F (state=event2))\n```",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRenderer_Summary(t *testing.T) {
	var buf bytes.Buffer
	problems := []*model.Problem{{Answer: true}, {Answer: false}, {Answer: true}}
	NewRenderer().RenderSummary(&buf, problems, 2)

	out := buf.String()
	for _, want := range []string{"Generated: 3 problems", "True:  2", "False: 1", "Failed: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
