package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ppiankov/ltlbench/internal/formula"
	"github.com/ppiankov/ltlbench/internal/graph"
	"github.com/ppiankov/ltlbench/internal/model"
	"github.com/ppiankov/ltlbench/internal/oracle"
	"github.com/ppiankov/ltlbench/internal/telemetry"
)

// ErrLimit is returned for event or operator counts outside the configured bounds
var ErrLimit = errors.New("pipeline: parameter out of range")

// Generator assembles complete problems: context, claim chain, checker
// program and the oracle's verdict
type Generator struct {
	verifier  oracle.Verifier
	maxEvents int
	maxLength int
}

// NewGenerator creates a generator that labels problems with verifier.
// Non-positive bounds fall back to the package maximums.
func NewGenerator(verifier oracle.Verifier, maxEvents, maxLength int) *Generator {
	if maxEvents <= 0 {
		maxEvents = 64
	}
	if maxLength <= 0 || maxLength > formula.MaxLength {
		maxLength = formula.MaxLength
	}
	return &Generator{verifier: verifier, maxEvents: maxEvents, maxLength: maxLength}
}

// NewGeneratorFromConfig wires the NuSMV client and limits from cfg
func NewGeneratorFromConfig(cfg *model.Config) *Generator {
	client := oracle.NewClient(cfg.Oracle.Binary, cfg.Oracle.TempDir)
	return NewGenerator(client, cfg.Generation.MaxEvents, cfg.Generation.MaxLength)
}

// Generate synthesizes one problem. Randomness is drawn in a fixed order:
// graph edges, narrative root, formula, initial state. It returns either a
// fully labelled problem or an error, never a partial problem.
func (g *Generator) Generate(ctx context.Context, rng *rand.Rand, events, length int) (*model.Problem, error) {
	problem, err := g.generate(ctx, rng, events, length)
	if err != nil {
		telemetry.ProblemsFailed.Inc()
		return nil, err
	}
	telemetry.ProblemsGenerated.Inc()
	return problem, nil
}

func (g *Generator) generate(ctx context.Context, rng *rand.Rand, events, length int) (*model.Problem, error) {
	if events < 1 || events > g.maxEvents {
		return nil, fmt.Errorf("%w: events %d not in [1, %d]", ErrLimit, events, g.maxEvents)
	}
	if length < 0 || length > g.maxLength {
		return nil, fmt.Errorf("%w: formula length %d not in [0, %d]", ErrLimit, length, g.maxLength)
	}

	// 1. Context
	names, err := graph.NewEvents(events)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	tg, err := graph.Generate(rng, names)
	if err != nil {
		return nil, fmt.Errorf("generate graph: %w", err)
	}
	narrative := graph.Narrate(rng, tg)

	// 2. Hypothesis
	formulas, err := formula.Generate(rng, names, length, 1)
	if err != nil {
		return nil, fmt.Errorf("synthesize formula: %w", err)
	}
	f := formulas[0]

	initial := names[rng.IntN(len(names))]

	chain, err := formula.Claims(f, names)
	if err != nil {
		return nil, fmt.Errorf("render claims: %w", err)
	}
	spec, err := formula.Spec(f)
	if err != nil {
		return nil, fmt.Errorf("render spec: %w", err)
	}
	canonical, err := formula.Canonical(f)
	if err != nil {
		return nil, fmt.Errorf("render formula: %w", err)
	}

	// 3. Checker program
	smv, err := graph.EncodeModel(tg, initial)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	graphJSON, err := json.Marshal(tg)
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}

	// 4. Ground truth
	answer, err := g.verifier.Verify(ctx, smv, spec)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	problem := &model.Problem{
		CreatedAt:     time.Now().UTC(),
		Events:        events,
		FormulaLength: length,
		InitialState:  initial,
		Context:       Context(initial, narrative.String()),
		Claims:        chain,
		Code:          oracle.Program(smv, spec),
		Formula:       canonical,
		Graph:         string(graphJSON),
		Answer:        answer,
	}
	problem.Question = Question(problem.Context, chain)

	return problem, nil
}

// Context prefixes a narrative with the initial event
func Context(initial, narrative string) string {
	return strings.TrimSpace(fmt.Sprintf("Initially, %s happened. %s", initial, narrative))
}

// Question lays out the prompt shown to a reader
func Question(context string, chain model.ClaimChain) string {
	var b strings.Builder
	b.WriteString("=== Context ===\n\n")
	b.WriteString(context)
	b.WriteString("\n\n=== Hypothesis ===\n\n")
	if claims := chain.Text(); claims != "" {
		b.WriteString(claims)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "%s is True or False?\n", chain.Hypothesis)
	return b.String()
}
