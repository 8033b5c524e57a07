package worker

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"

	"github.com/ppiankov/ltlbench/internal/model"
)

// ErrNotRun is reported for a job the pool dropped before it produced a
// result without the context being done
var ErrNotRun = errors.New("job did not run")

// Generator synthesizes one problem from its own random stream
type Generator interface {
	Generate(ctx context.Context, rng *rand.Rand, events, length int) (*model.Problem, error)
}

// Evaluator asks a language model to judge one problem
type Evaluator interface {
	Evaluate(ctx context.Context, problem *model.Problem) (*model.Evaluation, error)
}

// NewRand returns the random stream of batch item index under seed.
// Streams of different indices are independent, so items can be generated
// in any order and on any worker.
func NewRand(seed, index uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, index))
}

// GenerateJob synthesizes the problem at one batch index
type GenerateJob struct {
	Seed      uint64
	Index     uint64
	Events    int
	Length    int
	Generator Generator
}

// Execute executes the generate job
func (j *GenerateJob) Execute(ctx context.Context) Result {
	problem, err := j.Generator.Generate(ctx, NewRand(j.Seed, j.Index), j.Events, j.Length)
	if err != nil {
		return &GenerateResult{Index: j.Index, Error: err}
	}
	problem.Seed = j.Seed
	problem.Index = j.Index
	return &GenerateResult{Index: j.Index, Problem: problem}
}

// GenerateResult represents the result of a generate job
type GenerateResult struct {
	Index   uint64
	Problem *model.Problem
	Error   error
}

// GetError returns the error from the generate result
func (r *GenerateResult) GetError() error {
	return r.Error
}

// EvaluateJob runs one evaluator against one problem
type EvaluateJob struct {
	Problem   *model.Problem
	Evaluator Evaluator
}

// Execute executes the evaluate job
func (j *EvaluateJob) Execute(ctx context.Context) Result {
	eval, err := j.Evaluator.Evaluate(ctx, j.Problem)
	return &EvaluateResult{ProblemID: j.Problem.ID, Evaluation: eval, Error: err}
}

// EvaluateResult represents the result of an evaluate job
type EvaluateResult struct {
	ProblemID  int64
	Evaluation *model.Evaluation
	Error      error
}

// GetError returns the error from the evaluate result
func (r *EvaluateResult) GetError() error {
	return r.Error
}

// BatchSpec describes one generation batch
type BatchSpec struct {
	Seed   uint64
	Count  int
	Events int
	Length int
}

// BatchProcessor fans generation and evaluation out over a worker pool
type BatchProcessor struct {
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(concurrency int) *BatchProcessor {
	return &BatchProcessor{concurrency: concurrency}
}

// GenerateBatch synthesizes spec.Count problems. Results are ordered by
// batch index regardless of completion order.
func (b *BatchProcessor) GenerateBatch(ctx context.Context, gen Generator, spec BatchSpec) []*GenerateResult {
	if spec.Count <= 0 {
		return []*GenerateResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i := 0; i < spec.Count; i++ {
		pool.Submit(&GenerateJob{
			Seed:      spec.Seed,
			Index:     uint64(i),
			Events:    spec.Events,
			Length:    spec.Length,
			Generator: gen,
		})
	}

	results := pool.Wait()

	byIndex := make(map[uint64]*GenerateResult, len(results))
	for _, result := range results {
		r := result.(*GenerateResult)
		byIndex[r.Index] = r
	}

	// Every index gets a result; the ones cancellation dropped carry its cause
	out := make([]*GenerateResult, spec.Count)
	for i := range out {
		r, ok := byIndex[uint64(i)]
		if !ok {
			r = &GenerateResult{Index: uint64(i), Error: dropped(ctx)}
		}
		out[i] = r
	}

	return out
}

// EvaluateProblems runs eval against every problem. Results are ordered by
// problem id.
func (b *BatchProcessor) EvaluateProblems(ctx context.Context, eval Evaluator, problems []*model.Problem) []*EvaluateResult {
	if len(problems) == 0 {
		return []*EvaluateResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for _, p := range problems {
		pool.Submit(&EvaluateJob{Problem: p, Evaluator: eval})
	}

	results := pool.Wait()

	byID := make(map[int64]*EvaluateResult, len(results))
	for _, result := range results {
		r := result.(*EvaluateResult)
		byID[r.ProblemID] = r
	}

	out := make([]*EvaluateResult, 0, len(problems))
	for _, p := range problems {
		r, ok := byID[p.ID]
		if !ok {
			r = &EvaluateResult{ProblemID: p.ID, Error: dropped(ctx)}
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProblemID < out[j].ProblemID })

	return out
}

func dropped(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrNotRun
}
