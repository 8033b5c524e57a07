// Package evaluate asks a language model to judge stored problems with one
// prompting strategy, caching every completion it pays for.
package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ppiankov/ltlbench/internal/cache"
	"github.com/ppiankov/ltlbench/internal/llm"
	"github.com/ppiankov/ltlbench/internal/model"
	"github.com/ppiankov/ltlbench/internal/strategy"
	"github.com/ppiankov/ltlbench/internal/telemetry"
	"github.com/ppiankov/ltlbench/internal/worker"
)

// Options configures an Evaluator
type Options struct {
	Model    string          // recorded on every evaluation and part of the cache key
	Limiter  *worker.Limiter // nil = unlimited
	Cache    cache.Cache     // nil = no caching
	CacheTTL time.Duration   // 0 = cache default
	Verbose  bool
}

// Evaluator runs one strategy against one provider
type Evaluator struct {
	provider llm.Provider
	strategy strategy.Strategy
	opts     Options
}

// New creates an evaluator
func New(provider llm.Provider, strat strategy.Strategy, opts Options) *Evaluator {
	return &Evaluator{provider: provider, strategy: strat, opts: opts}
}

// Strategy returns the name of the strategy being run
func (e *Evaluator) Strategy() string {
	return e.strategy.Name()
}

// Evaluate implements worker.Evaluator
func (e *Evaluator) Evaluate(ctx context.Context, problem *model.Problem) (*model.Evaluation, error) {
	if problem == nil {
		return nil, fmt.Errorf("evaluate: nil problem")
	}

	result, err := e.strategy.Run(ctx, problem.Question, e.chatFunc())
	if err != nil {
		return nil, fmt.Errorf("problem %d: %s: %w", problem.ID, e.strategy.Name(), err)
	}

	return &model.Evaluation{
		ProblemID:  problem.ID,
		Provider:   e.provider.Name(),
		Model:      e.opts.Model,
		Strategy:   e.strategy.Name(),
		Response:   result.Response,
		Prediction: result.Prediction,
		Answer:     problem.Answer,
		TokensUsed: result.TokensUsed,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// chatFunc returns the chat function for one problem. Repeated identical
// requests (self-consistency samples) get increasing sample numbers so
// each one has its own cache entry.
func (e *Evaluator) chatFunc() strategy.ChatFunc {
	samples := make(map[string]int)

	return func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		if req.Model == "" {
			req.Model = e.opts.Model
		}

		temperature := strconv.FormatFloat(req.Temperature, 'g', -1, 64)
		sampleKey := cache.CacheKey(req.System, req.Prompt, temperature)
		sample := samples[sampleKey]
		samples[sampleKey]++

		key := cache.CacheKey(e.provider.Name(), req.Model, req.System, req.Prompt,
			temperature, strconv.Itoa(req.MaxTokens), strconv.Itoa(sample))

		if e.opts.Cache != nil {
			if data, found := e.opts.Cache.Get(key); found {
				var cached llm.ChatResponse
				if err := json.Unmarshal(data, &cached); err == nil {
					telemetry.LLMCacheHits.Inc()
					return &cached, nil
				}
			}
		}

		resp, err := e.chatWithRetry(ctx, req)
		if err != nil {
			return nil, err
		}

		if e.opts.Cache != nil {
			data, err := json.Marshal(resp)
			if err == nil {
				err = e.opts.Cache.Set(key, data, e.opts.CacheTTL)
			}
			if err != nil && e.opts.Verbose {
				fmt.Fprintf(os.Stderr, "Warning: failed to cache response: %v\n", err)
			}
		}

		return resp, nil
	}
}

// retryDelays are the waits between attempts after a transient failure.
// They add up to under ten seconds.
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// chatWithRetry sends req, retrying transient provider failures with
// exponential backoff. Every attempt waits for the rate limiter.
func (e *Evaluator) chatWithRetry(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	name := e.provider.Name()

	for attempt := 0; ; attempt++ {
		if e.opts.Limiter != nil {
			if err := e.opts.Limiter.Wait(ctx, name); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		resp, err := e.provider.Chat(ctx, req)
		if err == nil {
			telemetry.LLMRequests.WithLabelValues(name, "ok").Inc()
			return resp, nil
		}
		telemetry.LLMRequests.WithLabelValues(name, "error").Inc()

		if attempt >= len(retryDelays) || ctx.Err() != nil || !llm.IsTransient(err) {
			return nil, err
		}

		if e.opts.Verbose {
			fmt.Fprintf(os.Stderr, "Retrying %s in %v after: %v\n", name, retryDelays[attempt], err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(retryDelays[attempt]):
		}
	}
}
