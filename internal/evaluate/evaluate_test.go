package evaluate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/ltlbench/internal/cache"
	"github.com/ppiankov/ltlbench/internal/llm"
	"github.com/ppiankov/ltlbench/internal/model"
	"github.com/ppiankov/ltlbench/internal/strategy"
	"github.com/ppiankov/ltlbench/internal/worker"
)

// mockProvider numbers its replies so repeated calls are distinguishable
type mockProvider struct {
	mu       sync.Mutex
	calls    int
	requests []llm.ChatRequest
	reply    func(n int, req llm.ChatRequest) string
	err      error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *mockProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.ChatResponse{Content: m.reply(m.calls, req), Model: req.Model, TokensUsed: 7}, nil
}

func newProblem(id int64, answer bool) *model.Problem {
	return &model.Problem{
		ID:       id,
		Question: fmt.Sprintf("=== Context ===\n\nproblem %d\n\nC1 is True or False?\n", id),
		Answer:   answer,
	}
}

func mustStrategy(t *testing.T, name string, samples int) strategy.Strategy {
	t.Helper()
	s, err := strategy.New(name, samples)
	if err != nil {
		t.Fatalf("strategy.New: %v", err)
	}
	return s
}

func TestEvaluate_RecordsEvaluation(t *testing.T) {
	provider := &mockProvider{reply: func(int, llm.ChatRequest) string { return "False" }}
	e := New(provider, mustStrategy(t, strategy.Direct, 0), Options{Model: "test-model"})

	eval, err := e.Evaluate(context.Background(), newProblem(3, false))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if eval.ProblemID != 3 || eval.Provider != "mock" || eval.Model != "test-model" || eval.Strategy != strategy.Direct {
		t.Errorf("unexpected identity fields: %+v", eval)
	}
	if !eval.Answered() || !eval.Correct() {
		t.Errorf("expected a correct answer, got prediction %v", eval.Prediction)
	}
	if eval.TokensUsed != 7 {
		t.Errorf("expected 7 tokens, got %d", eval.TokensUsed)
	}
	if eval.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if provider.requests[0].Model != "test-model" {
		t.Errorf("expected model to be filled in, got %q", provider.requests[0].Model)
	}
}

func TestEvaluate_ProviderError(t *testing.T) {
	boom := errors.New("boom")
	provider := &mockProvider{err: boom}
	e := New(provider, mustStrategy(t, strategy.Direct, 0), Options{Model: "m"})

	if _, err := e.Evaluate(context.Background(), newProblem(1, true)); !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}
}

func TestEvaluate_CacheHit(t *testing.T) {
	provider := &mockProvider{reply: func(int, llm.ChatRequest) string { return "True" }}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	e := New(provider, mustStrategy(t, strategy.LeastToMost, 0), Options{Model: "m", Cache: c})

	p := newProblem(1, true)
	first, err := e.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	second, err := e.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}

	if provider.calls != 2 {
		t.Errorf("expected 2 provider calls (breakdown + solve) across both runs, got %d", provider.calls)
	}
	if first.Response != second.Response {
		t.Errorf("cached run differs:\n%s\n---\n%s", first.Response, second.Response)
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 cache entries, got %d", c.Len())
	}
}

func TestEvaluate_SamplesCachedSeparately(t *testing.T) {
	provider := &mockProvider{reply: func(n int, _ llm.ChatRequest) string {
		if n%2 == 0 {
			return "False"
		}
		return "True"
	}}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	e := New(provider, mustStrategy(t, strategy.SelfConsistency, 3), Options{Model: "m", Cache: c})

	p := newProblem(1, true)
	first, err := e.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if provider.calls != 3 {
		t.Fatalf("expected 3 samples to reach the provider, got %d", provider.calls)
	}
	if c.Len() != 3 {
		t.Errorf("expected one cache entry per sample, got %d", c.Len())
	}

	second, err := e.Evaluate(context.Background(), p)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("expected rerun to be served from cache, got %d calls", provider.calls)
	}
	if first.Response != second.Response {
		t.Error("expected identical aggregated response from cache")
	}
	if second.Prediction == nil || !*second.Prediction {
		t.Errorf("expected majority True, got %s", strategy.FormatAnswer(second.Prediction))
	}
}

func TestEvaluate_DifferentProblemsMiss(t *testing.T) {
	provider := &mockProvider{reply: func(int, llm.ChatRequest) string { return "True" }}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	e := New(provider, mustStrategy(t, strategy.Direct, 0), Options{Model: "m", Cache: c})

	for i := int64(1); i <= 3; i++ {
		if _, err := e.Evaluate(context.Background(), newProblem(i, true)); err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
	}
	if provider.calls != 3 {
		t.Errorf("expected 3 calls, got %d", provider.calls)
	}
}

func TestEvaluate_LimiterCancelled(t *testing.T) {
	provider := &mockProvider{reply: func(int, llm.ChatRequest) string { return "True" }}
	limiter := worker.NewLimiter(0.001, 1)
	e := New(provider, mustStrategy(t, strategy.SelfConsistency, 2), Options{Model: "m", Limiter: limiter})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := e.Evaluate(ctx, newProblem(1, true)); err == nil {
		t.Fatal("expected the second sample to fail waiting on the limiter")
	}
	if provider.calls != 1 {
		t.Errorf("expected exactly one call through the limiter, got %d", provider.calls)
	}
}

func TestEvaluate_WithBatchProcessor(t *testing.T) {
	provider := &mockProvider{reply: func(_ int, req llm.ChatRequest) string { return "True" }}
	e := New(provider, mustStrategy(t, strategy.Direct, 0), Options{Model: "m"})

	var problems []*model.Problem
	for i := int64(1); i <= 10; i++ {
		problems = append(problems, newProblem(i, i%2 == 0))
	}

	results := worker.NewBatchProcessor(4).EvaluateProblems(context.Background(), e, problems)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	correct := 0
	for i, r := range results {
		if r.Error != nil {
			t.Fatalf("result %d: %v", i, r.Error)
		}
		if r.ProblemID != int64(i+1) {
			t.Errorf("result %d has problem %d", i, r.ProblemID)
		}
		if r.Evaluation.Correct() {
			correct++
		}
	}
	if correct != 5 {
		t.Errorf("expected 5 correct, got %d", correct)
	}
}

func fastRetries(t *testing.T) {
	t.Helper()
	orig := retryDelays
	retryDelays = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	t.Cleanup(func() { retryDelays = orig })
}

func TestEvaluate_RetriesTransientFailure(t *testing.T) {
	fastRetries(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model": "gpt-4o-mini", "choices": [{"index": 0, "message": {"role": "assistant", "content": "True"}}], "usage": {"total_tokens": 5}}`))
	}))
	defer server.Close()

	provider, err := llm.NewOpenAIProvider(llm.Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	e := New(provider, mustStrategy(t, strategy.Direct, 0), Options{
		Model:   "gpt-4o-mini",
		Limiter: worker.NewLimiter(1000, 10),
	})

	eval, err := e.Evaluate(context.Background(), newProblem(1, true))
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if !eval.Correct() {
		t.Errorf("expected a correct answer, got prediction %v", eval.Prediction)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestEvaluate_RetriesExhausted(t *testing.T) {
	fastRetries(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, _ := llm.NewOpenAIProvider(llm.Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	e := New(provider, mustStrategy(t, strategy.Direct, 0), Options{Model: "gpt-4o-mini"})

	if _, err := e.Evaluate(context.Background(), newProblem(1, true)); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if want := int32(len(retryDelays) + 1); attempts.Load() != want {
		t.Errorf("expected %d attempts, got %d", want, attempts.Load())
	}
}

func TestEvaluate_PermanentFailureNotRetried(t *testing.T) {
	fastRetries(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	provider, _ := llm.NewOpenAIProvider(llm.Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	e := New(provider, mustStrategy(t, strategy.Direct, 0), Options{Model: "gpt-4o-mini"})

	if _, err := e.Evaluate(context.Background(), newProblem(1, true)); err == nil {
		t.Fatal("expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}
