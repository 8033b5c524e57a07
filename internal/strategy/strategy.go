// Package strategy holds the prompting strategies used to ask a language
// model whether a problem's hypothesis is true.
package strategy

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/ltlbench/internal/llm"
)

// Strategy names
const (
	Direct          = "direct"
	ZeroShotCoT     = "cot"
	FewShotCoT      = "few_shot_cot"
	SelfConsistency = "self_consistency"
	LeastToMost     = "least_to_most"
)

// DefaultMaxTokens is the completion budget every strategy asks for
const DefaultMaxTokens = 2000

// ChatFunc sends one request. Evaluation wraps the provider with caching
// and rate limiting behind this signature.
type ChatFunc func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)

// Result is a strategy's answer to one question
type Result struct {
	Response   string // raw or aggregated model output
	Prediction *bool  // nil when no verdict was found
	TokensUsed int
}

// Strategy turns a question into one or more chat calls and a verdict
type Strategy interface {
	Name() string
	Run(ctx context.Context, question string, chat ChatFunc) (*Result, error)
}

// New returns the strategy called name. samples is only used by
// self-consistency.
func New(name string, samples int) (Strategy, error) {
	switch name {
	case Direct:
		return &single{name: Direct, build: directPrompt}, nil
	case ZeroShotCoT:
		return &single{name: ZeroShotCoT, build: cotPrompt}, nil
	case FewShotCoT:
		return &single{name: FewShotCoT, build: fewShotPrompt}, nil
	case SelfConsistency:
		if samples <= 0 {
			return nil, fmt.Errorf("self-consistency needs at least one sample, got %d", samples)
		}
		return &selfConsistency{samples: samples}, nil
	case LeastToMost:
		return &leastToMost{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %s (supported: %s)", name, strings.Join(Names(), ", "))
	}
}

// Names lists the supported strategies
func Names() []string {
	names := []string{Direct, ZeroShotCoT, FewShotCoT, SelfConsistency, LeastToMost}
	sort.Strings(names)
	return names
}

var answerPattern = regexp.MustCompile(`(?i)(true|false)`)

// ExtractAnswer returns the last "true" or "false" in response, ignoring
// case, or nil when there is none.
func ExtractAnswer(response string) *bool {
	matches := answerPattern.FindAllString(response, -1)
	if len(matches) == 0 {
		return nil
	}
	v := strings.EqualFold(matches[len(matches)-1], "true")
	return &v
}

// FormatAnswer renders a prediction as "True", "False" or "None"
func FormatAnswer(p *bool) string {
	switch {
	case p == nil:
		return "None"
	case *p:
		return "True"
	default:
		return "False"
	}
}

// single sends one greedy request built from the question
type single struct {
	name  string
	build func(question string) string
}

func (s *single) Name() string { return s.name }

func (s *single) Run(ctx context.Context, question string, chat ChatFunc) (*Result, error) {
	resp, err := chat(ctx, llm.ChatRequest{
		Prompt:      s.build(question),
		Temperature: 0,
		MaxTokens:   DefaultMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Response:   resp.Content,
		Prediction: ExtractAnswer(resp.Content),
		TokensUsed: resp.TokensUsed,
	}, nil
}
