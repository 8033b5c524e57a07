package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/ltlbench/internal/llm"
)

// SelfConsistencyTemperature is the sampling temperature for voting
const SelfConsistencyTemperature = 0.7

// selfConsistency samples the chain-of-thought prompt several times and
// takes a majority vote over the extracted answers
type selfConsistency struct {
	samples int
}

func (s *selfConsistency) Name() string { return SelfConsistency }

func (s *selfConsistency) Run(ctx context.Context, question string, chat ChatFunc) (*Result, error) {
	req := llm.ChatRequest{
		Prompt:      cotPrompt(question),
		Temperature: SelfConsistencyTemperature,
		MaxTokens:   DefaultMaxTokens,
	}

	var (
		responses []string
		votes     []bool
		tokens    int
	)
	for i := 0; i < s.samples; i++ {
		resp, err := chat(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i+1, err)
		}
		tokens += resp.TokensUsed
		responses = append(responses, resp.Content)
		if answer := ExtractAnswer(resp.Content); answer != nil {
			votes = append(votes, *answer)
		}
	}

	joined := "Sample responses:\n" + strings.Join(responses, "\n---\n")

	prediction := majority(votes)
	if prediction == nil {
		return &Result{
			Response:   fmt.Sprintf("Failed to extract answers from %d samples.\n\n%s", s.samples, joined),
			TokensUsed: tokens,
		}, nil
	}

	trueVotes := 0
	for _, v := range votes {
		if v {
			trueVotes++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generated %d samples.\n", s.samples)
	fmt.Fprintf(&b, "Votes: True=%d False=%d\n", trueVotes, len(votes)-trueVotes)
	fmt.Fprintf(&b, "Final answer by majority vote: %s\n\n", FormatAnswer(prediction))
	b.WriteString(joined)

	return &Result{Response: b.String(), Prediction: prediction, TokensUsed: tokens}, nil
}

// majority returns the most common vote; a tie goes to the answer that
// was seen first
func majority(votes []bool) *bool {
	if len(votes) == 0 {
		return nil
	}
	trueVotes := 0
	for _, v := range votes {
		if v {
			trueVotes++
		}
	}
	falseVotes := len(votes) - trueVotes

	var winner bool
	switch {
	case trueVotes > falseVotes:
		winner = true
	case falseVotes > trueVotes:
		winner = false
	default:
		winner = votes[0]
	}
	return &winner
}

// leastToMost first asks for a breakdown of the problem, then asks for a
// solution that builds on it
type leastToMost struct{}

func (s *leastToMost) Name() string { return LeastToMost }

func (s *leastToMost) Run(ctx context.Context, question string, chat ChatFunc) (*Result, error) {
	breakdown, err := chat(ctx, llm.ChatRequest{
		Prompt:      breakdownPrompt(question),
		Temperature: 0,
		MaxTokens:   DefaultMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("breakdown: %w", err)
	}

	solution, err := chat(ctx, llm.ChatRequest{
		Prompt:      solvePrompt(question, breakdown.Content),
		Temperature: 0,
		MaxTokens:   DefaultMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	response := fmt.Sprintf("=== Step 1: Problem Breakdown ===\n%s\n\n=== Step 2: Solution ===\n%s",
		breakdown.Content, solution.Content)

	return &Result{
		Response:   response,
		Prediction: ExtractAnswer(solution.Content),
		TokensUsed: breakdown.TokensUsed + solution.TokensUsed,
	}, nil
}
