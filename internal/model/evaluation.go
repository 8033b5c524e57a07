package model

import "time"

// Evaluation records one language model's attempt at a problem
type Evaluation struct {
	ID         int64     `json:"id,omitempty"`
	ProblemID  int64     `json:"problem_id"`
	Provider   string    `json:"provider"`             // openai, deepseek, anthropic, ollama
	Model      string    `json:"model"`                // Model name
	Strategy   string    `json:"strategy"`             // direct, cot, few_shot_cot, ...
	Response   string    `json:"response"`             // Raw (possibly aggregated) model output
	Prediction *bool     `json:"prediction,omitempty"` // nil when no verdict could be extracted
	Answer     bool      `json:"answer"`               // Ground truth copied from the problem
	Error      string    `json:"error,omitempty"`      // Backend failure, if any
	TokensUsed int       `json:"tokens_used,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Correct reports whether the prediction matches the ground truth
func (e Evaluation) Correct() bool {
	return e.Prediction != nil && *e.Prediction == e.Answer
}

// Answered reports whether a verdict was extracted from the response
func (e Evaluation) Answered() bool {
	return e.Prediction != nil
}
