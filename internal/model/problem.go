package model

import "time"

// Problem is one synthesized benchmark item
type Problem struct {
	ID        int64     `json:"id,omitempty"`         // Store row id (0 until persisted)
	Seed      uint64    `json:"seed"`                 // Batch seed the item was drawn from
	Index     uint64    `json:"index"`                // Position inside the batch
	CreatedAt time.Time `json:"created_at,omitempty"` // When the item was generated

	Events        int `json:"events"`         // Size of the atomic event alphabet
	FormulaLength int `json:"formula_length"` // Operator budget of the formula

	InitialState string     `json:"initial_state"`
	Context      string     `json:"context"`       // "Initially, X happened." + narrative
	Claims       ClaimChain `json:"claims"`        // Hypothesis decomposition
	Question     string     `json:"question"`      // Full prompt text shown to a reader
	Code         string     `json:"code"`          // NuSMV model followed by the LTLSPEC line
	Formula      string     `json:"formula"`       // Canonical symbolic string
	Graph        string     `json:"graph"`         // JSON encoded transition graph
	Answer       bool       `json:"answer"`        // Oracle verdict
}

// Hypothesis returns the newline separated claim lines
func (p *Problem) Hypothesis() string {
	return p.Claims.Text()
}
