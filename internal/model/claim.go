package model

import (
	"fmt"
	"strings"
)

// Claim is one entry of a hypothesis claim chain
type Claim struct {
	Index int    `json:"index"` // 1-based, assigned in postorder
	Text  string `json:"text"`  // Sentence without the "C<n>: " prefix or trailing period
}

// Ref returns the reference label other claims use for this one (e.g. "C3")
func (c Claim) Ref() string {
	return ClaimRef(c.Index)
}

// String renders the claim as a hypothesis line
func (c Claim) String() string {
	return fmt.Sprintf("%s: %s.", c.Ref(), c.Text)
}

// ClaimRef formats a claim index as a reference label
func ClaimRef(index int) string {
	return fmt.Sprintf("C%d", index)
}

// ClaimChain is the ordered, cross-referenced decomposition of a formula
type ClaimChain struct {
	Claims []Claim `json:"claims"`

	// Hypothesis is the reference the reader must judge: the root claim's
	// label, or the plain atomic phrase when the formula has no operators
	Hypothesis string `json:"hypothesis"`
}

// Text renders the chain as newline-separated claim lines
func (c ClaimChain) Text() string {
	lines := make([]string, len(c.Claims))
	for i, claim := range c.Claims {
		lines[i] = claim.String()
	}
	return strings.Join(lines, "\n")
}
