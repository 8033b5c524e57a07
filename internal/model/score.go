package model

// Score summarizes one group of evaluations (one provider, model and
// strategy) against the oracle's ground truth
type Score struct {
	Provider   string   `json:"provider"`
	Model      string   `json:"model"`
	Strategy   string   `json:"strategy"`
	Total      int      `json:"total"`      // Evaluations scored
	Unanswered int      `json:"unanswered"` // Responses with no extractable verdict
	Accuracy   float64  `json:"accuracy"`
	Precision  float64  `json:"precision"` // Macro average over both labels
	Recall     float64  `json:"recall"`    // Macro average over both labels
	F1         float64  `json:"f1"`        // Macro average over both labels
	AUC        *float64 `json:"auc"`       // nil when the ground truth holds a single label
	Signals    []Signal `json:"signals,omitempty"`
}

// Signal is a diagnostic note attached to a score with its inputs
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalConfusion   SignalType = "confusion"    // Confusion matrix counts
	SignalUnanswered  SignalType = "unanswered"   // Responses without a verdict
	SignalLabelSkew   SignalType = "label_skew"   // Ground truth dominated by one label
	SignalSingleLabel SignalType = "single_label" // AUC undefined
	SignalConstant    SignalType = "constant"     // Model always gives the same verdict
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
