// Package score computes classification metrics for stored evaluations
package score

import (
	"fmt"
	"sort"

	"github.com/ppiankov/ltlbench/internal/model"
)

// Scorer calculates accuracy, macro precision/recall/F1 and AUC
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// confusion counts outcomes with "true" as the positive label. A missing
// prediction is counted as the wrong label.
type confusion struct {
	tp, fp, tn, fn int
	unanswered     int
}

func (c confusion) total() int { return c.tp + c.fp + c.tn + c.fn }

func tally(evals []model.Evaluation) confusion {
	var c confusion
	for _, e := range evals {
		predicted := !e.Answer
		if e.Prediction != nil {
			predicted = *e.Prediction
		} else {
			c.unanswered++
		}

		switch {
		case e.Answer && predicted:
			c.tp++
		case e.Answer && !predicted:
			c.fn++
		case !e.Answer && predicted:
			c.fp++
		default:
			c.tn++
		}
	}
	return c
}

// Calculate scores one group of evaluations. Provider, model and strategy
// are taken from the first evaluation.
func (s *Scorer) Calculate(evals []model.Evaluation) model.Score {
	c := tally(evals)

	result := model.Score{
		Total:      c.total(),
		Unanswered: c.unanswered,
	}
	if len(evals) > 0 {
		result.Provider = evals[0].Provider
		result.Model = evals[0].Model
		result.Strategy = evals[0].Strategy
	}
	if result.Total == 0 {
		return result
	}

	result.Accuracy = float64(c.tp+c.tn) / float64(c.total())
	result.Precision, result.Recall, result.F1 = macro(c)
	result.AUC = auc(c)

	result.Signals = append(result.Signals, confusionSignal(c))
	if sig, ok := unansweredSignal(c); ok {
		result.Signals = append(result.Signals, sig)
	}
	if sig, ok := skewSignal(c); ok {
		result.Signals = append(result.Signals, sig)
	}
	if sig, ok := constantSignal(c); ok {
		result.Signals = append(result.Signals, sig)
	}

	return result
}

// CalculateGroups scores evaluations grouped by provider, model and
// strategy, sorted by those keys
func (s *Scorer) CalculateGroups(evals []model.Evaluation) []model.Score {
	type key struct{ provider, model, strategy string }

	groups := make(map[key][]model.Evaluation)
	for _, e := range evals {
		k := key{e.Provider, e.Model, e.Strategy}
		groups[k] = append(groups[k], e)
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].provider != keys[j].provider {
			return keys[i].provider < keys[j].provider
		}
		if keys[i].model != keys[j].model {
			return keys[i].model < keys[j].model
		}
		return keys[i].strategy < keys[j].strategy
	})

	scores := make([]model.Score, 0, len(keys))
	for _, k := range keys {
		scores = append(scores, s.Calculate(groups[k]))
	}
	return scores
}

// macro averages precision, recall and F1 over the labels that occur in
// either the ground truth or the predictions. Undefined ratios count as 0.
func macro(c confusion) (precision, recall, f1 float64) {
	type counts struct{ hit, predicted, actual int }
	labels := []counts{
		{hit: c.tp, predicted: c.tp + c.fp, actual: c.tp + c.fn}, // true
		{hit: c.tn, predicted: c.tn + c.fn, actual: c.tn + c.fp}, // false
	}

	n := 0
	for _, l := range labels {
		if l.predicted == 0 && l.actual == 0 {
			continue
		}
		n++

		p := ratio(l.hit, l.predicted)
		r := ratio(l.hit, l.actual)
		precision += p
		recall += r
		if p+r > 0 {
			f1 += 2 * p * r / (p + r)
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	return precision / float64(n), recall / float64(n), f1 / float64(n)
}

// auc is the area under the ROC curve of hard predictions, which reduces
// to the mean of the true positive and true negative rates
func auc(c confusion) *float64 {
	positives := c.tp + c.fn
	negatives := c.tn + c.fp
	if positives == 0 || negatives == 0 {
		return nil
	}
	v := (ratio(c.tp, positives) + ratio(c.tn, negatives)) / 2
	return &v
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func confusionSignal(c confusion) model.Signal {
	return model.Signal{
		Type:        model.SignalConfusion,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("TP=%d FP=%d TN=%d FN=%d", c.tp, c.fp, c.tn, c.fn),
		Data: map[string]any{
			"tp":      c.tp,
			"fp":      c.fp,
			"tn":      c.tn,
			"fn":      c.fn,
			"formula": "accuracy = (tp + tn) / total",
		},
	}
}

func unansweredSignal(c confusion) (model.Signal, bool) {
	if c.unanswered == 0 {
		return model.Signal{}, false
	}

	share := ratio(c.unanswered, c.total())
	severity := model.SeverityWarning
	if share >= 0.5 {
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalUnanswered,
		Severity:    severity,
		Description: fmt.Sprintf("%d/%d responses had no True/False verdict (scored as wrong)", c.unanswered, c.total()),
		Data: map[string]any{
			"unanswered": c.unanswered,
			"total":      c.total(),
			"share":      share,
		},
	}, true
}

func skewSignal(c confusion) (model.Signal, bool) {
	positives := c.tp + c.fn
	negatives := c.tn + c.fp

	if positives == 0 || negatives == 0 {
		return model.Signal{
			Type:        model.SignalSingleLabel,
			Severity:    model.SeverityWarning,
			Description: "Ground truth holds a single label; AUC is undefined",
			Data: map[string]any{
				"true":  positives,
				"false": negatives,
			},
		}, true
	}

	share := ratio(positives, c.total())
	if share >= 0.2 && share <= 0.8 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalLabelSkew,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Ground truth is %.0f%% True; prefer F1 and AUC over accuracy", share*100),
		Data: map[string]any{
			"true":  positives,
			"false": negatives,
		},
	}, true
}

func constantSignal(c confusion) (model.Signal, bool) {
	predictedTrue := c.tp + c.fp
	predictedFalse := c.tn + c.fn
	if c.total() < 2 || (predictedTrue != 0 && predictedFalse != 0) {
		return model.Signal{}, false
	}

	verdict := "True"
	if predictedTrue == 0 {
		verdict = "False"
	}

	return model.Signal{
		Type:        model.SignalConstant,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Every prediction was %s", verdict),
		Data:        map[string]any{"verdict": verdict},
	}, true
}

// Format renders a metric with two decimals; a nil AUC renders as "n/a"
func Format(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

// Formatted returns the five headline metrics as two-decimal strings, in
// report order
func Formatted(s model.Score) [][2]string {
	return [][2]string{
		{"accuracy", Format(&s.Accuracy)},
		{"precision", Format(&s.Precision)},
		{"recall", Format(&s.Recall)},
		{"f1", Format(&s.F1)},
		{"auc", Format(s.AUC)},
	}
}
