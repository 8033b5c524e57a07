package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ltlbench/internal/model"
	"github.com/ppiankov/ltlbench/internal/score"
	"github.com/ppiankov/ltlbench/internal/store"
)

var (
	metricsProvider string
	metricsModel    string
	metricsStrategy string
	metricsJSON     bool
)

// metricsCmd represents the metrics command
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Score stored evaluations",
	Long: `Metrics scores stored evaluations against the NuSMV ground truth, one
block per provider, model and strategy:
- accuracy
- macro precision, recall and F1 over both labels
- ROC AUC of the hard True/False predictions

A response with no True/False verdict counts as the wrong answer.

Example:
  ltlbench metrics
  ltlbench metrics --model gpt-4 --strategy cot
  ltlbench metrics --json`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringVar(&metricsProvider, "provider", "", "only this provider")
	metricsCmd.Flags().StringVar(&metricsModel, "model", "", "only this model")
	metricsCmd.Flags().StringVar(&metricsStrategy, "strategy", "", "only this strategy")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "print scores as JSON")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	evals, err := st.ListEvaluations(store.EvaluationFilter{
		Provider: metricsProvider,
		Model:    metricsModel,
		Strategy: metricsStrategy,
	})
	if err != nil {
		return fmt.Errorf("list evaluations: %w", err)
	}
	if len(evals) == 0 {
		return fmt.Errorf("no evaluations found; run 'ltlbench evaluate' first")
	}

	scores := score.NewScorer().CalculateGroups(evals)

	if metricsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scores)
	}

	for _, s := range scores {
		printScore(os.Stdout, s)
	}
	return nil
}

// printScore writes one score block
func printScore(w io.Writer, s model.Score) {
	fmt.Fprintf(w, "\n═══════════════════════════════════════\n")
	fmt.Fprintf(w, "  %s/%s · %s\n", s.Provider, s.Model, s.Strategy)
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "  Evaluated:   %d (%d unanswered)\n", s.Total, s.Unanswered)
	for _, row := range score.Formatted(s) {
		fmt.Fprintf(w, "  %-11s  %s\n", row[0]+":", row[1])
	}

	if verbose {
		for _, sig := range s.Signals {
			fmt.Fprintf(w, "  [%s] %s\n", sig.Severity, sig.Description)
		}
	} else {
		for _, sig := range s.Signals {
			if sig.Severity != model.SeverityInfo {
				fmt.Fprintf(w, "  ⚠️  %s\n", sig.Description)
			}
		}
	}
}
