package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ltlbench/internal/pipeline"
	"github.com/ppiankov/ltlbench/internal/store"
	"github.com/ppiankov/ltlbench/internal/strategy"
)

var showJSON bool

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored problem",
	Long: `Show prints one stored problem as Markdown: its question, canonical
formula, NuSMV program and any stored answers.

Example:
  ltlbench show 12
  ltlbench show 12 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the problem as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid problem id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	problem, err := st.GetProblem(id)
	if err != nil {
		return err
	}

	if showJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(problem)
	}

	fmt.Print(pipeline.NewRenderer().RenderMarkdown(problem))

	evals, err := st.ListEvaluations(store.EvaluationFilter{ProblemID: id})
	if err != nil {
		return fmt.Errorf("list evaluations: %w", err)
	}
	if len(evals) == 0 {
		return nil
	}

	fmt.Print("\n## Answers\n\n")
	for _, e := range evals {
		mark := "✗"
		if e.Correct() {
			mark = "✓"
		}
		fmt.Printf("- %s %s/%s · %s: %s\n", mark, e.Provider, e.Model, e.Strategy, strategy.FormatAnswer(e.Prediction))
	}
	return nil
}
