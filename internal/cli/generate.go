package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ltlbench/internal/model"
	"github.com/ppiankov/ltlbench/internal/pipeline"
	"github.com/ppiankov/ltlbench/internal/store"
	"github.com/ppiankov/ltlbench/internal/worker"
)

var (
	genJSON    string
	genNoStore bool
	genTimeout time.Duration
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a batch of labelled problems",
	Long: `Generate synthesizes problems in parallel:
- Draw a random transition graph over N events and narrate it
- Synthesize a temporal formula with exactly L operators
- Break the formula into numbered claims
- Label the problem by running NuSMV on the encoded model

Every problem uses its own random stream derived from (seed, index), so a
batch is reproducible regardless of worker count.

Example:
  ltlbench generate --count 100 --events 3 --length 3
  ltlbench generate --count 50 --events 5 --length 4 --seed 42 --json problems.json
  ltlbench generate --workers 16 --no-store --json -`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	defaults := model.DefaultConfig().Generation
	generateCmd.Flags().Int("count", defaults.Count, "number of problems to generate")
	generateCmd.Flags().Int("events", defaults.Events, "number of atomic events per problem")
	generateCmd.Flags().Int("length", defaults.FormulaLength, "number of operators per formula")
	generateCmd.Flags().Uint64("seed", defaults.Seed, "batch seed")
	generateCmd.Flags().Int("workers", defaults.Workers, "number of concurrent workers")
	generateCmd.Flags().String("nusmv", model.DefaultConfig().Oracle.Binary, "NuSMV executable")

	_ = viper.BindPFlag("generation.count", generateCmd.Flags().Lookup("count"))
	_ = viper.BindPFlag("generation.events", generateCmd.Flags().Lookup("events"))
	_ = viper.BindPFlag("generation.formula_length", generateCmd.Flags().Lookup("length"))
	_ = viper.BindPFlag("generation.seed", generateCmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("generation.workers", generateCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("oracle.binary", generateCmd.Flags().Lookup("nusmv"))

	generateCmd.Flags().StringVar(&genJSON, "json", "", "also write problems as JSON to this path (- for stdout)")
	generateCmd.Flags().BoolVar(&genNoStore, "no-store", false, "do not save problems to the database")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", time.Hour, "total timeout for the batch")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gen := cfg.Generation
	if gen.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", gen.Count)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), genTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  ltlbench Problem Generation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Problems:   %d\n", gen.Count)
	fmt.Fprintf(os.Stderr, "  Events:     %d\n", gen.Events)
	fmt.Fprintf(os.Stderr, "  Operators:  %d\n", gen.FormulaLength)
	fmt.Fprintf(os.Stderr, "  Seed:       %d\n", gen.Seed)
	fmt.Fprintf(os.Stderr, "  Workers:    %d\n", gen.Workers)
	fmt.Fprintf(os.Stderr, "  Oracle:     %s\n", cfg.Oracle.Binary)
	if !genNoStore {
		fmt.Fprintf(os.Stderr, "  Store:      %s\n", cfg.Store.Path)
	}
	fmt.Fprintf(os.Stderr, "\n")

	var st *store.Store
	if !genNoStore {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
	}

	generator := pipeline.NewGeneratorFromConfig(cfg)
	processor := worker.NewBatchProcessor(gen.Workers)

	fmt.Fprintf(os.Stderr, "⚙️  Generating problems with %d workers...\n", gen.Workers)
	results := processor.GenerateBatch(ctx, generator, worker.BatchSpec{
		Seed:   gen.Seed,
		Count:  gen.Count,
		Events: gen.Events,
		Length: gen.FormulaLength,
	})

	var problems []*model.Problem
	failed := 0
	for _, result := range results {
		if result.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ #%d: %v\n", result.Index, result.Error)
			continue
		}
		problems = append(problems, result.Problem)
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ #%d %s → %s\n", result.Index, result.Problem.Formula, answerLabel(result.Problem.Answer))
		}
	}

	if st != nil && len(problems) > 0 {
		added, err := st.SaveProblems(problems)
		if err != nil {
			return fmt.Errorf("save problems: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Stored %d new problems (%d already present)\n", added, len(problems)-added)
	}

	renderer := pipeline.NewRenderer()
	switch genJSON {
	case "":
	case "-":
		if err := renderer.WriteJSON(os.Stdout, problems); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	default:
		if err := renderer.RenderJSON(problems, genJSON); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", genJSON)
	}

	renderer.RenderSummary(os.Stderr, problems, failed)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("generation interrupted, %d of %d problems missing: %w", failed, gen.Count, err)
	}
	if len(problems) == 0 {
		return fmt.Errorf("all %d problems failed", failed)
	}
	return nil
}

func answerLabel(answer bool) string {
	if answer {
		return "True"
	}
	return "False"
}
