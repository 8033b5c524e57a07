package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ltlbench/internal/cache"
	"github.com/ppiankov/ltlbench/internal/evaluate"
	"github.com/ppiankov/ltlbench/internal/llm"
	"github.com/ppiankov/ltlbench/internal/model"
	"github.com/ppiankov/ltlbench/internal/score"
	"github.com/ppiankov/ltlbench/internal/store"
	"github.com/ppiankov/ltlbench/internal/strategy"
	"github.com/ppiankov/ltlbench/internal/telemetry"
	"github.com/ppiankov/ltlbench/internal/worker"
)

var (
	evalNoCache bool
	evalForce   bool
	evalEvents  int
	evalLength  int
	evalTimeout time.Duration
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Ask a language model to answer stored problems",
	Long: `Evaluate puts stored problems to a language model:
- Build prompts with one or more strategies
- Send them through a per-provider rate limiter
- Reuse cached completions where the same request was made before
- Store every answer and print the resulting metrics

Strategies: direct, cot, few_shot_cot, self_consistency, least_to_most

Problems already evaluated with the same provider, model and strategy are
skipped unless --force is given.

Example:
  ltlbench evaluate --model gpt-4 --strategy direct,cot
  ltlbench evaluate --model deepseek-chat --strategy self_consistency --samples 5
  ltlbench evaluate --model qwen:7b-chat --events 3 --length 3 --limit 100`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	defaults := model.DefaultConfig()
	evaluateCmd.Flags().String("model", defaults.LLM.Model, "model name")
	evaluateCmd.Flags().String("provider", "", "LLM provider (openai, deepseek, anthropic, ollama; default inferred from model)")
	evaluateCmd.Flags().String("base-url", "", "override the provider endpoint")
	evaluateCmd.Flags().StringSlice("strategy", defaults.Evaluation.Strategies, "prompting strategies")
	evaluateCmd.Flags().Int("samples", defaults.Evaluation.Samples, "self-consistency samples")
	evaluateCmd.Flags().Int("workers", defaults.Evaluation.Workers, "concurrent problems")
	evaluateCmd.Flags().Float64("rps", defaults.Evaluation.RequestsPerSecond, "requests per second per provider (0 = unlimited)")
	evaluateCmd.Flags().Int("limit", 0, "evaluate at most this many problems (0 = all)")
	evaluateCmd.Flags().String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	evaluateCmd.Flags().String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	_ = viper.BindPFlag("llm.model", evaluateCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("llm.provider", evaluateCmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("llm.base_url", evaluateCmd.Flags().Lookup("base-url"))
	_ = viper.BindPFlag("evaluation.strategies", evaluateCmd.Flags().Lookup("strategy"))
	_ = viper.BindPFlag("evaluation.samples", evaluateCmd.Flags().Lookup("samples"))
	_ = viper.BindPFlag("evaluation.workers", evaluateCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("evaluation.requests_per_second", evaluateCmd.Flags().Lookup("rps"))
	_ = viper.BindPFlag("evaluation.limit", evaluateCmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("llm.http_proxy", evaluateCmd.Flags().Lookup("http-proxy"))
	_ = viper.BindPFlag("llm.https_proxy", evaluateCmd.Flags().Lookup("https-proxy"))

	evaluateCmd.Flags().BoolVar(&evalNoCache, "no-cache", false, "disable the response cache")
	evaluateCmd.Flags().BoolVar(&evalForce, "force", false, "re-evaluate problems that already have an answer")
	evaluateCmd.Flags().IntVar(&evalEvents, "events", 0, "only problems with this many events")
	evaluateCmd.Flags().IntVar(&evalLength, "length", 0, "only problems with this many operators")
	evaluateCmd.Flags().DurationVar(&evalTimeout, "timeout", 6*time.Hour, "total timeout for the run")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	strategies := make([]strategy.Strategy, 0, len(cfg.Evaluation.Strategies))
	for _, name := range cfg.Evaluation.Strategies {
		s, err := strategy.New(name, cfg.Evaluation.Samples)
		if err != nil {
			return err
		}
		strategies = append(strategies, s)
	}
	if len(strategies) == 0 {
		return fmt.Errorf("no strategy selected (supported: %v)", strategy.Names())
	}

	llmCfg := llm.ApplyEnv(llm.ConfigFromModel(cfg.LLM))
	provider, err := llm.NewProvider(llmCfg)
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	problems, err := st.ListProblems(store.ProblemFilter{
		Events:        evalEvents,
		FormulaLength: evalLength,
		Limit:         cfg.Evaluation.Limit,
	})
	if err != nil {
		return fmt.Errorf("list problems: %w", err)
	}
	if len(problems) == 0 {
		return fmt.Errorf("no problems in %s; run 'ltlbench generate' first", cfg.Store.Path)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), evalTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  ltlbench Evaluation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Model:       %s/%s\n", provider.Name(), cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "  Strategies:  %v\n", cfg.Evaluation.Strategies)
	fmt.Fprintf(os.Stderr, "  Problems:    %d\n", len(problems))
	fmt.Fprintf(os.Stderr, "  Workers:     %d\n", cfg.Evaluation.Workers)
	fmt.Fprintf(os.Stderr, "  Rate limit:  %.2f req/s\n", cfg.Evaluation.RequestsPerSecond)
	fmt.Fprintf(os.Stderr, "  Cache:       %v\n", cfg.Cache.Enabled && !evalNoCache)
	fmt.Fprintf(os.Stderr, "\n")

	if verbose && !provider.IsAvailable(ctx) {
		fmt.Fprintf(os.Stderr, "Warning: %s does not look reachable, requests may fail\n", provider.Name())
	}

	opts := evaluate.Options{
		Model:   cfg.LLM.Model,
		Limiter: worker.NewLimiter(cfg.Evaluation.RequestsPerSecond, cfg.Evaluation.BurstSize),
		Verbose: verbose,
	}
	if cfg.Cache.Enabled && !evalNoCache {
		opts.Cache = cache.NewLayeredCache(
			time.Duration(cfg.Cache.MemoryTTL)*time.Minute,
			cfg.Cache.Dir,
			time.Duration(cfg.Cache.DiskTTL)*time.Hour,
		)
	}

	processor := worker.NewBatchProcessor(cfg.Evaluation.Workers)
	scorer := score.NewScorer()

	for _, strat := range strategies {
		pending := problems
		if !evalForce {
			done, err := st.EvaluatedProblems(provider.Name(), cfg.LLM.Model, strat.Name())
			if err != nil {
				return fmt.Errorf("load previous evaluations: %w", err)
			}
			pending = pendingProblems(problems, done)
		}

		fmt.Fprintf(os.Stderr, "⚙️  %s: %d problems (%d already evaluated)\n", strat.Name(), len(pending), len(problems)-len(pending))

		evaluator := evaluate.New(provider, strat, opts)
		results := processor.EvaluateProblems(ctx, evaluator, pending)

		failed := 0
		for _, result := range results {
			if result.Error != nil {
				failed++
				fmt.Fprintf(os.Stderr, "✗ problem %d: %v\n", result.ProblemID, result.Error)
				continue
			}
			if err := st.SaveEvaluation(result.Evaluation); err != nil {
				return fmt.Errorf("save evaluation: %w", err)
			}
			telemetry.EvaluationsRecorded.WithLabelValues(strat.Name()).Inc()

			if verbose {
				mark := "✗"
				if result.Evaluation.Correct() {
					mark = "✓"
				}
				fmt.Fprintf(os.Stderr, "%s problem %d: predicted %s, expected %s\n", mark, result.ProblemID,
					strategy.FormatAnswer(result.Evaluation.Prediction), answerLabel(result.Evaluation.Answer))
			}
		}
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "✗ %s: %d requests failed\n", strat.Name(), failed)
		}

		evals, err := st.ListEvaluations(store.EvaluationFilter{
			Provider: provider.Name(),
			Model:    cfg.LLM.Model,
			Strategy: strat.Name(),
		})
		if err != nil {
			return fmt.Errorf("list evaluations: %w", err)
		}
		printScore(os.Stderr, scorer.Calculate(onlyProblems(evals, problems)))

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("evaluation interrupted during %s: %w", strat.Name(), err)
		}
	}

	return nil
}

// pendingProblems drops problems whose id is in done
func pendingProblems(problems []*model.Problem, done map[int64]bool) []*model.Problem {
	var pending []*model.Problem
	for _, p := range problems {
		if !done[p.ID] {
			pending = append(pending, p)
		}
	}
	return pending
}

// onlyProblems keeps the latest evaluation of each selected problem
func onlyProblems(evals []model.Evaluation, problems []*model.Problem) []model.Evaluation {
	selected := make(map[int64]bool, len(problems))
	for _, p := range problems {
		selected[p.ID] = true
	}

	latest := make(map[int64]int)
	var out []model.Evaluation
	for _, e := range evals {
		if !selected[e.ProblemID] {
			continue
		}
		if i, ok := latest[e.ProblemID]; ok {
			out[i] = e
			continue
		}
		latest[e.ProblemID] = len(out)
		out = append(out, e)
	}
	return out
}
