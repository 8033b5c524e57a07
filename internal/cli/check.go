package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ltlbench/internal/oracle"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file.smv>",
	Short: "Run NuSMV on a model file and print its verdict",
	Long: `Check runs the configured NuSMV binary on a file that holds a model and
one LTLSPEC line, such as the code of a stored problem, and prints True or
False.

Example:
  ltlbench check problem.smv
  ltlbench check problem.smv --nusmv /opt/nusmv/bin/NuSMV`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var checkBinary string

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkBinary, "nusmv", oracle.DefaultBinary, "NuSMV executable (default from config)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	code, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}

	binary := cfg.Oracle.Binary
	if cmd.Flags().Changed("nusmv") {
		binary = checkBinary
	}

	client := oracle.NewClient(binary, cfg.Oracle.TempDir)
	verdict, err := client.Check(cmd.Context(), string(code))
	if err != nil {
		return err
	}

	fmt.Println(answerLabel(verdict))
	return nil
}
