package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/ltlbench/internal/model"
	"github.com/ppiankov/ltlbench/internal/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Version is the ltlbench release
const Version = "0.3.0"

var (
	cfgFile     string
	verbose     bool
	metricsFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ltlbench",
	Short: "ltlbench - temporal logic reasoning benchmark for language models",
	Long: `ltlbench synthesizes reasoning problems about small transition systems.

Each problem pairs a narrative of which events may follow which with a
nested temporal claim broken into numbered sub-claims. The ground-truth
answer comes from the NuSMV model checker, never from ltlbench itself.

Generated problems are stored in SQLite and can be put to language models
with several prompting strategies, then scored.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		path := metricsFile
		if path == "" {
			path = viper.GetString("telemetry.textfile")
		}
		return telemetry.WriteTextfile(path)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of ltlbench.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ltlbench v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ltlbench/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	rootCmd.PersistentFlags().String("store", "", "SQLite database path (default from config)")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".ltlbench"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// LTLBENCH_GENERATION_COUNT overrides generation.count
	viper.SetEnvPrefix("LTLBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every default so environment variables can
// override keys that appear in no config file
func setDefaults(v *viper.Viper) {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return
	}
	var defaults map[string]any
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// omitted from the marshalled defaults because they are empty
	for _, key := range []string{
		"llm.api_key", "llm.base_url",
		"llm.http_proxy", "llm.https_proxy", "llm.no_proxy",
		"telemetry.textfile",
	} {
		_ = v.BindEnv(key)
	}
}

// loadConfig returns the effective configuration: flags, LTLBENCH_*
// environment, config file, then defaults
func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
