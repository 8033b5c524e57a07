package model

import "runtime"

// Config is the complete ltlbench configuration
type Config struct {
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Oracle     OracleConfig     `yaml:"oracle" mapstructure:"oracle"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Evaluation EvaluationConfig `yaml:"evaluation" mapstructure:"evaluation"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" mapstructure:"telemetry"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// GenerationConfig controls problem synthesis
type GenerationConfig struct {
	Events        int    `yaml:"events" mapstructure:"events"`                 // Atomic events per problem
	FormulaLength int    `yaml:"formula_length" mapstructure:"formula_length"` // Operators per formula
	Count         int    `yaml:"count" mapstructure:"count"`                   // Problems per batch
	Seed          uint64 `yaml:"seed" mapstructure:"seed"`                     // Batch seed
	Workers       int    `yaml:"workers" mapstructure:"workers"`               // Concurrent generators
	MaxEvents     int    `yaml:"max_events" mapstructure:"max_events"`         // Upper bound accepted for events
	MaxLength     int    `yaml:"max_length" mapstructure:"max_length"`         // Upper bound accepted for formula_length
}

// OracleConfig locates the external model checker
type OracleConfig struct {
	Binary  string `yaml:"binary" mapstructure:"binary"`     // NuSMV executable name or path
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"` // Where model files are written ("" = os.TempDir)
}

// StoreConfig locates the dataset database
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LLMConfig holds language model backend configuration
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, deepseek, anthropic, ollama ("" = infer from model)
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// EvaluationConfig controls how strategies are run against stored problems
type EvaluationConfig struct {
	Strategies        []string `yaml:"strategies" mapstructure:"strategies"`
	Samples           int      `yaml:"samples" mapstructure:"samples"` // self-consistency votes
	Workers           int      `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int      `yaml:"burst_size" mapstructure:"burst_size"`
	Limit             int      `yaml:"limit" mapstructure:"limit"` // 0 = all stored problems
}

// CacheConfig controls the LLM response cache
type CacheConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir       string `yaml:"dir" mapstructure:"dir"`
	MemoryTTL int    `yaml:"memory_ttl" mapstructure:"memory_ttl"` // minutes
	DiskTTL   int    `yaml:"disk_ttl" mapstructure:"disk_ttl"`     // hours
}

// TelemetryConfig controls Prometheus textfile export
type TelemetryConfig struct {
	Textfile string `yaml:"textfile,omitempty" mapstructure:"textfile"`
}

// OutputConfig controls reporting
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Events:        3,
			FormulaLength: 3,
			Count:         1000,
			Seed:          1,
			Workers:       runtime.NumCPU(),
			MaxEvents:     64,
			MaxLength:     64,
		},
		Oracle: OracleConfig{
			Binary: "NuSMV",
		},
		Store: StoreConfig{
			Path: "./results/ltlbench.db",
		},
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Evaluation: EvaluationConfig{
			Strategies:        []string{"direct"},
			Samples:           5,
			Workers:           4,
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "./results/cache",
			MemoryTTL: 60,
			DiskTTL:   24 * 30,
		},
	}
}
