package model

import (
	"path/filepath"
	"time"
)

// Config is the complete sourcecheck configuration
type Config struct {
	Recovery RecoveryConfig `yaml:"recovery" mapstructure:"recovery"`
	Ollama   OllamaConfig   `yaml:"ollama" mapstructure:"ollama"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RecoveryConfig holds the input and output paths of a recovery run
type RecoveryConfig struct {
	ContextFile    string `yaml:"context_file" mapstructure:"context_file"`         // Current context snapshot (JSONL)
	OutputFile     string `yaml:"output_file" mapstructure:"output_file"`           // Assertion output (JSONL)
	OldContextFile string `yaml:"old_context_file" mapstructure:"old_context_file"` // Optional previous snapshot for A/B comparison
	ReportFile     string `yaml:"report_file" mapstructure:"report_file"`           // Machine-readable report destination
	SampleSize     int    `yaml:"sample_size" mapstructure:"sample_size"`           // Matched IDs shown in the console report
	UsageExamples  int    `yaml:"usage_examples" mapstructure:"usage_examples"`     // Usages shown per unmatched ID
}

// OllamaConfig configures the inference server probes
type OllamaConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	API               string        `yaml:"api" mapstructure:"api"` // ollama or openai
	Model             string        `yaml:"model" mapstructure:"model"`
	Prompt            string        `yaml:"prompt" mapstructure:"prompt"`
	TagsTimeout       time.Duration `yaml:"tags_timeout" mapstructure:"tags_timeout"`
	GenerateTimeout   time.Duration `yaml:"generate_timeout" mapstructure:"generate_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 = unlimited
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the in-process extraction cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LogConfig configures diagnostic logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // trace, debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Recovery: RecoveryConfig{
			ContextFile:    filepath.Join("docs", "LOD_1125.jsonl"),
			OutputFile:     filepath.Join("docs", "11_25_output.jsonl"),
			OldContextFile: filepath.Join("docs", "LOD_1121.jsonl"),
			ReportFile:     filepath.Join("docs", "sourceid_recovery_report.json"),
			SampleSize:     10,
			UsageExamples:  2,
		},
		Ollama: OllamaConfig{
			BaseURL:         "http://localhost:11434",
			API:             "ollama",
			Model:           "gpt-oss:20b",
			Prompt:          "Hello",
			TagsTimeout:     5 * time.Second,
			GenerateTimeout: 60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
