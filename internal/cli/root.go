package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/sourcecheck/internal/logging"
	"github.com/ppiankov/sourcecheck/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const version = "v0.1.0"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sourcecheck",
	Short: "sourcecheck - sourceID recovery and inference server diagnostics",
	Long: `sourcecheck bundles small diagnostics used while building grounded
assertion datasets:

- recover: cross-reference the sourceIDs cited by assertions against the
  entity identifiers present in a context snapshot
- models:  list the models served by a local inference server
- ping:    connectivity and generation smoke test against that server`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sourcecheck %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.sourcecheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console, json)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// A missing .env is normal
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.sourcecheck")
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Environment variables take the form SOURCECHECK_OLLAMA_BASE_URL
	viper.SetEnvPrefix("SOURCECHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("ollama.base_url", "SOURCECHECK_OLLAMA_BASE_URL", "OLLAMA_BASE_URL")
	_ = viper.BindEnv("log.level", "SOURCECHECK_LOG_LEVEL", "LOG_LEVEL")

	setDefaults(viper.GetViper(), model.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config file %s: %v\n", cfgFile, err)
	}
}

// setDefaults registers every config key so env variables are picked up by Unmarshal
func setDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("recovery.context_file", cfg.Recovery.ContextFile)
	v.SetDefault("recovery.output_file", cfg.Recovery.OutputFile)
	v.SetDefault("recovery.old_context_file", cfg.Recovery.OldContextFile)
	v.SetDefault("recovery.report_file", cfg.Recovery.ReportFile)
	v.SetDefault("recovery.sample_size", cfg.Recovery.SampleSize)
	v.SetDefault("recovery.usage_examples", cfg.Recovery.UsageExamples)

	v.SetDefault("ollama.base_url", cfg.Ollama.BaseURL)
	v.SetDefault("ollama.api", cfg.Ollama.API)
	v.SetDefault("ollama.model", cfg.Ollama.Model)
	v.SetDefault("ollama.prompt", cfg.Ollama.Prompt)
	v.SetDefault("ollama.tags_timeout", cfg.Ollama.TagsTimeout)
	v.SetDefault("ollama.generate_timeout", cfg.Ollama.GenerateTimeout)
	v.SetDefault("ollama.requests_per_second", cfg.Ollama.RequestsPerSecond)
	v.SetDefault("ollama.http_proxy", cfg.Ollama.HTTPProxy)
	v.SetDefault("ollama.https_proxy", cfg.Ollama.HTTPSProxy)
	v.SetDefault("ollama.no_proxy", cfg.Ollama.NoProxy)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// bindFlags binds command flags to config keys; only flags the user set override lower layers
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig resolves flags, env, config file and defaults into a Config
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger; -v forces debug unless --log-level is set
func newLogger(w io.Writer, cfg *model.Config) zerolog.Logger {
	level := cfg.Log.Level
	if verbose && !flagChanged(rootCmd.PersistentFlags(), "log-level") {
		level = "debug"
	}
	return logging.New(w, level, cfg.Log.Format)
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// setup loads config and attaches a logger to the command context
func setup(cmd *cobra.Command, keys map[string]string) (*model.Config, context.Context, *zerolog.Logger, error) {
	keys["log-level"] = "log.level"
	keys["log-format"] = "log.format"
	if err := bindFlags(cmd, keys); err != nil {
		return nil, nil, nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithLogger(ctx, logger)

	return cfg, ctx, logging.FromContext(ctx), nil
}
