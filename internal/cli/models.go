package cli

import (
	"fmt"
	"time"

	"github.com/ppiankov/sourcecheck/internal/llm"
	"github.com/spf13/cobra"
)

var (
	modelsHost    string
	modelsAPI     string
	modelsTimeout time.Duration
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models served by an inference server",
	Long: `Models queries the server's model listing endpoint and prints one
line per model. Failures are reported, not raised.

Example:
  sourcecheck models
  sourcecheck models --host http://192.168.2.204:11434
  sourcecheck models --api openai --host http://localhost:8080`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVar(&modelsHost, "host", "", "server base URL (default http://localhost:11434)")
	modelsCmd.Flags().StringVar(&modelsAPI, "api", "", "API flavour (ollama, openai)")
	modelsCmd.Flags().DurationVar(&modelsTimeout, "timeout", 0, "request timeout")
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, ctx, logger, err := setup(cmd, map[string]string{
		"host":    "ollama.base_url",
		"api":     "ollama.api",
		"timeout": "ollama.tags_timeout",
	})
	if err != nil {
		return err
	}

	lister, err := llm.NewModelLister(llm.ConfigFromModel(cfg.Ollama))
	if err != nil {
		return err
	}

	logger.Debug().Str("api", lister.Name()).Str("host", cfg.Ollama.BaseURL).Msg("Listing models")

	out := cmd.OutOrStdout()
	models, err := lister.ListModels(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("kind", string(llm.Classify(err))).Msg("Model listing failed")
		if status, body, ok := llm.StatusOf(err); ok {
			fmt.Fprintf(out, "Error: Status %d\n", status)
			fmt.Fprintln(out, body)
			return nil
		}
		fmt.Fprintf(out, "Connection error: %v\n", err)
		return nil
	}

	fmt.Fprintln(out, "Available models:")
	for _, m := range models {
		fmt.Fprintf(out, "- %s\n", m.Name)
	}
	return nil
}
