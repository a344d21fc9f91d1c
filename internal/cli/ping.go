package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/sourcecheck/internal/llm"
	"github.com/spf13/cobra"
)

var (
	pingHost            string
	pingModel           string
	pingPrompt          string
	pingTagsTimeout     time.Duration
	pingGenerateTimeout time.Duration
)

// pingCmd represents the ping command
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Smoke test connectivity and generation against an Ollama server",
	Long: `Ping runs two checks against a native Ollama server:

1. GET /api/tags to confirm the server answers and list its models
2. POST /api/generate with a short prompt to confirm the model loads

Generation is skipped when the first check fails. Failures are reported, not raised.

Example:
  sourcecheck ping
  sourcecheck ping --host http://192.168.2.163:11434 --model gpt-oss:20b`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)

	pingCmd.Flags().StringVar(&pingHost, "host", "", "server base URL (default http://localhost:11434)")
	pingCmd.Flags().StringVar(&pingModel, "model", "", "model used for the generation check")
	pingCmd.Flags().StringVar(&pingPrompt, "prompt", "", "prompt used for the generation check")
	pingCmd.Flags().DurationVar(&pingTagsTimeout, "tags-timeout", 0, "connectivity check timeout")
	pingCmd.Flags().DurationVar(&pingGenerateTimeout, "generate-timeout", 0, "generation timeout (covers model loading)")
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, ctx, logger, err := setup(cmd, map[string]string{
		"host":             "ollama.base_url",
		"model":            "ollama.model",
		"prompt":           "ollama.prompt",
		"tags-timeout":     "ollama.tags_timeout",
		"generate-timeout": "ollama.generate_timeout",
	})
	if err != nil {
		return err
	}

	// The probe always speaks the native API
	clientCfg := llm.ConfigFromModel(cfg.Ollama)
	clientCfg.API = "ollama"
	client, err := llm.NewOllamaClient(clientCfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	base := client.BaseURL()

	// 1. Connectivity
	fmt.Fprintf(out, "1. Testing basic connectivity to %s/api/tags...\n", base)
	models, err := client.ListModels(ctx)
	if err != nil {
		logger.Debug().Err(err).Str("kind", string(llm.Classify(err))).Msg("Connectivity check failed")
		if status, _, ok := llm.StatusOf(err); ok {
			fmt.Fprintf(out, "❌ Basic connectivity failed with status: %d\n", status)
		} else {
			fmt.Fprintf(out, "❌ Basic connectivity failed: %v\n", err)
		}
		return nil
	}
	fmt.Fprintln(out, "✅ Basic connectivity successful!")
	fmt.Fprintf(out, "Available models: %s\n", modelNames(models))

	// 2. Generation
	url := base + "/api/generate"
	fmt.Fprintf(out, "\n2. Testing generation with model '%s'...\n", cfg.Ollama.Model)

	start := time.Now()
	resp, err := client.Generate(ctx, llm.GenerateRequest{
		Model:  cfg.Ollama.Model,
		Prompt: cfg.Ollama.Prompt,
	})
	if err != nil {
		logger.Debug().Err(err).Str("kind", string(llm.Classify(err))).Msg("Generation check failed")
		reportGenerateError(out, url, err)
		return nil
	}

	logger.Debug().
		Dur("elapsed", time.Since(start)).
		Dur("server_duration", resp.Duration).
		Int("tokens", resp.TokensUsed).
		Msg("Generation complete")

	fmt.Fprintln(out, "✅ Generation successful!")
	fmt.Fprintf(out, "Response: %s\n", strings.TrimSpace(resp.Response))
	return nil
}

func reportGenerateError(out io.Writer, url string, err error) {
	switch llm.Classify(err) {
	case llm.KindStatus:
		status, body, _ := llm.StatusOf(err)
		fmt.Fprintf(out, "❌ Generation failed with status code: %d\n", status)
		fmt.Fprintf(out, "Response: %s\n", body)
	case llm.KindConnection:
		fmt.Fprintf(out, "❌ Connection error: Could not connect to %s\n", url)
	case llm.KindTimeout:
		fmt.Fprintf(out, "❌ Timeout error: The request to %s timed out.\n", url)
	default:
		fmt.Fprintf(out, "❌ An error occurred: %v\n", err)
	}
}

// modelNames renders names as a bracketed, comma-separated list
func modelNames(models []llm.Model) string {
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, "'"+m.Name+"'")
	}
	return "[" + strings.Join(names, ", ") + "]"
}
