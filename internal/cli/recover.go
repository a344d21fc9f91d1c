package cli

import (
	"fmt"
	"strings"

	"github.com/ppiankov/sourcecheck/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	recoverContext    string
	recoverOutput     string
	recoverOldContext string
	recoverReport     string
	recoverSample     int
	recoverExamples   int
	recoverNoCache    bool
)

// recoverCmd represents the recover command
var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Check that cited sourceIDs can be recovered from a context file",
	Long: `Recover cross-references the sourceIDs cited by assertions in an
output file against the entity identifiers present in a context file:

- Extract entity IDs per entity type from the NEW context file
- Optionally extract the OLD context file for comparison
- Report matched and unmatched sourceIDs with example usages
- Save a detailed JSON report

Example:
  sourcecheck recover
  sourcecheck recover --context docs/LOD_1125.jsonl --output docs/11_25_output.jsonl
  sourcecheck recover --old-context "" --report /tmp/report.json`,
	Args: cobra.NoArgs,
	RunE: runRecover,
}

func init() {
	rootCmd.AddCommand(recoverCmd)

	recoverCmd.Flags().StringVar(&recoverContext, "context", "", "NEW context file (JSONL)")
	recoverCmd.Flags().StringVar(&recoverOutput, "output", "", "assertion output file (JSONL)")
	recoverCmd.Flags().StringVar(&recoverOldContext, "old-context", "", "OLD context file for comparison (empty to skip)")
	recoverCmd.Flags().StringVar(&recoverReport, "report", "", "JSON report path")
	recoverCmd.Flags().IntVar(&recoverSample, "sample", 0, "number of matched sourceIDs to show")
	recoverCmd.Flags().IntVar(&recoverExamples, "examples", 0, "usage examples per unmatched sourceID")
	recoverCmd.Flags().BoolVar(&recoverNoCache, "no-cache", false, "disable the extraction cache")
}

func runRecover(cmd *cobra.Command, args []string) error {
	cfg, ctx, logger, err := setup(cmd, map[string]string{
		"context":     "recovery.context_file",
		"output":      "recovery.output_file",
		"old-context": "recovery.old_context_file",
		"report":      "recovery.report_file",
		"sample":      "recovery.sample_size",
		"examples":    "recovery.usage_examples",
	})
	if err != nil {
		return err
	}
	if recoverNoCache {
		cfg.Cache.Enabled = false
	}

	logger.Debug().
		Str("context", cfg.Recovery.ContextFile).
		Str("output", cfg.Recovery.OutputFile).
		Str("old_context", cfg.Recovery.OldContextFile).
		Bool("cache", cfg.Cache.Enabled).
		Msg("Starting recovery check")

	result, err := pipeline.NewPipeline(cfg, logger).Run(ctx, cmd.OutOrStdout())
	if err != nil {
		if pipeline.IsMissingInput(err) {
			return fmt.Errorf("%w (check --context/--output or the recovery section of the config)", err)
		}
		return fmt.Errorf("recovery failed: %w", err)
	}

	logger.Debug().
		Str("types", strings.Join(pipeline.EntitySummary(result.NewContext), ",")).
		Int("matched", len(result.Comparison.New.Partition.Matched)).
		Int("unmatched", len(result.Comparison.New.Partition.Unmatched)).
		Msg("Recovery check complete")

	return nil
}
