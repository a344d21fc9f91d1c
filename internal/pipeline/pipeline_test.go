package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/sourcecheck/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	newContext = `{"ENTITIES_TO_USE":[{"type":"Event","EventId":"E1"},{"type":"File","FileId":"F1","FileLocation":"/a/b.txt","FileName":"b.txt"}]}
{"ENTITIES_TO_USE":[{"type":"User","MailNickName":"jdoe","DisplayName":"J. Doe"}]}
`
	oldContext = `{"ENTITIES_TO_USE":[{"type":"Event","EventId":"E1"}]}
`
	outputLines = `{"utterance":"When is the review?","assertions":[{"text":"Review is on Friday","justification":{"sourceID":"E1"}},{"text":"Owner is jdoe","reasoning":{"sourceId":"jdoe"}}]}
{"utterance":"Where is the doc?","assertions":[{"text":"Doc lives at /a/b.txt","justification":{"sourceID":"/a/b.txt"}},{"text":"Mentioned in chat","justification":{"sourceID":"MISSING"}}]}
not json
`
)

type fixture struct {
	dir string
	cfg *model.Config
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	cfg := model.DefaultConfig()
	cfg.Recovery.ContextFile = filepath.Join(dir, "LOD_1125.jsonl")
	cfg.Recovery.OutputFile = filepath.Join(dir, "11_25_output.jsonl")
	cfg.Recovery.OldContextFile = filepath.Join(dir, "LOD_1121.jsonl")
	cfg.Recovery.ReportFile = filepath.Join(dir, "reports", "sourceid_recovery_report.json")
	return &fixture{dir: dir, cfg: cfg}
}

func readReport(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	return report
}

func TestPipeline_Run_WithOldContext(t *testing.T) {
	f := newFixture(t, map[string]string{
		"LOD_1125.jsonl":     newContext,
		"LOD_1121.jsonl":     oldContext,
		"11_25_output.jsonl": outputLines,
	})

	var out bytes.Buffer
	result, err := NewPipeline(f.cfg, nil).Run(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"E1", "jdoe", "/a/b.txt"}, result.Comparison.New.Partition.Matched)
	assert.Equal(t, []string{"MISSING"}, result.Comparison.New.Partition.Unmatched)
	require.NotNil(t, result.Comparison.Old)
	assert.Equal(t, 2, result.Comparison.Improvement())
	assert.Equal(t, 1, result.References.Errors)

	report := readReport(t, f.cfg.Recovery.ReportFile)
	assert.Equal(t, f.cfg.Recovery.ContextFile, report["context_file"])
	assert.Equal(t, f.cfg.Recovery.OutputFile, report["output_file"])
	assert.Equal(t, float64(4), report["total_source_ids"])
	assert.Equal(t, float64(3), report["matched_count"])
	assert.Equal(t, float64(1), report["unmatched_count"])
	assert.Equal(t, "75.0%", report["match_rate"])
	assert.Equal(t, []any{"E1", "jdoe", "/a/b.txt"}, report["matched_source_ids"])
	assert.Equal(t, []any{"MISSING"}, report["unmatched_source_ids"])
	assert.Equal(t, map[string]any{
		"Event":    float64(1),
		"File":     float64(1),
		"FilePath": float64(1),
		"User":     float64(1),
	}, report["entity_types_in_context"])
	assert.NotContains(t, report, "status")

	comparison, ok := report["comparison"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), comparison["improvement"])
	assert.Equal(t, "25.0%", comparison["old_match_rate"])

	console := out.String()
	assert.Contains(t, console, "SourceID Recovery Check")
	assert.Contains(t, console, "   Found 4 unique entity IDs")
	assert.Contains(t, console, "     - FilePath: 1 IDs")
	assert.Contains(t, console, "   MATCHED: 3 / 4 (75.0%)")
	assert.Contains(t, console, "   UNMATCHED: 1 / 4 (25.0%)")
	assert.Contains(t, console, "NEW file recovers 2 more sourceIDs than OLD file!")
	assert.Contains(t, console, "      Entity Type: File (FileLocation)")
	assert.Contains(t, console, "        - Line 2: Mentioned in chat......")
	assert.Contains(t, console, "⚠️  1 sourceID(s) cannot be found in the context file.")
	assert.Contains(t, console, "Detailed report saved to: "+f.cfg.Recovery.ReportFile)
	assert.Contains(t, console, "   Skipped 1 malformed line(s)")
}

func TestPipeline_Run_WithoutOldContext(t *testing.T) {
	f := newFixture(t, map[string]string{
		"LOD_1125.jsonl":     newContext,
		"11_25_output.jsonl": `{"utterance":"u","assertions":[{"text":"t","justification":{"sourceID":"E1"}}]}`,
	})

	var out bytes.Buffer
	result, err := NewPipeline(f.cfg, nil).Run(context.Background(), &out)
	require.NoError(t, err)

	assert.Nil(t, result.OldContext)
	assert.Nil(t, result.Comparison.Old)
	assert.NotContains(t, out.String(), "OLD context")
	assert.Contains(t, out.String(), "✅ ALL sourceIDs can be recovered from the NEW context file!")
	assert.NotContains(t, readReport(t, f.cfg.Recovery.ReportFile), "comparison")
}

func TestPipeline_Run_EmptyReferences(t *testing.T) {
	f := newFixture(t, map[string]string{
		"LOD_1125.jsonl":     newContext,
		"LOD_1121.jsonl":     oldContext,
		"11_25_output.jsonl": `{"utterance":"u","assertions":[{"text":"no source"}]}` + "\n",
	})

	var out bytes.Buffer
	result, err := NewPipeline(f.cfg, nil).Run(context.Background(), &out)
	require.NoError(t, err)

	assert.Equal(t, 0, result.References.Len())

	report := readReport(t, f.cfg.Recovery.ReportFile)
	assert.Equal(t, float64(0), report["total_source_ids"])
	assert.Equal(t, "n/a", report["match_rate"])
	assert.Equal(t, model.StatusNoSourceIDs, report["status"])
	assert.Equal(t, []any{}, report["matched_source_ids"])

	assert.Contains(t, out.String(), "No sourceIDs to check")
	assert.NotContains(t, out.String(), "NaN")
}

func TestPipeline_Run_MissingInputs(t *testing.T) {
	f := newFixture(t, map[string]string{
		"11_25_output.jsonl": outputLines,
	})

	var out bytes.Buffer
	_, err := NewPipeline(f.cfg, nil).Run(context.Background(), &out)
	require.Error(t, err)
	assert.True(t, IsMissingInput(err))
	assert.Contains(t, err.Error(), "context file")
	assert.Empty(t, out.String())

	_, statErr := os.Stat(f.cfg.Recovery.ReportFile)
	assert.True(t, os.IsNotExist(statErr), "no report is written when an input is missing")

	f = newFixture(t, map[string]string{"LOD_1125.jsonl": newContext})
	_, err = NewPipeline(f.cfg, nil).Run(context.Background(), &out)
	require.Error(t, err)
	assert.True(t, IsMissingInput(err))
	assert.Contains(t, err.Error(), "output file")
}

func TestPipeline_EmptyOldContextIsNotCompared(t *testing.T) {
	f := newFixture(t, map[string]string{
		"LOD_1125.jsonl":     newContext,
		"LOD_1121.jsonl":     "\n",
		"11_25_output.jsonl": outputLines,
	})

	result, err := NewPipeline(f.cfg, nil).Recover(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.OldContext)
	assert.Equal(t, 0, result.OldContext.Len())
	assert.Nil(t, result.Comparison.Old)
}

func TestPipeline_SameOldAndNewContextUsesCache(t *testing.T) {
	f := newFixture(t, map[string]string{
		"LOD_1125.jsonl":     newContext,
		"11_25_output.jsonl": outputLines,
	})
	f.cfg.Recovery.OldContextFile = f.cfg.Recovery.ContextFile

	result, err := NewPipeline(f.cfg, nil).Recover(context.Background())
	require.NoError(t, err)

	assert.Same(t, result.NewContext, result.OldContext)
	assert.Equal(t, 0, result.Comparison.Improvement())

	f.cfg.Cache.Enabled = false
	uncached, err := NewPipeline(f.cfg, nil).Recover(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, uncached.NewContext, uncached.OldContext)
	assert.Equal(t, uncached.NewContext.Keys(), uncached.OldContext.Keys())
}

func TestPipeline_CancelledContext(t *testing.T) {
	f := newFixture(t, map[string]string{
		"LOD_1125.jsonl":     newContext,
		"11_25_output.jsonl": outputLines,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(f.cfg, nil).Recover(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEntitySummary(t *testing.T) {
	idx := model.NewEntityIndex("ctx")
	idx.Group("User", "a")
	idx.Group("Event", "b")
	idx.Group("Event", "c")

	assert.Equal(t, "Event=2,User=1", strings.Join(EntitySummary(idx), ","))
}
