package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/sourcecheck/internal/model"
	"github.com/ppiankov/sourcecheck/internal/reconcile"
)

const consoleTextLen = 50

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 60)
)

// Renderer prints the human-readable recovery report
type Renderer struct {
	sampleSize    int
	usageExamples int
}

// NewRenderer creates a new renderer
func NewRenderer(sampleSize, usageExamples int) *Renderer {
	if sampleSize < 0 {
		sampleSize = 0
	}
	if usageExamples < 0 {
		usageExamples = 0
	}
	return &Renderer{sampleSize: sampleSize, usageExamples: usageExamples}
}

// Render writes the console report for result to w
func (r *Renderer) Render(w io.Writer, result *RecoveryResult) error {
	p := &printer{w: w}

	newIdx := result.NewContext
	refs := result.References
	cmp := result.Comparison
	newName := filepath.Base(newIdx.Path)

	p.printf("%s\n", heavyRule)
	p.printf("SourceID Recovery Check\n")
	p.printf("%s\n", heavyRule)

	p.printf("\n1. Extracting entity IDs from NEW context file: %s\n", newIdx.Path)
	p.printf("   Found %d unique entity IDs\n", newIdx.Len())
	p.printf("   Entity types breakdown:\n")
	types := newIdx.Types()
	sort.Strings(types)
	for _, t := range types {
		p.printf("     - %s: %d IDs\n", t, newIdx.TypeIDs(t).Len())
	}
	r.skipped(p, newIdx.Errors)

	if result.OldContext != nil {
		p.printf("\n2. Extracting entity IDs from OLD context file: %s\n", result.OldContext.Path)
		p.printf("   Found %d unique entity IDs\n", result.OldContext.Len())
		r.skipped(p, result.OldContext.Errors)
	}

	p.printf("\n3. Extracting sourceIDs from output file: %s\n", refs.Path)
	p.printf("   Found %d unique sourceIDs referenced in assertions\n", refs.Len())
	p.printf("   Total assertions with sourceID: %d\n", len(refs.Audit))
	r.skipped(p, refs.Errors)

	p.printf("\n4. Checking sourceID recovery with NEW context file (%s)\n", newName)
	p.printf("%s\n", lightRule)
	r.outcome(p, cmp.New)

	if cmp.Old != nil {
		p.printf("\n5. Checking sourceID recovery with OLD context file (%s)\n", filepath.Base(cmp.Old.ContextFile))
		p.printf("%s\n", lightRule)
		r.outcome(p, *cmp.Old)

		p.printf("\n6. Improvement Analysis\n")
		p.printf("%s\n", lightRule)
		switch improvement := cmp.Improvement(); {
		case improvement > 0:
			p.printf("   NEW file recovers %d more sourceIDs than OLD file!\n", improvement)
		case improvement < 0:
			p.printf("   OLD file recovers %d more sourceIDs than NEW file.\n", -improvement)
		default:
			p.printf("   Both files recover the same number of sourceIDs.\n")
		}
	}

	matched := cmp.New.Partition.Matched
	p.printf("\n7. Sample of MATCHED sourceIDs (showing first %d)\n", r.sampleSize)
	p.printf("%s\n", lightRule)
	for i, id := range matched {
		if i >= r.sampleSize {
			break
		}
		info, _ := newIdx.Get(id)
		p.printf("   %d. %s\n", i+1, id)
		p.printf("      Entity Type: %s (%s)\n", info.Type, info.IDField)
		p.printf("      Used in %d assertion(s)\n", len(refs.Usages(id)))
	}

	unmatched := cmp.New.Partition.Unmatched
	if len(unmatched) > 0 {
		p.printf("\n8. UNMATCHED sourceIDs (missing from context)\n")
		p.printf("%s\n", lightRule)
		for i, id := range unmatched {
			usages := refs.Usages(id)
			p.printf("   %d. %s\n", i+1, id)
			p.printf("      Used in %d assertion(s)\n", len(usages))
			for j, usage := range usages {
				if j >= r.usageExamples {
					break
				}
				p.printf("        - Line %d: %s...\n", usage.Line, truncateRunes(usage.AssertionText, consoleTextLen))
			}
		}
	}

	p.printf("\n%s\n", heavyRule)
	p.printf("SUMMARY\n")
	p.printf("%s\n", heavyRule)
	p.printf("Total unique sourceIDs in assertions: %d\n", refs.Len())

	if refs.Len() == 0 {
		p.printf("No sourceIDs to check (match rate undefined).\n")
		return p.err
	}

	p.printf("Matched with %s: %d (%s)\n", newName, len(matched), cmp.New.Matched)
	p.printf("Unmatched: %d (%s)\n", len(unmatched), cmp.New.Unmatched)

	if len(matched) == refs.Len() {
		p.printf("\n✅ ALL sourceIDs can be recovered from the NEW context file!\n")
	} else {
		p.printf("\n⚠️  %d sourceID(s) cannot be found in the context file.\n", len(unmatched))
	}

	return p.err
}

// outcome prints the matched/unmatched lines for one context
func (r *Renderer) outcome(p *printer, o reconcile.Outcome) {
	if o.Matched.Total == 0 {
		p.printf("   No sourceIDs to check\n")
		return
	}
	p.printf("   MATCHED: %d / %d (%s)\n", o.Matched.Count, o.Matched.Total, o.Matched)
	p.printf("   UNMATCHED: %d / %d (%s)\n", o.Unmatched.Count, o.Unmatched.Total, o.Unmatched)
}

func (r *Renderer) skipped(p *printer, errors int) {
	if errors > 0 {
		p.printf("   Skipped %d malformed line(s)\n", errors)
	}
}

// printer remembers the first write error so rendering code stays linear
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, a ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, a...)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// EntitySummary lists type counts in name order, for compact displays
func EntitySummary(idx *model.EntityIndex) []string {
	types := idx.Types()
	sort.Strings(types)
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, fmt.Sprintf("%s=%d", t, idx.TypeIDs(t).Len()))
	}
	return out
}
