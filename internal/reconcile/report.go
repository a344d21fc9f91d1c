package reconcile

import (
	"github.com/ppiankov/sourcecheck/internal/model"
)

// BuildReport assembles the machine-readable recovery report
func BuildReport(refs *model.ReferenceIndex, newIdx *model.EntityIndex, cmp Comparison) *model.RecoveryReport {
	report := &model.RecoveryReport{
		ContextFile:          newIdx.Path,
		OutputFile:           refs.Path,
		TotalSourceIDs:       refs.Len(),
		MatchedCount:         len(cmp.New.Partition.Matched),
		UnmatchedCount:       len(cmp.New.Partition.Unmatched),
		MatchRate:            cmp.New.Matched.String(),
		MatchedSourceIDs:     cmp.New.Partition.Matched,
		UnmatchedSourceIDs:   cmp.New.Partition.Unmatched,
		EntityTypesInContext: newIdx.TypeCounts(),
	}

	if refs.Len() == 0 {
		report.Status = model.StatusNoSourceIDs
	}

	if cmp.Old != nil {
		report.Comparison = &model.Comparison{
			OldContextFile:    cmp.Old.ContextFile,
			OldMatchedCount:   len(cmp.Old.Partition.Matched),
			OldUnmatchedCount: len(cmp.Old.Partition.Unmatched),
			OldMatchRate:      cmp.Old.Matched.String(),
			Improvement:       cmp.Improvement(),
		}
	}

	return report
}
