package model

// StatusNoSourceIDs marks a report built from an empty reference index
const StatusNoSourceIDs = "no_source_ids"

// RecoveryReport is the machine-readable result of a recovery run.
// The field set mirrors the report consumed by existing tooling.
type RecoveryReport struct {
	ContextFile          string         `json:"context_file"`
	OutputFile           string         `json:"output_file"`
	TotalSourceIDs       int            `json:"total_source_ids"`
	MatchedCount         int            `json:"matched_count"`
	UnmatchedCount       int            `json:"unmatched_count"`
	MatchRate            string         `json:"match_rate"` // e.g. "50.0%", or "n/a" when nothing was checked
	MatchedSourceIDs     []string       `json:"matched_source_ids"`
	UnmatchedSourceIDs   []string       `json:"unmatched_source_ids"`
	EntityTypesInContext map[string]int `json:"entity_types_in_context"`

	Status     string      `json:"status,omitempty"`
	Comparison *Comparison `json:"comparison,omitempty"` // Present when an old context was checked
}

// Comparison summarises recovery against the previous context snapshot
type Comparison struct {
	OldContextFile    string `json:"old_context_file"`
	OldMatchedCount   int    `json:"old_matched_count"`
	OldUnmatchedCount int    `json:"old_unmatched_count"`
	OldMatchRate      string `json:"old_match_rate"`
	Improvement       int    `json:"improvement"` // new matched - old matched
}
