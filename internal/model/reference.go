package model

// Usage records one assertion that cited a source identifier
type Usage struct {
	Line           int    `json:"line"`
	Utterance      string `json:"utterance"`      // Truncated to 50 runes plus "..."
	AssertionIndex int    `json:"assertion_idx"`  // Position in the line's assertions list
	AssertionText  string `json:"assertion_text"` // Truncated to 60 runes plus "..."
}

// AuditRecord is the flattened form of a usage, kept for auditing
type AuditRecord struct {
	Line          int    `json:"line"`
	SourceID      string `json:"source_id"`
	Utterance     string `json:"utterance"`
	AssertionText string `json:"assertion_text"` // Truncated to 80 runes
}

// ReferenceIndex maps source identifiers to every usage citing them.
// Keys are never empty and iterate in first-encountered order.
type ReferenceIndex struct {
	Path   string
	Errors int           // Malformed lines skipped
	Audit  []AuditRecord // One record per usage, in file order

	order  []string
	usages map[string][]Usage
}

// NewReferenceIndex creates an empty reference index
func NewReferenceIndex(path string) *ReferenceIndex {
	return &ReferenceIndex{
		Path:   path,
		usages: make(map[string][]Usage),
	}
}

// Add appends a usage under id; empty ids are ignored
func (x *ReferenceIndex) Add(id string, u Usage) {
	if id == "" {
		return
	}
	if _, ok := x.usages[id]; !ok {
		x.order = append(x.order, id)
	}
	x.usages[id] = append(x.usages[id], u)
}

// Usages returns the usages recorded for id
func (x *ReferenceIndex) Usages(id string) []Usage {
	return x.usages[id]
}

// Has reports whether id was referenced
func (x *ReferenceIndex) Has(id string) bool {
	_, ok := x.usages[id]
	return ok
}

// Len returns the number of unique source identifiers
func (x *ReferenceIndex) Len() int {
	return len(x.order)
}

// Keys returns identifiers in first-encountered order
func (x *ReferenceIndex) Keys() []string {
	return append([]string(nil), x.order...)
}
