// Package reconcile cross-references cited source identifiers against
// the identifiers extracted from a context snapshot.
package reconcile

import (
	"fmt"

	"github.com/ppiankov/sourcecheck/internal/model"
)

// Membership is satisfied by any identifier index that can answer lookups
type Membership interface {
	Has(id string) bool
}

// Partition splits referenced identifiers into matched and unmatched.
// Both lists follow the reference index order and never overlap.
type Partition struct {
	Matched   []string
	Unmatched []string
}

// Total returns the number of identifiers partitioned
func (p Partition) Total() int {
	return len(p.Matched) + len(p.Unmatched)
}

// Split partitions every key of refs by membership in entities
func Split(refs *model.ReferenceIndex, entities Membership) Partition {
	part := Partition{
		Matched:   []string{},
		Unmatched: []string{},
	}
	for _, id := range refs.Keys() {
		if entities != nil && entities.Has(id) {
			part.Matched = append(part.Matched, id)
		} else {
			part.Unmatched = append(part.Unmatched, id)
		}
	}
	return part
}

// Rate is a percentage that is undefined when nothing was checked
type Rate struct {
	Count   int
	Total   int
	Percent float64
	Defined bool
}

// NewRate computes count/total as a percentage without dividing by zero
func NewRate(count, total int) Rate {
	r := Rate{Count: count, Total: total}
	if total > 0 {
		r.Percent = 100 * float64(count) / float64(total)
		r.Defined = true
	}
	return r
}

// String formats the rate with one decimal, or "n/a" when undefined
func (r Rate) String() string {
	if !r.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", r.Percent)
}

// Outcome is the result of checking references against one context
type Outcome struct {
	ContextFile string
	Partition   Partition
	Matched     Rate
	Unmatched   Rate
}

// Check partitions refs against entities and computes both rates
func Check(refs *model.ReferenceIndex, entities *model.EntityIndex) Outcome {
	var members Membership
	if entities != nil {
		members = entities
	}
	part := Split(refs, members)
	total := refs.Len()

	outcome := Outcome{
		Partition: part,
		Matched:   NewRate(len(part.Matched), total),
		Unmatched: NewRate(len(part.Unmatched), total),
	}
	if entities != nil {
		outcome.ContextFile = entities.Path
	}
	return outcome
}

// Comparison holds the A/B result against a new and an old context
type Comparison struct {
	New Outcome
	Old *Outcome // nil when no old context was supplied
}

// Improvement is new matched minus old matched; positive favours the new context
func (c Comparison) Improvement() int {
	if c.Old == nil {
		return 0
	}
	return len(c.New.Partition.Matched) - len(c.Old.Partition.Matched)
}

// Compare checks refs against newIdx and, when non-nil, oldIdx
func Compare(refs *model.ReferenceIndex, newIdx, oldIdx *model.EntityIndex) Comparison {
	cmp := Comparison{New: Check(refs, newIdx)}
	if oldIdx != nil {
		old := Check(refs, oldIdx)
		cmp.Old = &old
	}
	return cmp
}
