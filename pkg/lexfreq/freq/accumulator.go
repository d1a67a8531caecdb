// Package freq accumulates frequency tables for one run.
//
// An Accumulator is owned by a single goroutine. Concurrent scans build one
// Accumulator per file and Merge them into the run accumulator in file order.
package freq

// Accumulator holds the run's frequency table and, in lemma mode, the
// lemma provenance map.
type Accumulator struct {
	Table      *Table
	Provenance *Provenance
}

// NewAccumulator creates an accumulator. Provenance is tracked only when
// withProvenance is set.
func NewAccumulator(withProvenance bool) *Accumulator {
	a := &Accumulator{Table: NewTable()}
	if withProvenance {
		a.Provenance = NewProvenance()
	}
	return a
}

// Record counts one occurrence of key.
func (a *Accumulator) Record(key string) {
	a.Table.Record(key)
}

// RecordWithProvenance counts key and unions surface into its provenance set.
func (a *Accumulator) RecordWithProvenance(key, surface string) {
	a.Table.Record(key)
	if a.Provenance == nil {
		a.Provenance = NewProvenance()
	}
	a.Provenance.Add(key, surface)
}

// RecordLemma applies the lemma fallback rule: a token without a lemma is
// recorded under its own surface form.
func (a *Accumulator) RecordLemma(surface, lemma string, hasLemma bool) {
	if !hasLemma || lemma == "" {
		a.RecordWithProvenance(surface, surface)
		return
	}
	a.RecordWithProvenance(lemma, surface)
}

// Merge folds other into a.
func (a *Accumulator) Merge(other *Accumulator) {
	a.Table.Merge(other.Table)
	if other.Provenance != nil {
		if a.Provenance == nil {
			a.Provenance = NewProvenance()
		}
		a.Provenance.Merge(other.Provenance)
	}
}
