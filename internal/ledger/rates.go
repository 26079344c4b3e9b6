// Package ledger implements the subcontractor financial calculations as
// pure functions over snapshots of persisted rows: contract totals, invoice
// derivation and ceilings, payment validation, status derivation, and the
// summary aggregates. Nothing in this package touches storage.
package ledger

// Rates carries the site-wide percentages injected into the calculators.
type Rates struct {
	VATPercent       float64
	RetentionPercent float64
	AdvancePercent   float64
}

func (r Rates) vatDecimal() float64 {
	return r.VATPercent / 100
}

func (r Rates) vatMultiplier() float64 {
	return 1 + r.VATPercent/100
}

func (r Rates) retentionDecimal() float64 {
	return r.RetentionPercent / 100
}

func (r Rates) advanceDecimal() float64 {
	return r.AdvancePercent / 100
}
