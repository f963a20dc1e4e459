// Package table owns the ordered in-memory result set of a scrape run.
package table

import "coingecko_export/internal/market"

// Accumulator collects normalized rows across pages. It only ever grows;
// insertion order is page order, which is the visual rank order on the
// site. There is no dedup and no key. Durability lives in the rendered
// artifact, not here.
type Accumulator struct {
	rows []market.Row
}

func New() *Accumulator {
	return &Accumulator{}
}

// Append extends the table with one page's rows, preserving arrival order.
func (a *Accumulator) Append(rows []market.Row) {
	a.rows = append(a.rows, rows...)
}

// Snapshot returns a copy of the accumulated rows. Mutating the returned
// slice has no effect on the accumulator.
func (a *Accumulator) Snapshot() []market.Row {
	out := make([]market.Row, len(a.rows))
	copy(out, a.rows)
	return out
}

// Len reports how many rows have been accumulated so far.
func (a *Accumulator) Len() int {
	return len(a.rows)
}
