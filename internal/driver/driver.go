// Package driver owns the page traversal loop: it walks the paginated
// market table through the harvester boundary, normalizes each page's rows
// into the accumulator, and re-renders the artifact after every page so the
// last successful page is always on disk.
package driver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"coingecko_export/internal/market"
	"coingecko_export/internal/table"
)

// State is the traversal state. FETCHING, EXTRACTING and ADVANCING are
// transient; the DONE states are terminal.
type State int

const (
	StateFetching State = iota
	StateExtracting
	StateAdvancing
	StateDoneSuccess
	StateDoneStalled
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateAdvancing:
		return "advancing"
	case StateDoneSuccess:
		return "done"
	case StateDoneStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// Harvester is the page-traversal boundary. Fetch navigates the current
// address and waits for row markers (relaxed loosens the readiness
// condition); ExtendWait gives dynamic content extra settle time before a
// re-harvest; Advance moves to the next page and returns its address.
type Harvester interface {
	Fetch(ctx context.Context, relaxed bool) error
	ExtendWait(ctx context.Context) error
	ExtractRows(ctx context.Context) ([]market.RawCandidate, error)
	HasNextPage(ctx context.Context) (bool, error)
	Advance(ctx context.Context) (string, error)
}

// Builder renders a snapshot of the table to the destination path.
type Builder interface {
	Render(rows []market.Row, dest string) error
}

// Outcome summarizes a finished traversal.
type Outcome struct {
	State State
	Pages int
	Rows  int
}

// Stalled reports whether the traversal ended because extraction or
// navigation gave out rather than because the pages ran out.
func (o Outcome) Stalled() bool {
	return o.State == StateDoneStalled
}

// Driver runs the traversal. Single-threaded: each step completes before
// the next begins, and no two renders ever overlap.
type Driver struct {
	harvester Harvester
	acc       *table.Accumulator
	builder   Builder
	dest      string

	// maxPages is a defensive cap on the loop; 0 means unlimited, which
	// leaves termination entirely to the harvester's signals.
	maxPages int
}

func New(h Harvester, acc *table.Accumulator, b Builder, dest string, maxPages int) *Driver {
	return &Driver{
		harvester: h,
		acc:       acc,
		builder:   b,
		dest:      dest,
		maxPages:  maxPages,
	}
}

// Run walks pages until the harvester reports no further page or the
// traversal stalls. Transient page faults are absorbed here per the error
// taxonomy; only render failures and context cancellation propagate. The
// returned outcome is valid even when err is non-nil insofar as the
// accumulator and artifact reflect every fully-processed page.
func (d *Driver) Run(ctx context.Context) (Outcome, error) {
	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return d.outcome(StateDoneStalled, page), err
		}

		log.Info().Int("page", page).Msg("Fetching page")
		if !d.fetchWithFallback(ctx, page) {
			return d.outcome(StateDoneStalled, page), nil
		}

		rows, done, err := d.extract(ctx, page)
		if err != nil {
			return d.outcome(StateDoneStalled, page), err
		}
		if done != nil {
			return *done, nil
		}

		d.acc.Append(rows)
		log.Info().
			Int("page", page).
			Int("rows", len(rows)).
			Int("total", d.acc.Len()).
			Msg("Collected rows")

		if err := d.builder.Render(d.acc.Snapshot(), d.dest); err != nil {
			return d.outcome(StateDoneStalled, page), fmt.Errorf("failed to persist table after page %d: %w", page, err)
		}
		log.Debug().Str("file", d.dest).Int("rows", d.acc.Len()).Msg("Artifact updated")

		next, err := d.advance(ctx, page)
		if err != nil {
			return d.outcome(StateDoneStalled, page), err
		}
		if !next {
			return d.outcome(StateDoneSuccess, page), nil
		}
		page++
	}
}

// fetchWithFallback navigates with one relaxed-mode retry. Returns false
// when both attempts fail, which stalls the traversal without erroring.
func (d *Driver) fetchWithFallback(ctx context.Context, page int) bool {
	err := d.harvester.Fetch(ctx, false)
	if err == nil {
		return true
	}
	log.Warn().Err(err).Int("page", page).Msg("Navigation failed, retrying with relaxed readiness")

	if err := d.harvester.Fetch(ctx, true); err != nil {
		log.Error().Err(err).Int("page", page).Msg("Navigation failed after relaxed retry, stopping")
		return false
	}
	return true
}

// extract harvests the current page, normalizes and filters candidates, and
// applies the page-1 extended-wait retry. A non-nil done outcome means the
// traversal terminated during extraction.
func (d *Driver) extract(ctx context.Context, page int) ([]market.Row, *Outcome, error) {
	rows, err := d.harvestNormalized(ctx)
	if err != nil {
		return nil, nil, err
	}

	if len(rows) == 0 && page == 1 {
		log.Warn().Msg("No rows on first page, retrying after extended wait")
		if err := d.harvester.ExtendWait(ctx); err != nil {
			log.Warn().Err(err).Msg("Extended wait failed")
		}
		rows, err = d.harvestNormalized(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(rows) == 0 {
		// Mid-run, a page with no rows and no next affordance is the
		// natural end of the table, not a stall.
		if page > 1 && d.acc.Len() > 0 {
			hasNext, err := d.harvester.HasNextPage(ctx)
			if err == nil && !hasNext {
				log.Info().Int("page", page).Msg("Empty final page, traversal complete")
				out := d.outcome(StateDoneSuccess, page)
				return nil, &out, nil
			}
		}
		log.Error().Int("page", page).Msg("No rows extracted, stopping")
		out := d.outcome(StateDoneStalled, page)
		return nil, &out, nil
	}
	return rows, nil, nil
}

func (d *Driver) harvestNormalized(ctx context.Context) ([]market.Row, error) {
	candidates, err := d.harvester.ExtractRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("row extraction failed: %w", err)
	}

	rows := make([]market.Row, 0, len(candidates))
	rejected := 0
	for _, c := range candidates {
		row, ok := market.Normalize(c)
		if !ok {
			rejected++
			continue
		}
		rows = append(rows, row)
	}
	if rejected > 0 {
		log.Debug().Int("rejected", rejected).Msg("Dropped candidates with empty names")
	}
	return rows, nil
}

// advance reports whether a further page was reached.
func (d *Driver) advance(ctx context.Context, page int) (bool, error) {
	if d.maxPages > 0 && page >= d.maxPages {
		log.Warn().Int("max_pages", d.maxPages).Msg("Page cap reached, stopping traversal")
		return false, nil
	}

	hasNext, err := d.harvester.HasNextPage(ctx)
	if err != nil {
		return false, fmt.Errorf("next-page probe failed: %w", err)
	}
	if !hasNext {
		log.Info().Int("pages", page).Msg("No next page, traversal complete")
		return false, nil
	}

	address, err := d.harvester.Advance(ctx)
	if err != nil {
		// An affordance that will not click is treated the same as no
		// affordance: the pages are done as far as we can tell.
		log.Warn().Err(err).Int("page", page).Msg("Could not navigate to next page, treating as end")
		return false, nil
	}
	log.Debug().Str("address", address).Int("page", page+1).Msg("Advanced to next page")
	return true, nil
}

func (d *Driver) outcome(state State, page int) Outcome {
	return Outcome{State: state, Pages: page, Rows: d.acc.Len()}
}
