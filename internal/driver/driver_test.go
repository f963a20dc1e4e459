package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"coingecko_export/internal/market"
	"coingecko_export/internal/table"
)

// fakePage scripts one page of the fake harvester.
type fakePage struct {
	candidates      []market.RawCandidate
	retryCandidates []market.RawCandidate // served after ExtendWait
	fetchErrs       int                   // how many Fetch calls fail first
	hasNext         bool
	advanceErr      error
}

type fakeHarvester struct {
	pages []fakePage
	pos   int

	fetchCalls      int
	relaxedFetches  int
	extendWaitCalls int
	waited          bool
}

func (f *fakeHarvester) page() *fakePage { return &f.pages[f.pos] }

func (f *fakeHarvester) Fetch(ctx context.Context, relaxed bool) error {
	f.fetchCalls++
	if relaxed {
		f.relaxedFetches++
	}
	if f.page().fetchErrs > 0 {
		f.page().fetchErrs--
		return errors.New("navigation timeout")
	}
	return nil
}

func (f *fakeHarvester) ExtendWait(ctx context.Context) error {
	f.extendWaitCalls++
	f.waited = true
	return nil
}

func (f *fakeHarvester) ExtractRows(ctx context.Context) ([]market.RawCandidate, error) {
	if f.waited && f.page().retryCandidates != nil {
		return f.page().retryCandidates, nil
	}
	return f.page().candidates, nil
}

func (f *fakeHarvester) HasNextPage(ctx context.Context) (bool, error) {
	return f.page().hasNext, nil
}

func (f *fakeHarvester) Advance(ctx context.Context) (string, error) {
	if err := f.page().advanceErr; err != nil {
		return "", err
	}
	f.pos++
	f.waited = false
	return fmt.Sprintf("https://example.test/coins?page=%d", f.pos+1), nil
}

// renderSpy records every progressive persistence call.
type renderSpy struct {
	rowCounts []int
	err       error
}

func (r *renderSpy) Render(rows []market.Row, dest string) error {
	if r.err != nil {
		return r.err
	}
	r.rowCounts = append(r.rowCounts, len(rows))
	return nil
}

func candidates(n int, prefix string) []market.RawCandidate {
	out := make([]market.RawCandidate, n)
	for i := range out {
		out[i] = market.RawCandidate{
			Name:   fmt.Sprintf("%s %d", prefix, i+1),
			Fields: &market.FieldGuesses{Price: "$1.00"},
			Link:   fmt.Sprintf("https://x/coins/%s-%d", prefix, i+1),
		}
	}
	return out
}

func run(t *testing.T, h *fakeHarvester, maxPages int) (Outcome, *table.Accumulator, *renderSpy) {
	t.Helper()
	acc := table.New()
	spy := &renderSpy{}
	out, err := New(h, acc, spy, "out.xlsx", maxPages).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return out, acc, spy
}

func TestRunCollectsAllPages(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: candidates(100, "alpha"), hasNext: true},
		{candidates: candidates(100, "beta"), hasNext: false},
	}}

	out, acc, spy := run(t, h, 0)

	if out.State != StateDoneSuccess {
		t.Errorf("expected success, got %v", out.State)
	}
	if acc.Len() != 200 {
		t.Errorf("expected 200 rows, got %d", acc.Len())
	}
	if out.Rows != 200 || out.Pages != 2 {
		t.Errorf("unexpected outcome: %+v", out)
	}

	// Progressive persistence: one render per page, strictly growing.
	want := []int{100, 200}
	if len(spy.rowCounts) != len(want) {
		t.Fatalf("expected %d renders, got %d", len(want), len(spy.rowCounts))
	}
	for i, n := range want {
		if spy.rowCounts[i] != n {
			t.Errorf("render %d: expected %d rows, got %d", i, n, spy.rowCounts[i])
		}
	}

	// Page-then-rank order preserved.
	snap := acc.Snapshot()
	if snap[0].Name != "alpha 1" || snap[99].Name != "alpha 100" || snap[100].Name != "beta 1" {
		t.Error("rows not in page-then-rank order")
	}
}

func TestRunEmptyFinalPageIsSuccess(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: candidates(100, "alpha"), hasNext: true},
		{candidates: candidates(100, "beta"), hasNext: true},
		{candidates: nil, hasNext: false},
	}}

	out, acc, _ := run(t, h, 0)

	if out.State != StateDoneSuccess {
		t.Errorf("expected success on empty final page, got %v", out.State)
	}
	if acc.Len() != 200 {
		t.Errorf("expected 200 rows, got %d", acc.Len())
	}
}

func TestRunEmptyMidPageWithNextIsStalled(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: candidates(10, "alpha"), hasNext: true},
		{candidates: nil, hasNext: true},
	}}

	out, acc, _ := run(t, h, 0)

	if out.State != StateDoneStalled {
		t.Errorf("expected stalled, got %v", out.State)
	}
	if acc.Len() != 10 {
		t.Errorf("partial rows must be preserved, got %d", acc.Len())
	}
}

func TestRunFirstPageStalledAfterRetry(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: nil, hasNext: true},
	}}

	out, acc, spy := run(t, h, 0)

	if out.State != StateDoneStalled {
		t.Errorf("expected stalled, got %v", out.State)
	}
	if acc.Len() != 0 {
		t.Errorf("expected empty table, got %d rows", acc.Len())
	}
	if h.extendWaitCalls != 1 {
		t.Errorf("expected exactly one extended-wait retry, got %d", h.extendWaitCalls)
	}
	if len(spy.rowCounts) != 0 {
		t.Error("no artifact must be produced for an empty table")
	}
}

func TestRunFirstPageRecoversAfterExtendedWait(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: nil, retryCandidates: candidates(5, "alpha"), hasNext: false},
	}}

	out, acc, _ := run(t, h, 0)

	if out.State != StateDoneSuccess {
		t.Errorf("expected success after extended-wait retry, got %v", out.State)
	}
	if acc.Len() != 5 {
		t.Errorf("expected 5 rows, got %d", acc.Len())
	}
}

func TestRunNavigationRetriedRelaxed(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: candidates(3, "alpha"), fetchErrs: 1, hasNext: false},
	}}

	out, _, _ := run(t, h, 0)

	if out.State != StateDoneSuccess {
		t.Errorf("expected success after relaxed retry, got %v", out.State)
	}
	if h.relaxedFetches != 1 {
		t.Errorf("expected 1 relaxed fetch, got %d", h.relaxedFetches)
	}
}

func TestRunNavigationStalledAfterBothAttempts(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: candidates(3, "alpha"), fetchErrs: 2, hasNext: false},
	}}

	out, acc, _ := run(t, h, 0)

	if out.State != StateDoneStalled {
		t.Errorf("expected stalled, got %v", out.State)
	}
	if acc.Len() != 0 {
		t.Errorf("expected no rows, got %d", acc.Len())
	}
}

func TestRunPageCap(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: candidates(10, "alpha"), hasNext: true},
		{candidates: candidates(10, "beta"), hasNext: true},
		{candidates: candidates(10, "gamma"), hasNext: true},
	}}

	out, acc, _ := run(t, h, 2)

	if out.State != StateDoneSuccess {
		t.Errorf("expected success at page cap, got %v", out.State)
	}
	if out.Pages != 2 {
		t.Errorf("expected traversal to stop at page 2, got %d", out.Pages)
	}
	if acc.Len() != 20 {
		t.Errorf("expected 20 rows, got %d", acc.Len())
	}
}

func TestRunAdvanceFailureEndsTraversal(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: candidates(10, "alpha"), hasNext: true, advanceErr: errors.New("click failed")},
	}}

	out, acc, _ := run(t, h, 0)

	if out.State != StateDoneSuccess {
		t.Errorf("expected success when next affordance will not click, got %v", out.State)
	}
	if acc.Len() != 10 {
		t.Errorf("expected 10 rows, got %d", acc.Len())
	}
}

func TestRunRejectedCandidatesSkipped(t *testing.T) {
	page := candidates(2, "alpha")
	page = append(page, market.RawCandidate{Name: "1\nBuy"}) // cleans to empty
	h := &fakeHarvester{pages: []fakePage{{candidates: page, hasNext: false}}}

	_, acc, _ := run(t, h, 0)

	if acc.Len() != 2 {
		t.Errorf("expected rejected candidate to be dropped, got %d rows", acc.Len())
	}
}

func TestRunRenderFailurePropagates(t *testing.T) {
	h := &fakeHarvester{pages: []fakePage{
		{candidates: candidates(1, "alpha"), hasNext: false},
	}}
	acc := table.New()
	spy := &renderSpy{err: errors.New("disk full")}

	_, err := New(h, acc, spy, "out.xlsx", 0).Run(context.Background())
	if err == nil {
		t.Fatal("expected render failure to propagate")
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := &fakeHarvester{pages: []fakePage{{candidates: candidates(1, "alpha")}}}
	_, err := New(h, table.New(), &renderSpy{}, "out.xlsx", 0).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
