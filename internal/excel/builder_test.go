package excel

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"coingecko_export/internal/market"
)

func fixedClock() time.Time {
	return time.Date(2024, time.February, 3, 14, 30, 0, 0, time.UTC)
}

func sampleRows(n int) []market.Row {
	rows := make([]market.Row, n)
	for i := range rows {
		rows[i] = market.Row{
			Name:      fmt.Sprintf("Coin %d", i+1),
			Price:     "$1.00",
			Change1h:  "+0.1%",
			Change24h: "-0.2%",
			Change7d:  "0.3%",
			Volume:    "$10M",
			MarketCap: "$100M",
			Link:      fmt.Sprintf("https://x/coins/coin-%d", i+1),
		}
	}
	return rows
}

func openSheet(t *testing.T, path string) *excelize.File {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open rendered workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(SheetName, cell)
	if err != nil {
		t.Fatalf("failed to read cell %s: %v", cell, err)
	}
	return v
}

func TestRenderHeaderBlock(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.xlsx")
	b := &Builder{Now: fixedClock}

	if err := b.Render(sampleRows(2), dest); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	f := openSheet(t, dest)
	if got := cellValue(t, f, "A1"); got != "CoinGecko – Cryptocurrency Market Data" {
		t.Errorf("unexpected title: %q", got)
	}
	if got := cellValue(t, f, "A2"); got != "Scraped on  03 Feb 2024, 14:30  •  2 coins" {
		t.Errorf("unexpected subtitle: %q", got)
	}
	for col, want := range market.Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 3)
		if got := cellValue(t, f, cell); got != want {
			t.Errorf("header %s: expected %q, got %q", cell, want, got)
		}
	}
}

func TestRenderDataRowsInOrder(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.xlsx")
	b := &Builder{Now: fixedClock}

	rows := sampleRows(3)
	if err := b.Render(rows, dest); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	f := openSheet(t, dest)
	for i, row := range rows {
		sheetRow := 4 + i
		if got := cellValue(t, f, fmt.Sprintf("A%d", sheetRow)); got != row.Name {
			t.Errorf("row %d: expected name %q, got %q", sheetRow, row.Name, got)
		}
		if got := cellValue(t, f, fmt.Sprintf("H%d", sheetRow)); got != row.Link {
			t.Errorf("row %d: expected link %q, got %q", sheetRow, row.Link, got)
		}
	}
	// Nothing beyond the last data row.
	if got := cellValue(t, f, "A7"); got != "" {
		t.Errorf("expected empty cell after data, got %q", got)
	}
}

func TestRenderOverwritesIndependently(t *testing.T) {
	// Rendering the full table must produce the same content whether or not
	// a smaller prefix was rendered to the same path before.
	dir := t.TempDir()
	progressive := filepath.Join(dir, "progressive.xlsx")
	oneShot := filepath.Join(dir, "oneshot.xlsx")
	b := &Builder{Now: fixedClock}

	rows := sampleRows(5)
	if err := b.Render(rows[:2], progressive); err != nil {
		t.Fatalf("Render prefix failed: %v", err)
	}
	if err := b.Render(rows, progressive); err != nil {
		t.Fatalf("Render full failed: %v", err)
	}
	if err := b.Render(rows, oneShot); err != nil {
		t.Fatalf("Render one-shot failed: %v", err)
	}

	pf := openSheet(t, progressive)
	of := openSheet(t, oneShot)
	for r := 1; r <= 4+len(rows); r++ {
		for c := 1; c <= 8; c++ {
			cell, _ := excelize.CoordinatesToCellName(c, r)
			if pv, ov := cellValue(t, pf, cell), cellValue(t, of, cell); pv != ov {
				t.Errorf("cell %s differs: progressive %q vs one-shot %q", cell, pv, ov)
			}
		}
	}
}

func TestRenderEmptyTable(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "empty.xlsx")
	b := &Builder{Now: fixedClock}

	if err := b.Render(nil, dest); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	f := openSheet(t, dest)
	if got := cellValue(t, f, "A2"); got != "Scraped on  03 Feb 2024, 14:30  •  0 coins" {
		t.Errorf("unexpected subtitle: %q", got)
	}
	if got := cellValue(t, f, "A4"); got != "" {
		t.Errorf("expected no data rows, got %q", got)
	}
}

func TestRenderDefaultClock(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.xlsx")
	if err := NewBuilder().Render(sampleRows(1), dest); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
}
