// Package excel renders the accumulated market table into a styled xlsx
// workbook.
package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"coingecko_export/internal/market"
)

const (
	SheetName = "CoinGecko Data"

	headerRow    = 3
	firstDataRow = headerRow + 1

	darkBG    = "1A1A2E"
	goldText  = "FFD700"
	whiteText = "FFFFFF"
	greyText  = "6B7280"
	inkText   = "1A1A2E"
	altFill   = "F2F7FC"
	borderClr = "D0D8E0"
)

// Hand-tuned column widths, independent of content.
var colWidths = [8]float64{34, 16, 10, 10, 10, 20, 22, 50}

// Builder writes the table to disk. Each Render call is total and fully
// overwrites the destination; no call depends on prior file state, so the
// driver can invoke it once per page with a growing table.
type Builder struct {
	// Now supplies the subtitle timestamp. Defaults to time.Now.
	Now func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{Now: time.Now}
}

// Render writes a workbook holding the given rows to dest, replacing any
// existing file at that path.
func (b *Builder) Render(rows []market.Row, dest string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	st, err := newStyleSet(f)
	if err != nil {
		return err
	}

	if err := b.writeHeaderBlock(f, st, len(rows)); err != nil {
		return err
	}
	if err := writeDataRows(f, st, rows); err != nil {
		return err
	}
	if err := applyLayout(f); err != nil {
		return err
	}

	if err := f.SaveAs(dest); err != nil {
		return fmt.Errorf("failed to save workbook to %s: %w", dest, err)
	}
	return nil
}

func (b *Builder) writeHeaderBlock(f *excelize.File, st styleSet, rowCount int) error {
	if err := f.MergeCell(SheetName, "A1", "H1"); err != nil {
		return fmt.Errorf("failed to merge title cells: %w", err)
	}
	if err := f.SetCellValue(SheetName, "A1", "CoinGecko – Cryptocurrency Market Data"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "H1", st.title); err != nil {
		return err
	}
	if err := f.SetRowHeight(SheetName, 1, 32); err != nil {
		return err
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	subtitle := fmt.Sprintf("Scraped on  %s  •  %d coins", now().Format("02 Jan 2006, 15:04"), rowCount)
	if err := f.MergeCell(SheetName, "A2", "H2"); err != nil {
		return fmt.Errorf("failed to merge subtitle cells: %w", err)
	}
	if err := f.SetCellValue(SheetName, "A2", subtitle); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A2", "H2", st.subtitle); err != nil {
		return err
	}
	if err := f.SetRowHeight(SheetName, 2, 20); err != nil {
		return err
	}

	for col, header := range market.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetName, "A3", "H3", st.header); err != nil {
		return err
	}
	return f.SetRowHeight(SheetName, headerRow, 22)
}

func writeDataRows(f *excelize.File, st styleSet, rows []market.Row) error {
	for i, row := range rows {
		sheetRow := firstDataRow + i
		alt := sheetRow%2 == 0

		for col, value := range row.Values() {
			cell, err := excelize.CoordinatesToCellName(col+1, sheetRow)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
			if err := f.SetCellStyle(SheetName, cell, cell, st.dataStyle(col == 0, alt)); err != nil {
				return err
			}
		}
		if err := f.SetRowHeight(SheetName, sheetRow, 20); err != nil {
			return err
		}
	}
	return nil
}

func applyLayout(f *excelize.File) error {
	for i, width := range colWidths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// Keep the header block visible while scrolling the data.
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: "A4",
		ActivePane:  "bottomLeft",
	})
}
