// Package sheets mirrors the collected market table into a Google
// Spreadsheet. Mirroring is optional and additive; the xlsx artifact stays
// the primary output.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"coingecko_export/internal/market"
)

// Config holds the mirror target. Mirroring activates only when both the
// credentials file and spreadsheet ID are set.
type Config struct {
	CredentialsFile string
	SpreadsheetID   string
	SheetName       string
}

// Enabled reports whether the configuration is complete enough to mirror.
func (c Config) Enabled() bool {
	return c.CredentialsFile != "" && c.SpreadsheetID != ""
}

type Client struct {
	service *sheets.Service
	cfg     Config
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	service, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}

	return &Client{
		service: service,
		cfg:     cfg,
	}, nil
}

// MirrorTable replaces the sheet contents with the header row followed by
// the given rows. The previous mirror is cleared first so stale rows from a
// longer earlier run cannot linger below the new data.
func (c *Client) MirrorTable(ctx context.Context, rows []market.Row) error {
	clearRange := fmt.Sprintf("%s!A1:H100000", c.cfg.SheetName)
	_, err := c.service.Spreadsheets.Values.Clear(c.cfg.SpreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	valueRange := &sheets.ValueRange{
		Values: tableValues(rows),
	}
	writeRange := fmt.Sprintf("%s!A1", c.cfg.SheetName)
	_, err = c.service.Spreadsheets.Values.Update(c.cfg.SpreadsheetID, writeRange, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}
	return nil
}

// tableValues converts the table into the values grid the API expects,
// header row first.
func tableValues(rows []market.Row) [][]interface{} {
	values := make([][]interface{}, 0, len(rows)+1)

	header := make([]interface{}, len(market.Headers))
	for i, h := range market.Headers {
		header[i] = h
	}
	values = append(values, header)

	for _, row := range rows {
		cells := row.Values()
		line := make([]interface{}, len(cells))
		for i, cell := range cells {
			line[i] = cell
		}
		values = append(values, line)
	}
	return values
}
