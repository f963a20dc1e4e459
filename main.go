package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"coingecko_export/internal/artifacts"
	"coingecko_export/internal/driver"
	"coingecko_export/internal/excel"
	"coingecko_export/internal/harvester"
	"coingecko_export/internal/market"
	"coingecko_export/internal/notifications"
	"coingecko_export/internal/notify"
	"coingecko_export/internal/retry"
	"coingecko_export/internal/sheets"
	"coingecko_export/internal/table"
)

func main() {
	setupEnvironment()
	cfg := loadConfig()

	ctx := context.Background()
	start := time.Now()

	artifacts.CleanOutputDir(cfg.OutputDir)
	dest := artifacts.Path(cfg.OutputDir, start)

	log.Info().
		Str("base_url", cfg.BaseURL).
		Str("artifact", dest).
		Int("max_pages", cfg.MaxPages).
		Msg("Starting CoinGecko export")

	client, err := harvester.New(harvester.Config{
		BaseURL:        cfg.BaseURL,
		Headless:       cfg.Headless,
		BlockedDomains: cfg.BlockedDomains,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start browser")
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("Browser teardown failed")
		}
	}()

	acc := table.New()
	outcome, err := driver.New(client, acc, excel.NewBuilder(), dest, cfg.MaxPages).Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Scrape run failed")
	}

	log.Info().
		Int("pages", outcome.Pages).
		Int("rows", outcome.Rows).
		Str("state", outcome.State.String()).
		Dur("elapsed", time.Since(start)).
		Msg("Traversal finished")

	if acc.Len() == 0 {
		log.Warn().Msg("No data collected, skipping delivery")
		return
	}

	mirrorToSheets(ctx, cfg, acc.Snapshot())
	emailStatus := deliverArtifact(cfg, dest)
	pushRunSummary(ctx, cfg, outcome, dest, emailStatus)
}

// deliverArtifact emails the workbook and returns the delivery status for
// the run summary. Failures are logged, not fatal; the artifact stays on
// disk either way.
func deliverArtifact(cfg appConfig, dest string) string {
	sender := notify.NewSender(cfg.Email)
	status, err := sender.SendArtifact(dest, notify.ExportSubject(time.Now()), notify.ExportBody())
	if err != nil {
		log.Error().Err(err).Str("artifact", dest).Msg("Artifact delivery failed")
	}
	return status.String()
}

// mirrorToSheets writes the collected table to the configured Google
// Spreadsheet. Mirroring is optional and never fatal.
func mirrorToSheets(ctx context.Context, cfg appConfig, rows []market.Row) {
	if !cfg.Sheets.Enabled() {
		log.Debug().Msg("Sheets mirror not configured, skipping")
		return
	}

	client, err := sheets.NewClient(ctx, cfg.Sheets)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create sheets client")
		return
	}

	_, err = retry.Do(ctx, cfg.SheetsRetry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, client.MirrorTable(ctx, rows)
	})
	if err != nil {
		log.Error().Err(err).Msg("Sheets mirror failed")
		return
	}
	log.Info().Int("rows", len(rows)).Str("spreadsheet_id", cfg.Sheets.SpreadsheetID).Msg("Mirrored table to Google Sheets")
}

func pushRunSummary(ctx context.Context, cfg appConfig, outcome driver.Outcome, dest, emailStatus string) {
	enabled := cfg.PushEnabled && cfg.PushTopic != ""
	notifications.NewClient(cfg.PushURL, cfg.PushTopic, enabled, cfg.PushRetry).
		NotifyRunSummary(ctx, notifications.RunSummary{
			Pages:       outcome.Pages,
			Rows:        outcome.Rows,
			Stalled:     outcome.Stalled(),
			Artifact:    filepath.Base(dest),
			EmailStatus: emailStatus,
		})
}
