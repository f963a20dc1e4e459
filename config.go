package main

import (
	"os"
	"strings"
	"time"

	"coingecko_export/internal/notify"
	"coingecko_export/internal/retry"
	"coingecko_export/internal/sheets"
)

// appConfig gathers every knob of a run. Scraping works with an empty
// environment; email, sheets mirroring and push notifications each activate
// only when their own settings are present.
type appConfig struct {
	BaseURL        string
	OutputDir      string
	MaxPages       int
	Headless       bool
	BlockedDomains []string

	Email  notify.Config
	Sheets sheets.Config

	PushEnabled bool
	PushURL     string
	PushTopic   string

	SheetsRetry retry.Policy
	PushRetry   retry.Policy
}

func loadConfig() appConfig {
	cfg := appConfig{
		BaseURL:   getEnvWithDefault("BASE_URL", "https://www.coingecko.com/en/coins"),
		OutputDir: getEnvWithDefault("OUTPUT_DIR", "output"),
		MaxPages:  getEnvInt("MAX_PAGES", 0),
		Headless:  getEnvBool("HEADLESS", true),
		Email: notify.Config{
			SMTPHost: getEnvWithDefault("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort: getEnvInt("SMTP_PORT", 587),
			SMTPUser: os.Getenv("SMTP_USER"),
			SMTPPass: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SENDER_EMAIL"),
			To:       os.Getenv("RECIPIENT_EMAIL"),
		},
		Sheets: sheets.Config{
			CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
			SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
			SheetName:       getEnvWithDefault("SPREADSHEET_SHEET", "Sheet1"),
		},
		PushEnabled: getEnvBool("NTFY_ENABLED", false),
		PushURL:     getEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		PushTopic:   os.Getenv("NTFY_TOPIC"),
		SheetsRetry: retry.Policy{Attempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second},
		PushRetry:   retry.Policy{Attempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second},
	}

	if domains := os.Getenv("BLOCKED_DOMAINS"); domains != "" {
		for _, d := range strings.Split(domains, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.BlockedDomains = append(cfg.BlockedDomains, d)
			}
		}
	}
	return cfg
}
