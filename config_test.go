package main

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"BASE_URL", "OUTPUT_DIR", "MAX_PAGES", "HEADLESS", "BLOCKED_DOMAINS",
		"SMTP_HOST", "SMTP_PORT", "NTFY_ENABLED", "NTFY_URL", "SPREADSHEET_SHEET",
	} {
		t.Setenv(key, "")
	}

	cfg := loadConfig()
	if cfg.BaseURL != "https://www.coingecko.com/en/coins" {
		t.Errorf("unexpected BaseURL %q", cfg.BaseURL)
	}
	if cfg.OutputDir != "output" {
		t.Errorf("unexpected OutputDir %q", cfg.OutputDir)
	}
	if cfg.MaxPages != 0 {
		t.Errorf("expected unlimited pages by default, got %d", cfg.MaxPages)
	}
	if !cfg.Headless {
		t.Error("expected headless by default")
	}
	if cfg.Email.SMTPHost != "smtp.gmail.com" || cfg.Email.SMTPPort != 587 {
		t.Errorf("unexpected SMTP defaults: %s:%d", cfg.Email.SMTPHost, cfg.Email.SMTPPort)
	}
	if cfg.PushEnabled {
		t.Error("push notifications must be off by default")
	}
	if cfg.Sheets.Enabled() {
		t.Error("sheets mirror must be off by default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("BASE_URL", "https://example.com/coins")
	t.Setenv("MAX_PAGES", "3")
	t.Setenv("HEADLESS", "false")
	t.Setenv("BLOCKED_DOMAINS", "ads.example.com, tracker.example.com,")

	cfg := loadConfig()
	if cfg.BaseURL != "https://example.com/coins" {
		t.Errorf("unexpected BaseURL %q", cfg.BaseURL)
	}
	if cfg.MaxPages != 3 {
		t.Errorf("unexpected MaxPages %d", cfg.MaxPages)
	}
	if cfg.Headless {
		t.Error("expected headless off")
	}
	want := []string{"ads.example.com", "tracker.example.com"}
	if len(cfg.BlockedDomains) != len(want) {
		t.Fatalf("BlockedDomains = %v, want %v", cfg.BlockedDomains, want)
	}
	for i := range want {
		if cfg.BlockedDomains[i] != want[i] {
			t.Errorf("BlockedDomains = %v, want %v", cfg.BlockedDomains, want)
		}
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt on garbage = %d, want default 7", got)
	}

	t.Setenv("TEST_BOOL", "definitely")
	if got := getEnvBool("TEST_BOOL", true); got != true {
		t.Errorf("getEnvBool on garbage = %v, want default true", got)
	}

	t.Setenv("TEST_STR", "")
	if got := getEnvWithDefault("TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("getEnvWithDefault = %q, want fallback", got)
	}
}
