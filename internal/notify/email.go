// Package notify delivers finished artifacts by email over SMTP.
package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	gomail "gopkg.in/mail.v2"
)

// Config holds SMTP transport and recipient settings.
type Config struct {
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	From     string
	To       string
}

// Missing lists the required settings that are unset. Host and port carry
// defaults upstream and are not required here.
func (c Config) Missing() []string {
	var missing []string
	if c.SMTPUser == "" {
		missing = append(missing, "SMTP_USER")
	}
	if c.SMTPPass == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if c.To == "" {
		missing = append(missing, "RECIPIENT_EMAIL")
	}
	return missing
}

// Status is the outcome of a delivery attempt.
type Status int

const (
	// StatusSent means the transport accepted the message.
	StatusSent Status = iota
	// StatusSkipped means the configuration was incomplete and no network
	// call was attempted. Not an error.
	StatusSkipped
	// StatusFailed means delivery was attempted and failed. The artifact
	// on disk is untouched.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sender delivers files as email attachments.
type Sender struct {
	cfg Config
}

func NewSender(cfg Config) *Sender {
	if cfg.From == "" {
		cfg.From = cfg.SMTPUser
	}
	return &Sender{cfg: cfg}
}

// SendArtifact emails the file at path as an attachment. An incomplete
// configuration short-circuits to StatusSkipped before any network or file
// access; transport faults come back as StatusFailed with the cause.
func (s *Sender) SendArtifact(path, subject, body string) (Status, error) {
	if missing := s.cfg.Missing(); len(missing) > 0 {
		log.Warn().
			Strs("missing", missing).
			Msg("Email skipped: set SMTP_USER, SMTP_PASS and RECIPIENT_EMAIL to enable delivery")
		return StatusSkipped, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return StatusFailed, fmt.Errorf("attachment not readable: %w", err)
	}

	log.Info().
		Str("from", s.cfg.From).
		Str("to", s.cfg.To).
		Str("attachment", filepath.Base(path)).
		Float64("size_mb", float64(info.Size())/(1024*1024)).
		Msg("Sending email")

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	m.Attach(path)

	dialer := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPass)
	dialer.Timeout = 30 * time.Second

	if err := dialer.DialAndSend(m); err != nil {
		log.Error().Err(err).
			Str("host", s.cfg.SMTPHost).
			Int("port", s.cfg.SMTPPort).
			Msg("Email failed; for Gmail use an App Password, not the account password")
		return StatusFailed, fmt.Errorf("failed to send email to %s: %w", s.cfg.To, err)
	}

	log.Info().Str("to", s.cfg.To).Msg("Email sent")
	return StatusSent, nil
}

// ExportSubject is the subject line for a finished scrape export.
func ExportSubject(now time.Time) string {
	return fmt.Sprintf("CoinGecko Data Export – %s", now.Format("02 Jan 2006"))
}

// ExportBody is the body for a finished scrape export.
func ExportBody() string {
	return "Hi,\n\n" +
		"Please find attached the latest CoinGecko cryptocurrency market data.\n" +
		"Total coins scraped: see the subtitle row inside the Excel file.\n\n" +
		"Best,\nCrypto Scraper Bot\n"
}

// FileSubject is the auto-generated subject for an arbitrary file send.
func FileSubject(fileName string, now time.Time) string {
	return fmt.Sprintf("File: %s - %s", fileName, now.Format("02 Jan 2006"))
}

// FileBody is the auto-generated body for an arbitrary file send.
func FileBody(fileName string, sizeMB float64, now time.Time) string {
	return fmt.Sprintf("Hello,\n\n"+
		"Please find attached the file: %s\n\n"+
		"File details:\n"+
		"- Name: %s\n"+
		"- Size: %.2f MB\n"+
		"- Sent: %s\n\n"+
		"Best regards,\nAutomated Email Sender\n",
		fileName, fileName, sizeMB, now.Format("02 Jan 2006 at 15:04"))
}
