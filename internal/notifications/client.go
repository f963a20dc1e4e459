// Package notifications pushes short run summaries to an ntfy topic.
package notifications

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"coingecko_export/internal/retry"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	policy     retry.Policy
}

func NewClient(baseURL, topic string, enabled bool, policy retry.Policy) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		topic:   topic,
		enabled: enabled,
		policy:  policy,
	}
}

// RunSummary describes one finished scrape run for the push message.
type RunSummary struct {
	Pages       int
	Rows        int
	Stalled     bool
	Artifact    string
	EmailStatus string
}

// FormatRunSummary renders the push message body.
func FormatRunSummary(s RunSummary) string {
	var sb strings.Builder

	if s.Stalled {
		sb.WriteString(fmt.Sprintf("⚠️ CoinGecko export stalled: %d coins across %d pages\n", s.Rows, s.Pages))
	} else {
		sb.WriteString(fmt.Sprintf("✅ CoinGecko export: %d coins across %d pages\n", s.Rows, s.Pages))
	}
	if s.Artifact != "" {
		sb.WriteString(fmt.Sprintf("📄 %s\n", s.Artifact))
	}
	if s.EmailStatus != "" {
		sb.WriteString(fmt.Sprintf("📧 Email: %s\n", s.EmailStatus))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// NotifyRunSummary pushes the summary. Failures are logged, never fatal; a
// lost push must not fail a run that already produced its artifact.
func (c *Client) NotifyRunSummary(ctx context.Context, summary RunSummary) {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return
	}
	if err := c.send(ctx, FormatRunSummary(summary)); err != nil {
		log.Warn().Err(err).Msg("Run summary notification failed")
		return
	}
	log.Debug().Msg("Run summary notification sent")
}

func (c *Client) send(ctx context.Context, message string) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	_, err := retry.Do(ctx, c.policy, func(ctx context.Context) (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(message))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "text/plain")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return struct{}{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		}
		return struct{}{}, nil
	})
	return err
}
