// Package harvester drives a headless Chromium page over the paginated
// coin market table and extracts raw row candidates from it. Everything in
// here is DOM-shaped and best-effort; classification of the extracted text
// lives in the market package.
package harvester

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// rowSelector matches both the classic table layout and the newer div-based
// one.
const rowSelector = `table tbody tr, [data-testid="table-row"]`

const (
	navigationTimeout = 60 * time.Second
	rowsTimeout       = 20 * time.Second
	settleTimeout     = 10 * time.Second
	softWait          = 5 * time.Second
	extendedWait      = 10 * time.Second
	postNavWait       = 2 * time.Second
)

// DefaultBlockedDomains are ad and tracker hosts whose background requests
// stall page readiness. Matched by substring against request URLs.
var DefaultBlockedDomains = []string{
	"doubleclick.net", "googlesyndication.com", "adsbygoogle",
	"googletagmanager.com", "facebook.net", "hotjar.com",
	"interstitial", "ads.coingecko", "adtarget", "pubmatic",
}

// Config holds the browser-side knobs of a scrape run.
type Config struct {
	BaseURL        string
	Headless       bool
	BlockedDomains []string
}

// Client owns one browser page for the duration of a run.
type Client struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	address string
}

// New launches Chromium, opens a page with request filtering installed, and
// points it at the configured starting address.
func New(cfg Config) (*Client, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:  &playwright.Size{Width: 1280, Height: 800},
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	blocked := cfg.BlockedDomains
	if blocked == nil {
		blocked = DefaultBlockedDomains
	}
	if err := installRequestFilter(page, blocked); err != nil {
		browser.Close()
		pw.Stop()
		return nil, err
	}

	log.Debug().Bool("headless", cfg.Headless).Int("blocked_domains", len(blocked)).Msg("Browser ready")
	return &Client{pw: pw, browser: browser, page: page, address: cfg.BaseURL}, nil
}

// installRequestFilter aborts requests to blocked hosts so background ad
// and tracker connections cannot stall readiness waits.
func installRequestFilter(page playwright.Page, blocked []string) error {
	err := page.Route("**/*", func(route playwright.Route) {
		url := route.Request().URL()
		for _, b := range blocked {
			if strings.Contains(url, b) {
				if err := route.Abort(); err != nil {
					log.Debug().Err(err).Str("url", url).Msg("Failed to abort blocked request")
				}
				return
			}
		}
		if err := route.Continue(); err != nil {
			log.Debug().Err(err).Str("url", url).Msg("Failed to continue request")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to install request filter: %w", err)
	}
	return nil
}

// Close tears down the browser and the playwright driver.
func (c *Client) Close() error {
	var firstErr error
	if err := c.browser.Close(); err != nil {
		firstErr = fmt.Errorf("failed to close browser: %w", err)
	}
	if err := c.pw.Stop(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to stop playwright: %w", err)
	}
	return firstErr
}

// Fetch navigates to the current address and waits for row markers. In
// relaxed mode the navigation waits for the full load event instead of
// DOMContentLoaded; a row-marker timeout is soft either way and only adds a
// fixed extra wait.
func (c *Client) Fetch(ctx context.Context, relaxed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitUntil := playwright.WaitUntilStateDomcontentloaded
	if relaxed {
		waitUntil = playwright.WaitUntilStateLoad
	}

	log.Debug().Str("address", c.address).Bool("relaxed", relaxed).Msg("Navigating")
	_, err := c.page.Goto(c.address, playwright.PageGotoOptions{
		WaitUntil: waitUntil,
		Timeout:   playwright.Float(float64(navigationTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", c.address, err)
	}
	c.page.WaitForTimeout(float64(postNavWait.Milliseconds()))

	_, err = c.page.WaitForSelector(rowSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(rowsTimeout.Milliseconds())),
	})
	if err != nil {
		// Rows may still render late; give the page a fixed grace period
		// and let extraction decide.
		log.Warn().Err(err).Msg("Row markers not found in time, waiting a little longer")
		c.page.WaitForTimeout(float64(softWait.Milliseconds()))
	}
	return nil
}

// ExtendWait gives dynamic content one long settle period before a
// re-harvest attempt.
func (c *Client) ExtendWait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.page.WaitForTimeout(float64(extendedWait.Milliseconds()))
	return nil
}

// HasNextPage probes for an enabled next-page affordance without clicking.
func (c *Client) HasNextPage(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	result, err := c.page.Evaluate(probeNextScript)
	if err != nil {
		return false, fmt.Errorf("next-page probe failed: %w", err)
	}
	enabled, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("next-page probe returned %T, expected bool", result)
	}
	return enabled, nil
}

// Advance clicks through to the next page, layering click strategies from
// most to least specific, then waits for the new page's rows. Returns the
// address the page landed on.
func (c *Client) Advance(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !c.clickNext() {
		return "", fmt.Errorf("no clickable next-page affordance on %s", c.address)
	}
	c.page.WaitForTimeout(float64(postNavWait.Milliseconds()))

	_, err := c.page.WaitForSelector(rowSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(settleTimeout.Milliseconds())),
	})
	if err != nil {
		log.Debug().Err(err).Msg("Next page slow to settle, applying fixed wait")
		c.page.WaitForTimeout(3000)
	}

	c.address = c.page.URL()
	return c.address, nil
}

// nextSelectors are the element-level click strategies, tried in order
// before falling back to a scripted icon search.
var nextSelectors = []string{
	`a[rel="next"]`,
	`button[aria-label*="Next"]`,
	`button[aria-label*="next"]`,
	`[class*="pagination"] a:last-child`,
	`[class*="pagination"] button:last-child`,
}

func (c *Client) clickNext() bool {
	for _, selector := range nextSelectors {
		el, err := c.page.QuerySelector(selector)
		if err != nil || el == nil {
			continue
		}
		disabled, err := el.Evaluate(disabledCheckScript)
		if err != nil {
			continue
		}
		if d, ok := disabled.(bool); ok && d {
			continue
		}
		if err := el.Click(); err != nil {
			log.Debug().Err(err).Str("selector", selector).Msg("Click failed, trying next strategy")
			continue
		}
		log.Debug().Str("selector", selector).Msg("Clicked next-page element")
		return true
	}

	// Last resort: click the pagination arrow icon from page script.
	result, err := c.page.Evaluate(clickNextIconScript)
	if err != nil {
		log.Debug().Err(err).Msg("Scripted next-page click failed")
		return false
	}
	clicked, _ := result.(bool)
	if clicked {
		log.Debug().Msg("Clicked next-page icon via script")
	}
	return clicked
}
