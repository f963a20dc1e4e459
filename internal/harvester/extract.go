package harvester

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"coingecko_export/internal/market"
)

// extractCellsScript pulls per-cell text and the coin link out of every row
// that looks complete. Classification of the cell texts happens in Go.
const extractCellsScript = `() => {
	const results = [];
	document.querySelectorAll("table tbody tr").forEach((row) => {
		const cells = Array.from(row.querySelectorAll("td")).map((td) => td.innerText.trim());
		if (cells.length < 7) return;
		const link = row.querySelector('a[href*="/coins/"]');
		results.push({
			name: link ? link.innerText.trim() : (cells[1] || ""),
			url: link ? link.href : "",
			cells: cells,
		});
	});
	return results;
}`

// extractTextScript is the fallback when no structured rows matched: whole
// row text plus the coin link, split into tokens on the Go side.
const extractTextScript = `() => {
	const results = [];
	document.querySelectorAll('table tbody tr, [data-testid="table-row"]').forEach((row) => {
		const link = row.querySelector('a[href*="/coins/"]');
		results.push({ text: row.innerText, url: link ? link.href : "" });
	});
	return results;
}`

// probeNextScript reports whether an enabled next-page affordance exists.
const probeNextScript = `() => {
	const icon = document.querySelector('i.fa-angle-right.tw-cursor-pointer');
	if (icon && !Array.from(icon.classList).some((c) => c.startsWith('tw-opacity-'))) {
		return true;
	}
	const selectors = ['a[rel="next"]', 'button[aria-label*="Next"]', 'button[aria-label*="next"]'];
	for (const sel of selectors) {
		const el = document.querySelector(sel);
		if (el && !el.disabled && !el.classList.contains('disabled') &&
			el.getAttribute('aria-disabled') !== 'true') {
			return true;
		}
	}
	return false;
}`

// disabledCheckScript runs against a candidate next-page element.
const disabledCheckScript = `(el) => el.disabled === true ||
	el.classList.contains('disabled') ||
	el.getAttribute('aria-disabled') === 'true'`

// clickNextIconScript finds the pagination arrow icon and clicks its
// nearest clickable ancestor.
const clickNextIconScript = `() => {
	const icons = document.querySelectorAll('i.fa-angle-right, i.fa-chevron-right, i.fa-arrow-right');
	for (const icon of icons) {
		if (Array.from(icon.classList).some((c) => c.startsWith('tw-opacity-'))) continue;
		if (window.getComputedStyle(icon).cursor !== 'pointer') continue;
		const clickable = icon.closest('a, button') || icon.parentElement;
		if (clickable) {
			clickable.click();
			return true;
		}
	}
	return false;
}`

// ExtractRows harvests the current page. The structured per-cell strategy
// runs first; if it yields nothing the raw-text fallback is tried.
func (c *Client) ExtractRows(ctx context.Context) ([]market.RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := c.page.Evaluate(extractCellsScript)
	if err != nil {
		return nil, fmt.Errorf("structured extraction failed: %w", err)
	}
	candidates := candidatesFromCells(result)
	if len(candidates) > 0 {
		log.Debug().Int("rows", len(candidates)).Msg("Structured extraction succeeded")
		return candidates, nil
	}

	log.Warn().Msg("Structured extraction found nothing, trying raw-text fallback")
	result, err = c.page.Evaluate(extractTextScript)
	if err != nil {
		return nil, fmt.Errorf("fallback extraction failed: %w", err)
	}
	candidates = candidatesFromText(result)
	log.Debug().Int("rows", len(candidates)).Msg("Fallback extraction finished")
	return candidates, nil
}

// candidatesFromCells converts the structured extraction result. Rows
// without a name source are kept; normalization decides acceptance.
func candidatesFromCells(result interface{}) []market.RawCandidate {
	items, ok := result.([]interface{})
	if !ok {
		return nil
	}

	var candidates []market.RawCandidate
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		candidates = append(candidates, market.RawCandidate{
			Name:   stringField(m, "name"),
			Tokens: stringSliceField(m, "cells"),
			Link:   stringField(m, "url"),
		})
	}
	return candidates
}

// candidatesFromText converts the raw-text fallback result, splitting each
// row's visible text into tokens. Rows with too few tokens are incomplete
// fragments and dropped, matching the structured strategy's cell minimum.
func candidatesFromText(result interface{}) []market.RawCandidate {
	items, ok := result.([]interface{})
	if !ok {
		return nil
	}

	var candidates []market.RawCandidate
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		tokens := splitRowText(stringField(m, "text"))
		if len(tokens) < 7 {
			continue
		}
		candidates = append(candidates, market.RawCandidate{
			Tokens: tokens,
			Link:   stringField(m, "url"),
		})
	}
	return candidates
}

// splitRowText breaks a row's visible text into trimmed, non-empty tokens.
func splitRowText(text string) []string {
	var tokens []string
	for _, part := range strings.Split(strings.ReplaceAll(text, "\t", "\n"), "\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func stringSliceField(m map[string]interface{}, key string) []string {
	items, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
