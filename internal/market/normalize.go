/*
Package market normalizes loosely-structured rows scraped from a coin market
table into a fixed 8-column schema.

Classification of flat token lists is best-effort pattern matching on
formatting cues ($, %, B/M/K suffixes). Ambiguous or reordered layouts can
silently misassign fields; callers get display text, never guarantees.
*/
package market

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	rankPattern      = regexp.MustCompile(`^\d+$`)
	decimalPattern   = regexp.MustCompile(`^\d+[.,]\d`)
	magnitudePattern = regexp.MustCompile(`(?i)[BMK]|billion|million`)
	largeNumPattern  = regexp.MustCompile(`(?i)^\$?[\d,]+(\.\d+)?[BMK]?$`)
)

// CleanName strips rank numbers, "Buy" button text and icon glyphs from a
// raw coin name and rejoins the remaining lines with single spaces.
func CleanName(raw string) string {
	var kept []string
	for _, part := range strings.Split(raw, "\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if isNumericToken(part) {
			continue
		}
		if strings.EqualFold(part, "buy") {
			continue
		}
		if isGlyphToken(part) {
			continue
		}
		kept = append(kept, part)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// Normalize turns a raw candidate into a Row. The second return value is
// false when the candidate is rejected, which happens exactly when the
// cleaned name comes out empty. Pure function of its input.
func Normalize(c RawCandidate) (Row, bool) {
	rawName := c.Name
	tokens := c.Tokens
	if rawName == "" {
		filtered := dropNoiseTokens(tokens)
		if len(filtered) > 0 {
			rawName = filtered[0]
			tokens = filtered[1:]
		}
	}

	name := CleanName(rawName)
	if name == "" {
		return Row{}, false
	}

	row := Row{Name: name, Link: c.Link}

	if c.Fields != nil {
		row.Price = c.Fields.Price
		row.Change1h = c.Fields.Change1h
		row.Change24h = c.Fields.Change24h
		row.Change7d = c.Fields.Change7d
		row.Volume = c.Fields.Volume
		row.MarketCap = c.Fields.MarketCap
		return row, true
	}

	s := classifyTokens(tokens, rawName, name)
	row.Price = s.price
	row.Change1h = s.change1h
	row.Change24h = s.change24h
	row.Change7d = s.change7d
	row.Volume = s.volume
	row.MarketCap = s.marketCap
	return row, true
}

// fieldSlots holds the classified fields while tokens are scanned. Empty
// string means the slot is still unfilled.
type fieldSlots struct {
	price     string
	change1h  string
	change24h string
	change7d  string
	volume    string
	marketCap string
}

// classifyTokens assigns flat visible-text tokens to fields by formatting
// cues, filling each group of slots in fixed priority order with a
// first-seen-wins rule. The price pattern is checked before the percent
// pattern, so a bare "3.4%"-style token can claim an empty price slot; that
// matches the source layout assumptions and is accepted as best-effort.
func classifyTokens(tokens []string, rawName, cleanedName string) fieldSlots {
	var s fieldSlots
	percentSlots := []*string{&s.change1h, &s.change24h, &s.change7d}
	volumeSlots := []*string{&s.volume, &s.marketCap}

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || tok == rawName || tok == cleanedName {
			continue
		}
		if rankPattern.MatchString(tok) || strings.EqualFold(tok, "buy") || isGlyphToken(tok) {
			continue
		}

		switch {
		case s.price == "" && isPriceToken(tok):
			s.price = tok
		case strings.Contains(tok, "%"):
			fillFirst(percentSlots, tok)
		case isVolumeToken(tok):
			fillFirst(volumeSlots, tok)
		}
	}
	return s
}

// dropNoiseTokens removes rank markers and "Buy" button text so the first
// remaining token can stand in for a missing name.
func dropNoiseTokens(tokens []string) []string {
	var filtered []string
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if isNumericToken(tok) && len([]rune(tok)) < 4 {
			continue
		}
		if strings.EqualFold(tok, "buy") {
			continue
		}
		filtered = append(filtered, tok)
	}
	return filtered
}

// fillFirst assigns value to the first unfilled slot; once a slot is filled
// it is never reassigned.
func fillFirst(slots []*string, value string) {
	for _, slot := range slots {
		if *slot == "" {
			*slot = value
			return
		}
	}
}

func isPriceToken(tok string) bool {
	return strings.Contains(tok, "$") || decimalPattern.MatchString(tok)
}

func isVolumeToken(tok string) bool {
	if strings.ContainsAny(tok, "$0123456789") && magnitudePattern.MatchString(tok) {
		return true
	}
	return largeNumPattern.MatchString(tok)
}

// isNumericToken reports whether the token is purely numeric once thousands
// separators and decimal points are stripped. Such tokens are rank markers.
func isNumericToken(tok string) bool {
	stripped := strings.NewReplacer(",", "", ".", "").Replace(tok)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isGlyphToken reports whether the token is short enough and non-alphabetic,
// which on this page means an icon or button glyph rather than a name part.
func isGlyphToken(tok string) bool {
	runes := []rune(tok)
	if len(runes) > 2 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
