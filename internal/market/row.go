package market

// Headers are the column titles of the exported table, in column order.
var Headers = [8]string{
	"Coin Name",
	"Price (USD)",
	"1h %",
	"24h %",
	"7d %",
	"24h Volume (USD)",
	"Market Cap (USD)",
	"Coin Link",
}

// Row is one normalized market record. Every field is display-ready text
// taken from the page as-is; an empty string means the value could not be
// determined. No numeric parsing is ever performed on these fields.
type Row struct {
	Name      string
	Price     string
	Change1h  string
	Change24h string
	Change7d  string
	Volume    string
	MarketCap string
	Link      string
}

// Values returns the row's fields in column order.
func (r Row) Values() [8]string {
	return [8]string{
		r.Name,
		r.Price,
		r.Change1h,
		r.Change24h,
		r.Change7d,
		r.Volume,
		r.MarketCap,
		r.Link,
	}
}

// FieldGuesses carries per-field text the harvester already classified from
// row structure. Values pass through normalization unchanged.
type FieldGuesses struct {
	Price     string
	Change1h  string
	Change24h string
	Change7d  string
	Volume    string
	MarketCap string
}

// RawCandidate is one unnormalized record as the harvester saw it: either
// keyed guesses (Fields set) or a flat list of visible-text tokens to be
// classified heuristically. Name may carry rank numbers and UI button text;
// when it is empty the first usable token stands in for it.
type RawCandidate struct {
	Name   string
	Fields *FieldGuesses
	Tokens []string
	Link   string
}
