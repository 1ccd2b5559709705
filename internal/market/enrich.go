package market

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// cashtagRe matches $TICKER tokens (1-5 capital letters)
var cashtagRe = regexp.MustCompile(`\$([A-Z]{1,5})\b`)

// ExtractCashtags returns the unique tickers referenced as cashtags in
// text, in order of first appearance.
func ExtractCashtags(text string) []string {
	matches := cashtagRe.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var tickers []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			tickers = append(tickers, m[1])
		}
	}
	return tickers
}

// EnrichCashtags rewrites cashtags with live quote data, turning $AAPL
// into $AAPL ($150.25, +1.25%). Enrichment is best effort: tickers the
// service cannot quote stay untouched, and a total fetch failure returns
// the original text without error.
func (c *Client) EnrichCashtags(ctx context.Context, text string) string {
	tickers := ExtractCashtags(text)
	if len(tickers) == 0 {
		return text
	}

	quotes, err := c.GetBulkPrices(ctx, tickers)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Strs("tickers", tickers).
			Msg("Cashtag enrichment skipped")
		return text
	}

	return ReplaceCashtags(text, quotes)
}

// ReplaceCashtags applies quote data to every matching cashtag in text
func ReplaceCashtags(text string, quotes map[string]Quote) string {
	return cashtagRe.ReplaceAllStringFunc(text, func(tag string) string {
		ticker := strings.TrimPrefix(tag, "$")
		quote, ok := quotes[ticker]
		if !ok {
			return tag
		}

		sign := "+"
		if quote.ChangePercent < 0 {
			sign = ""
		}
		return fmt.Sprintf("%s ($%.2f, %s%.2f%%)", tag, quote.Price, sign, quote.ChangePercent)
	})
}
