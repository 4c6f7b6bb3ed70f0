// Package bulletin extracts quarter, profit/loss and EPS figures from F45
// financial statement bulletins.
package bulletin

import (
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
)

// Structural anchors in the bulletin token streams. They never carry data.
const (
	AnchorIncrease = "Increase"
	AnchorProfit   = "Profit"
	AnchorEPS      = "EPS"
)

func isAnchorLiteral(s string) bool {
	return s == AnchorIncrease || s == AnchorProfit || s == AnchorEPS
}

// ConvertNumbers turns raw numeric tokens into signed values, preserving order.
// Thousands separators are removed, "(x)" is negative, tokens with a decimal
// point parse as floats and the rest as integers. Anchors and empty tokens are
// skipped; unparseable tokens are logged and dropped.
func ConvertNumbers(tokens []string, url string, logger arbor.ILogger) []float64 {
	result := make([]float64, 0, len(tokens))

	for _, raw := range tokens {
		item := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
		if item == "" || isAnchorLiteral(item) {
			continue
		}

		negative := strings.HasPrefix(item, "(") && strings.HasSuffix(item, ")")
		body := strings.Trim(item, "()")

		value, err := parseNumber(body)
		if err != nil {
			if logger != nil {
				logger.Warn().
					Str("token", raw).
					Str("url", url).
					Err(err).
					Msg("Dropping unparseable numeric token")
			}
			continue
		}

		if negative {
			value = -value
		}
		result = append(result, value)
	}

	return result
}

// parseNumber keeps integer tokens integral; the float64 holds them exactly.
func parseNumber(s string) (float64, error) {
	if strings.Contains(s, ".") {
		return strconv.ParseFloat(s, 64)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}
