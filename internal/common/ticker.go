// Package common provides shared utilities across the application.
package common

import (
	"sort"
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "SET:PTT", "MAI:ABC")
type Ticker struct {
	// Exchange is the market code (e.g., "SET", "MAI")
	Exchange string
	// Code is the security code as listed on the exchange (e.g., "PTT", "CPALL")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps market codes to EODHD API suffixes.
// Both boards of the Stock Exchange of Thailand trade under ".BK".
var ExchangeToSuffix = map[string]string{
	"SET": ".BK",
	"MAI": ".BK",
}

// DefaultExchange is the market used when a ticker has no exchange prefix.
var DefaultExchange = "SET"

// DefaultSuffix is the EODHD suffix used for unknown markets.
var DefaultSuffix = ".BK"

// SetDefaultSuffix overrides the EODHD suffix from config.
func SetDefaultSuffix(suffix string) {
	if suffix != "" {
		DefaultSuffix = strings.ToUpper(suffix)
	}
}

// ParseTicker parses an exchange-qualified ticker string.
// Supports formats:
//   - "SET:PTT" -> Exchange="SET", Code="PTT"
//   - "PTT.BK"  -> Exchange=DefaultExchange, Code="PTT" (EODHD format)
//   - "ptt"     -> Exchange=DefaultExchange, Code="PTT"
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(strings.TrimSpace(ticker[idx+1:])),
			Raw:      ticker,
		}
	}

	code := strings.ToUpper(ticker)
	if strings.HasSuffix(code, DefaultSuffix) {
		code = strings.TrimSuffix(code, DefaultSuffix)
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     code,
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "SET:PTT" -> "PTT.BK"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = DefaultSuffix
	}
	return t.Code + suffix
}

// NormalizeSymbols upper-cases, trims and de-duplicates symbol codes,
// returning them sorted.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	result := make([]string, 0, len(symbols))
	for _, s := range symbols {
		code := ParseTicker(s).Code
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		result = append(result, code)
	}
	sort.Strings(result)
	return result
}
