package models

import (
	"fmt"
	"strings"
	"time"
)

// FinancialStatementTag marks exchange news items that carry an F45 financial statement bulletin.
const FinancialStatementTag = "(F45)"

// NewsDocument is a stored exchange news item. It is owned by the news harvester
// and read-only to the pipeline.
type NewsDocument struct {
	URL      string `json:"url"`
	Symbol   string `json:"symbol" badgerhold:"index"`
	Headline string `json:"headline"`
	Datetime string `json:"datetime"` // ISO-8601 as published by the exchange
	HTMLBody string `json:"html_body,omitempty"`

	// Feed metadata, not used by the parser
	ID      string `json:"id,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Source  string `json:"source,omitempty"`
	Lang    string `json:"lang,omitempty"`
	Product string `json:"product,omitempty"`
}

// IsFinancialStatement reports whether the headline carries the F45 tag.
func (n NewsDocument) IsFinancialStatement() bool {
	return strings.Contains(n.Headline, FinancialStatementTag)
}

var newsTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PublishedAt parses the ISO-8601 datetime of the news item.
func (n NewsDocument) PublishedAt() (time.Time, error) {
	value := strings.TrimSpace(n.Datetime)
	for _, layout := range newsTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid news datetime %q", n.Datetime)
}
