package models

import (
	"fmt"
	"strings"
	"time"
)

// Quarter is the canonical fiscal quarter tag.
type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"
)

// Raw period labels found in bulletins.
const (
	LabelQuarter1 = "Quarter 1"
	LabelQuarter2 = "Quarter 2"
	LabelQuarter3 = "Quarter 3"
	LabelAnnual   = "12 Months"
	LabelYearly   = "Yearly"
)

// QuarterFromLabel maps a raw bulletin period label to its quarter.
// Annual, yearly, empty and unrecognised labels all map to Q4.
func QuarterFromLabel(label string) Quarter {
	switch strings.Join(strings.Fields(label), " ") {
	case LabelQuarter1:
		return Q1
	case LabelQuarter2:
		return Q2
	case LabelQuarter3:
		return Q3
	default:
		return Q4
	}
}

// Index returns 1..4 for a valid quarter and 0 otherwise.
func (q Quarter) Index() int {
	switch q {
	case Q1:
		return 1
	case Q2:
		return 2
	case Q3:
		return 3
	case Q4:
		return 4
	}
	return 0
}

// QuarterRecord is the transient result of parsing one bulletin.
// PnL and EPS are positionally aligned with Years.
type QuarterRecord struct {
	Symbol       string
	Years        []int
	QuarterLabel string
	PnL          []float64
	EPS          []float64
	HasEPS       bool
	SourceURL    string
	Datetime     time.Time
}

// FiscalYear returns the first year of the record, or 0 when no year was found.
func (r *QuarterRecord) FiscalYear() int {
	if len(r.Years) == 0 {
		return 0
	}
	return r.Years[0]
}

// ReconciledQuarter is one persisted (symbol, year, quarter) figure.
// The store key is the source URL.
type ReconciledQuarter struct {
	URL       string    `json:"Url"`
	Symbol    string    `json:"Symbol" badgerhold:"index"`
	Year      int       `json:"Year"`
	Quarter   Quarter   `json:"Quarter"`
	PnL       float64   `json:"Profit and Loss (PnL)"`
	EPS       float64   `json:"EPS"`
	Datetime  time.Time `json:"Datetime"`
	SeriesKey string    `json:"-" badgerhold:"index"`
}

// BuildSeriesKey returns the (Symbol, Year, Datetime) ordering key.
// Keys sort lexically in the same order as the tuple.
func BuildSeriesKey(symbol string, year int, datetime time.Time) string {
	return fmt.Sprintf("%s|%04d|%s", symbol, year, datetime.UTC().Format("20060102T150405.000000000"))
}

// ProcessedBulletin marks a bulletin that was handled without being stored
// because another bulletin already holds its (symbol, year, quarter).
type ProcessedBulletin struct {
	URL      string    `json:"url"`
	Symbol   string    `json:"symbol"`
	Year     int       `json:"year"`
	Quarter  Quarter   `json:"quarter"`
	KeptURL  string    `json:"kept_url"`
	MarkedAt time.Time `json:"marked_at"`
}
