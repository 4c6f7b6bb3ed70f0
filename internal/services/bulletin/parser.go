package bulletin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/fluke-jesadakorn/investech-fetch-stock/internal/models"
)

// DefaultContentSelector locates the bulletin body in the exchange news page.
const DefaultContentSelector = "div.raw-html"

var (
	annualPattern  = regexp.MustCompile(`12 Months|Yearly`)
	quarterPattern = regexp.MustCompile(`Quarter[\s\x{00A0}][1-3]`)

	pnlPattern   = regexp.MustCompile(`Increase|Profit|\(?\d{1,3},?\d{1,3},?\d{1,3}\.?\d{1,4}\)?|\(?\d{1,3}\.\d{1,3}\)?|\(?\d{1,3}\)?`)
	yearsPattern = regexp.MustCompile(`20\d{2}|Increase|Profit`)
	epsPattern   = regexp.MustCompile(`EPS|(?:\(\d{1,3}[\.]\d+\)?)|(?:\d{1,2}[\.]\d{1,8})`)
)

// Parser turns bulletin HTML into a QuarterRecord.
type Parser struct {
	selector string
	logger   arbor.ILogger
}

// NewParser creates a parser reading the element matched by selector.
func NewParser(selector string, logger arbor.ILogger) *Parser {
	if selector == "" {
		selector = DefaultContentSelector
	}
	return &Parser{
		selector: selector,
		logger:   logger,
	}
}

// Content returns the text of the first element matching the selector, or ""
// when the page has no such element.
func (p *Parser) Content(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	selection := doc.Find(p.selector).First()
	if selection.Length() == 0 {
		return "", nil
	}
	return selection.Text(), nil
}

// Parse extracts the period label and the year, PnL and EPS columns of one
// bulletin. The result is a pure function of html and the document's URL,
// symbol and datetime.
func (p *Parser) Parse(html string, doc *models.NewsDocument) (*models.QuarterRecord, error) {
	publishedAt, err := doc.PublishedAt()
	if err != nil {
		return nil, err
	}

	content, err := p.Content(html)
	if err != nil {
		return nil, err
	}

	years, pnl, eps, hasEPS := p.ParseText(content, doc.URL)

	return &models.QuarterRecord{
		Symbol:       doc.Symbol,
		Years:        years,
		QuarterLabel: PeriodLabel(content),
		PnL:          pnl,
		EPS:          eps,
		HasEPS:       hasEPS,
		SourceURL:    doc.URL,
		Datetime:     publishedAt,
	}, nil
}

// PeriodLabel finds the reporting period of a bulletin. Annual statements and
// bulletins without a recognisable period are labelled "12 Months".
func PeriodLabel(content string) string {
	if annualPattern.MatchString(content) {
		return models.LabelAnnual
	}
	if label := quarterPattern.FindString(content); label != "" {
		return label
	}
	return models.LabelAnnual
}

// ParseText scans the bulletin text. Years bound the width of the PnL and
// EPS windows; an EPS anchor with an empty window yields a single zero.
func (p *Parser) ParseText(content, url string) (years []int, pnl []float64, eps []float64, hasEPS bool) {
	yearTokens := Tokenize(yearsPattern, content, AnchorIncrease, AnchorProfit)
	if anchor, ok := PreferredAnchor(yearTokens, AnchorIncrease, AnchorProfit); ok {
		yearTokens = Before(yearTokens, anchor)
	}
	width := len(yearTokens)

	for _, v := range ConvertNumbers(Texts(yearTokens), url, p.logger) {
		years = append(years, int(v))
	}

	pnlTokens := Tokenize(pnlPattern, content, AnchorIncrease, AnchorProfit)
	anchor, _ := PreferredAnchor(pnlTokens, AnchorIncrease, AnchorProfit)
	pnlWindow, _ := After(pnlTokens, anchor, width, true)
	pnl = ConvertNumbers(Texts(pnlWindow), url, p.logger)

	epsTokens := Tokenize(epsPattern, content, AnchorEPS)
	epsWindow, anchored := After(epsTokens, AnchorEPS, width, false)
	if anchored {
		hasEPS = true
		if len(epsWindow) == 0 {
			eps = []float64{0}
		} else {
			eps = ConvertNumbers(Texts(epsWindow), url, p.logger)
		}
	}

	return years, pnl, eps, hasEPS
}
