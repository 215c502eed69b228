package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/marwy1000/mkmsearch/pkg/models"
)

// Some product categories repeat the game name inside the set parentheses.
const setNamePrefix = "Magic: The Gathering | "

// Example segments, as they appear in the Description column:
//
//	1x Myth Realized (Dragons of Tarkir) - 26 - Rare - MT - English - Foil - 4,99 EUR
//	5x Beast Token (G 3/3) / Elemental Token (G 5/3) (Commander 2014) - T 19/21 - Token - MT - English - 0,10 EUR
//	3x 80 KMC Hyper mat Sleeves (Black) - English - 5,99 EUR
var (
	quantityExpr = regexp.MustCompile(`^(\d+)x`)
	// The set name is the outermost trailing parenthesized group; token cards
	// carry additional parenthesized groups earlier in the name.
	setExpr      = regexp.MustCompile(`\(([^()]+)\)[^()]*$`)
	qualityExpr  = regexp.MustCompile(` - (MT|NM|EX|GD|LP|PL|PO) - `)
	languageExpr = regexp.MustCompile(`\b(English|German|French|Italian|Spanish|Japanese|Simplified Chinese|Traditional Chinese|Korean|Portuguese|Russian)\b`)
)

// Parser turns the free-text description column of a purchase report into
// normalized line items. Each extraction rule is total: a field whose pattern
// does not match yields its zero value, and a segment is never dropped.
type Parser struct {
	logger    *log.Logger
	priceExpr map[string]*regexp.Regexp
}

func New(logger *log.Logger) *Parser {
	return &Parser{
		logger:    logger,
		priceExpr: make(map[string]*regexp.Regexp),
	}
}

// SplitSegments splits a description on " | " separators at parenthesis depth
// zero. Separators inside parentheses belong to set or product names and are
// not split points.
func SplitSegments(description string) []string {
	var segments []string
	depth := 0
	start := 0

	for i := 0; i < len(description); i++ {
		switch description[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ' ':
			if depth == 0 && strings.HasPrefix(description[i:], " | ") {
				segments = append(segments, description[start:i])
				start = i + 3
				i += 2
			}
		}
	}
	segments = append(segments, description[start:])

	out := segments[:0]
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseProducts parses every segment of a description into a line item. The
// caller fills in the order id. The currency code comes from the order row and
// anchors price extraction.
func (p *Parser) ParseProducts(description, currency string) []models.LineItem {
	segments := SplitSegments(description)
	items := make([]models.LineItem, 0, len(segments))
	for _, segment := range segments {
		items = append(items, p.parseSegment(segment, currency))
	}
	return items
}

func (p *Parser) parseSegment(segment, currency string) models.LineItem {
	item := models.LineItem{Quality: models.QualityNone}

	nameStart := 0
	if m := quantityExpr.FindStringSubmatch(segment); m != nil {
		item.Quantity, _ = strconv.Atoi(m[1])
		nameStart = len(m[0])
	}

	if loc := setExpr.FindStringSubmatchIndex(segment); loc != nil {
		item.ProductName = strings.TrimSpace(segment[nameStart:loc[0]])
		set := segment[loc[2]:loc[3]]
		item.SetName = strings.TrimSpace(strings.ReplaceAll(set, setNamePrefix, ""))
	}

	if m := qualityExpr.FindStringSubmatch(segment); m != nil {
		item.Quality = models.Quality(m[1])
	}
	if m := languageExpr.FindStringSubmatch(segment); m != nil {
		item.Language = m[1]
	}
	item.Foil = strings.Contains(segment, " - Foil - ")

	if m := p.priceFor(currency).FindStringSubmatch(segment); m != nil {
		normalized := strings.ReplaceAll(m[1], ",", ".")
		price, err := decimal.NewFromString(normalized)
		if err != nil {
			p.logger.Debug("unparsable price", "segment", segment, "value", m[1])
		} else {
			item.UnitPrice = &price
		}
	}

	if item.Quantity > 0 && item.UnitPrice != nil {
		total := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.TotalPrice = &total
	}

	return item
}

func (p *Parser) priceFor(currency string) *regexp.Regexp {
	expr, ok := p.priceExpr[currency]
	if !ok {
		expr = regexp.MustCompile(`- ([\d,.]+) ` + regexp.QuoteMeta(currency))
		p.priceExpr[currency] = expr
	}
	return expr
}
