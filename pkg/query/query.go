package query

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/marwy1000/mkmsearch/pkg/csv"
	"github.com/marwy1000/mkmsearch/pkg/models"
	"github.com/marwy1000/mkmsearch/pkg/parser"
)

// ErrUnknownColumn means a sort or display column is not part of the loaded
// schema. Unlike per-row parse failures this aborts the query.
var ErrUnknownColumn = errors.New("unknown column")

// Long text columns are clipped to this width for display.
const truncateWidth = 35

var truncatedColumns = []string{ColProductName, ColSetName}

// Row is one product line item joined with its order's passthrough columns.
type Row map[string]any

// Request describes one search invocation.
type Request struct {
	Filters        []Filter
	SortBy         string
	Ascending      bool
	DisplayColumns string
	Limit          int
}

// Result is a display-ready table. Limited reports that the row count was
// clipped to the requested limit.
type Result struct {
	Columns []string
	Rows    [][]any
	Limited bool
	Limit   int
}

// Engine loads the report directory fresh on every invocation and never
// caches across runs.
type Engine struct {
	dir    string
	loader *csv.Loader
	parser *parser.Parser
	logger *log.Logger
}

func NewEngine(dir string, logger *log.Logger) *Engine {
	return &Engine{
		dir:    dir,
		loader: csv.NewLoader(logger),
		parser: parser.New(logger),
		logger: logger,
	}
}

// Run loads all orders, expands them into line-item rows, then filters,
// sorts, projects, truncates and limits.
func (e *Engine) Run(req Request) (*Result, error) {
	orders, err := e.loader.LoadDir(e.dir)
	if err != nil {
		return nil, err
	}
	rows := expandOrders(orders, e.parser)

	for _, f := range req.Filters {
		if rows, err = applyFilter(rows, f); err != nil {
			return nil, err
		}
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = DefaultSortColumn
	}
	if !knownColumn(sortBy) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, sortBy)
	}
	sortRows(rows, sortBy, req.Ascending)

	columns, err := e.projection(req)
	if err != nil {
		return nil, err
	}

	limited := req.Limit > 0 && len(rows) > req.Limit
	if limited {
		rows = rows[:req.Limit]
	}

	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, len(columns))
		for i, col := range columns {
			cells[i] = truncateCell(col, row[col])
		}
		out = append(out, cells)
	}

	return &Result{Columns: columns, Rows: out, Limited: limited, Limit: req.Limit}, nil
}

// projection resolves the display spec and prepends any actively filtered
// column that is not already shown.
func (e *Engine) projection(req Request) ([]string, error) {
	spec := req.DisplayColumns
	if spec == "" {
		spec = DefaultDisplayColumns
	}
	columns := resolveDisplayColumns(spec)

	for _, f := range req.Filters {
		found := false
		for _, c := range columns {
			if c == f.Column {
				found = true
				break
			}
		}
		if !found {
			columns = append([]string{f.Column}, columns...)
		}
	}

	for _, c := range columns {
		if !knownColumn(c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	return columns, nil
}

func knownColumn(name string) bool {
	for _, c := range allColumns {
		if c == name {
			return true
		}
	}
	return false
}

// expandOrders derives line items per order and joins them back to the
// order's passthrough columns. Orders repeated across overlapping report
// files are intentionally not deduplicated.
func expandOrders(orders []models.OrderRecord, p *parser.Parser) []Row {
	var rows []Row
	for _, order := range orders {
		for _, item := range p.ParseProducts(order.Description, order.Currency) {
			item.OrderID = order.OrderID
			rows = append(rows, joinRow(order, item))
		}
	}
	return rows
}

func joinRow(order models.OrderRecord, item models.LineItem) Row {
	row := Row{
		ColOrderID:          order.OrderID,
		ColUsername:         order.Username,
		ColName:             order.Name,
		ColStreet:           order.Street,
		ColCity:             order.City,
		ColCountry:          order.Country,
		ColProfessional:     order.IsProfessional,
		ColVATNumber:        order.VATNumber,
		ColPurchased:        order.Purchased,
		ColArticleCount:     order.ArticleCount,
		ColMerchandiseValue: order.MerchandiseValue,
		ColShipmentCosts:    order.ShipmentCosts,
		ColTrusteeFee:       order.TrusteeFee,
		ColTotalValue:       order.TotalValue,
		ColCurrency:         order.Currency,
		ColDescription:      order.Description,
		ColProductID:        order.ProductID,
		ColLocalizedName:    order.LocalizedName,

		ColQty:         item.Quantity,
		ColProductName: item.ProductName,
		ColSetName:     item.SetName,
		ColQuality:     string(item.Quality),
		ColLang:        item.Language,
		ColFoil:        item.Foil,
	}
	if item.UnitPrice != nil {
		row[ColPrice] = *item.UnitPrice
	}
	if item.TotalPrice != nil {
		row[ColSum] = *item.TotalPrice
	}
	return row
}

func sortRows(rows []Row, column string, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if ascending {
			return lessCell(rows[i][column], rows[j][column])
		}
		return lessCell(rows[j][column], rows[i][column])
	})
}

// lessCell orders cells of the same column; missing values sort first.
func lessCell(a, b any) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return av < bv
	case int:
		bv, _ := b.(int)
		return av < bv
	case bool:
		bv, _ := b.(bool)
		return !av && bv
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Before(bv)
	case decimal.Decimal:
		bv, _ := b.(decimal.Decimal)
		return av.LessThan(bv)
	default:
		return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
	}
}

func truncateCell(column string, cell any) any {
	for _, c := range truncatedColumns {
		if c != column {
			continue
		}
		if s, ok := cell.(string); ok && len(s) > truncateWidth {
			return s[:truncateWidth-1] + "-"
		}
	}
	return cell
}
