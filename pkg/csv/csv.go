package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/marwy1000/mkmsearch/pkg/models"
)

// The export carries a fixed 18-column layout; its header row is discarded and
// columns are taken positionally.
const columnCount = 18

var purchasedLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Loader reads downloaded purchase report files into order records.
type Loader struct {
	logger *log.Logger
}

func NewLoader(logger *log.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadDir merges every *.csv file in the report directory. A file that cannot
// be read is skipped with a warning; the rest of the directory still loads.
func (l *Loader) LoadDir(dir string) ([]models.OrderRecord, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}

	var orders []models.OrderRecord
	for _, path := range matches {
		fileOrders, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("skipping report file", "file", path, "error", err)
			continue
		}
		orders = append(orders, fileOrders...)
	}
	return orders, nil
}

func (l *Loader) loadFile(path string) ([]models.OrderRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	var orders []models.OrderRecord
	header := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		if len(row) < columnCount {
			l.logger.Warn("skipping short row", "file", path, "columns", len(row))
			continue
		}
		orders = append(orders, l.orderFromRow(row))
	}
	return orders, nil
}

func (l *Loader) orderFromRow(row []string) models.OrderRecord {
	order := models.OrderRecord{
		OrderID:          strings.TrimSpace(row[0]),
		Username:         strings.TrimSpace(row[1]),
		Name:             strings.TrimSpace(row[2]),
		Street:           strings.TrimSpace(row[3]),
		City:             strings.TrimSpace(row[4]),
		Country:          strings.TrimSpace(row[5]),
		IsProfessional:   strings.TrimSpace(row[6]),
		VATNumber:        strings.TrimSpace(row[7]),
		Currency:         strings.TrimSpace(row[14]),
		Description:      strings.TrimSpace(row[15]),
		ProductID:        strings.TrimSpace(row[16]),
		LocalizedName:    strings.TrimSpace(row[17]),
		MerchandiseValue: parseMoney(row[10]),
		ShipmentCosts:    parseMoney(row[11]),
		TrusteeFee:       parseMoney(row[12]),
		TotalValue:       parseMoney(row[13]),
	}

	order.ArticleCount, _ = strconv.Atoi(strings.TrimSpace(row[9]))

	purchased, err := parsePurchased(row[8])
	if err != nil {
		l.logger.Warn("unparsable purchase date", "order", order.OrderID, "value", row[8])
	}
	order.Purchased = purchased

	return order
}

func parsePurchased(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var err error
	for _, layout := range purchasedLayouts {
		var t time.Time
		if t, err = time.Parse(layout, value); err == nil {
			// Only the day matters for filtering and display.
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, err
}

func parseMoney(value string) decimal.Decimal {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}
