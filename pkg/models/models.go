package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quality is the marketplace condition grade of a single card.
type Quality string

const (
	QualityMint        Quality = "MT"
	QualityNearMint    Quality = "NM"
	QualityExcellent   Quality = "EX"
	QualityGood        Quality = "GD"
	QualityLightPlayed Quality = "LP"
	QualityPlayed      Quality = "PL"
	QualityPoor        Quality = "PO"
	// QualityNone applies to products that carry no condition grade, e.g. sleeves.
	QualityNone Quality = "N/A"
)

// OrderRecord is one row of a purchase report CSV, with the product
// description column still unparsed.
type OrderRecord struct {
	OrderID          string
	Username         string
	Name             string
	Street           string
	City             string
	Country          string
	IsProfessional   string
	VATNumber        string
	Purchased        time.Time
	ArticleCount     int
	MerchandiseValue decimal.Decimal
	ShipmentCosts    decimal.Decimal
	TrusteeFee       decimal.Decimal
	TotalValue       decimal.Decimal
	Currency         string
	Description      string
	ProductID        string
	LocalizedName    string
}

// LineItem is one product parsed out of an order's description. A description
// holds one or more "|"-separated segments, so an order expands into one or
// more line items.
type LineItem struct {
	OrderID     string
	Quantity    int // 0 when the segment carried no quantity
	ProductName string
	SetName     string
	UnitPrice   *decimal.Decimal
	TotalPrice  *decimal.Decimal // quantity times unit price, nil when either is missing
	Quality     Quality
	Language    string
	Foil        bool
}
