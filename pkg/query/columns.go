package query

import "strings"

// Column names, matching the normalized report schema.
const (
	ColOrderID          = "OrderID"
	ColUsername         = "Username"
	ColName             = "Name"
	ColStreet           = "Street"
	ColCity             = "City"
	ColCountry          = "Country"
	ColProfessional     = "Is Professional"
	ColVATNumber        = "VAT Number"
	ColPurchased        = "Purchased"
	ColArticleCount     = "Article Count"
	ColMerchandiseValue = "Merchandise Value"
	ColShipmentCosts    = "Shipment Costs"
	ColTrusteeFee       = "Trustee service fee"
	ColTotalValue       = "Total Value"
	ColCurrency         = "Currency"
	ColDescription      = "Description"
	ColProductID        = "Product ID"
	ColLocalizedName    = "Localized Product Name"

	ColQty         = "Qty"
	ColProductName = "Product Name"
	ColSetName     = "Set Name"
	ColPrice       = "Price"
	ColQuality     = "Quality"
	ColFoil        = "Foil"
	ColLang        = "Lang"
	ColSum         = "Sum"
)

// DefaultDisplayColumns is the column set shown when the user picks nothing.
var DefaultDisplayColumns = strings.Join([]string{
	ColSetName, ColProductName, ColQty, ColSum, ColPrice, ColPurchased,
}, ",")

// DefaultSortColumn is used when no sort key is given.
const DefaultSortColumn = ColProductName

var allColumns = []string{
	ColQty, ColProductName, ColSetName, ColPrice, ColQuality, ColFoil, ColLang, ColSum,
	ColOrderID, ColUsername, ColName, ColStreet, ColCity, ColCountry,
	ColProfessional, ColVATNumber, ColPurchased, ColArticleCount,
	ColMerchandiseValue, ColShipmentCosts, ColTrusteeFee, ColTotalValue,
	ColCurrency, ColDescription, ColProductID, ColLocalizedName,
}

// Display presets, selectable by number or name.
var presets = map[string][]string{
	"1": {ColProductName, ColQty, ColQuality, ColFoil},
	"2": {ColProductName, ColSetName, ColQty, ColQuality, ColLang, ColFoil, ColPrice, ColPurchased},
	"3": {ColProductName, ColSetName, ColQty, ColSum, ColPrice, ColPurchased, ColUsername, ColOrderID},
	"4": {ColSetName, ColProductName, ColUsername, ColOrderID, ColQty, ColSum, ColPrice, ColPurchased},
	"5": {ColUsername, ColOrderID, ColShipmentCosts, ColSum, ColPrice, ColPurchased},
}

var presetAliases = map[string]string{
	"limited":  "1",
	"standard": "2",
	"extended": "3",
	"modern":   "4",
	"legacy":   "5",
}

// resolveDisplayColumns expands a preset number or name, or splits a custom
// comma-separated list.
func resolveDisplayColumns(spec string) []string {
	if key, ok := presetAliases[strings.ToLower(strings.TrimSpace(spec))]; ok {
		spec = key
	}
	if cols, ok := presets[strings.TrimSpace(spec)]; ok {
		return append([]string(nil), cols...)
	}

	var cols []string
	for _, c := range strings.Split(spec, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}
