package main

import (
	"github.com/marwy1000/mkmsearch/pkg/query"
)

type searchOptions struct {
	productName    string
	setName        string
	userName       string
	dateOfPurchase string
	foil           bool
	sortBy         string
	ascending      bool
	displayColumns string
	limit          int
}

// toRequest keeps the filter order stable: date first, then foil, user, set
// and product. The engine prepends filtered columns to the display set in the
// same order.
func (o *searchOptions) toRequest() query.Request {
	var filters []query.Filter
	if o.dateOfPurchase != "" {
		filters = append(filters, query.Filter{Column: query.ColPurchased, Value: o.dateOfPurchase})
	}
	if o.foil {
		filters = append(filters, query.Filter{Column: query.ColFoil, Value: true})
	}
	if o.userName != "" {
		filters = append(filters, query.Filter{Column: query.ColUsername, Value: o.userName})
	}
	if o.setName != "" {
		filters = append(filters, query.Filter{Column: query.ColSetName, Value: o.setName})
	}
	if o.productName != "" {
		filters = append(filters, query.Filter{Column: query.ColProductName, Value: o.productName})
	}

	return query.Request{
		Filters:        filters,
		SortBy:         o.sortBy,
		Ascending:      o.ascending,
		DisplayColumns: o.displayColumns,
		Limit:          o.limit,
	}
}
