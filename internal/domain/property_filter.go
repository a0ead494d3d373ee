package domain

import "github.com/shopspring/decimal"

// PropertyFilter holds the raw optional search parameters. A nil field means
// the filter was not supplied, which is distinct from a zero or empty value.
type PropertyFilter struct {
	Address  *string
	Query    *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	MinSize  *float64
	MaxSize  *float64
}
