package model

import "github.com/shopspring/decimal"

// Product is a catalog entry referenced by order items.
type Product struct {
	ID    int64
	Name  string
	Brand string
	SKU   string
	Price decimal.Decimal
}
