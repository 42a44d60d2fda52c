package dto

import "github.com/shopspring/decimal"

// ProductResponse is the read-only catalogue view used by order screens.
type ProductResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Active   bool            `json:"active"`
}
