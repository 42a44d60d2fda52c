package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenRegisterRequest struct {
	EmployeeID    string          `json:"employee_id"    validate:"omitempty,uuid"`
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
}

type CloseRegisterRequest struct {
	EmployeeID    string          `json:"employee_id"    validate:"omitempty,uuid"`
	ClosingAmount decimal.Decimal `json:"closing_amount" validate:"min=0"`
	Note          *string         `json:"note"           validate:"omitempty,max=500"`
}

type RegisterSaleRequest struct {
	OrderID       string          `json:"order_id"       validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"         validate:"min=0"`
	PaymentMethod string          `json:"payment_method" validate:"max=40"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleEntryResponse struct {
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Timestamp     string          `json:"timestamp"`
}

type CashRegisterResponse struct {
	ID            string              `json:"id"`
	Status        string              `json:"status"`
	OpenedBy      string              `json:"opened_by"`
	OpenedAt      string              `json:"opened_at"`
	ClosedBy      *string             `json:"closed_by"`
	ClosedAt      *string             `json:"closed_at"`
	OpeningAmount decimal.Decimal     `json:"opening_amount"`
	ClosingAmount *decimal.Decimal    `json:"closing_amount"`
	ClosingNote   *string             `json:"closing_note"`
	TotalSales    decimal.Decimal     `json:"total_sales"`
	TotalCash     decimal.Decimal     `json:"total_cash"`
	TotalCard     decimal.Decimal     `json:"total_card"`
	TotalPix      decimal.Decimal     `json:"total_pix"`
	SalesLog      []SaleEntryResponse `json:"sales_log"`
}

// RegisterReportResponse is the closing summary of a register.
// Difference is only set once the register is closed.
type RegisterReportResponse struct {
	RegisterID    string           `json:"register_id"`
	Status        string           `json:"status"`
	OpenedBy      string           `json:"opened_by"`
	OpenedAt      string           `json:"opened_at"`
	ClosedAt      *string          `json:"closed_at"`
	OpeningAmount decimal.Decimal  `json:"opening_amount"`
	SalesCount    int              `json:"sales_count"`
	TotalSales    decimal.Decimal  `json:"total_sales"`
	TotalCash     decimal.Decimal  `json:"total_cash"`
	TotalCard     decimal.Decimal  `json:"total_card"`
	TotalPix      decimal.Decimal  `json:"total_pix"`
	ExpectedCash  decimal.Decimal  `json:"expected_cash"`
	ClosingAmount *decimal.Decimal `json:"closing_amount"`
	Difference    *decimal.Decimal `json:"difference"`
	ClosingNote   *string          `json:"closing_note"`
}
