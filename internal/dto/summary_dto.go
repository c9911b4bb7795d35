package dto

import (
	"oticash/internal/model"

	"github.com/shopspring/decimal"
)

// Summary is the point-in-time aggregation of one register's completed
// payments. It is derived, never persisted: the close-time snapshot is
// always re-derivable from the payments table alone.
type Summary struct {
	Register     model.CashRegister `json:"register"`
	Sales        SalesSummary       `json:"sales"`
	DebtPayments DebtSummary        `json:"debt_payments"`
	Expenses     ExpensesSummary    `json:"expenses"`
}

type SalesSummary struct {
	Total    decimal.Decimal            `json:"total"`
	ByMethod map[string]decimal.Decimal `json:"by_method"`
}

type DebtSummary struct {
	Received decimal.Decimal            `json:"received"`
	ByMethod map[string]decimal.Decimal `json:"by_method"`
}

type ExpensesSummary struct {
	Total      decimal.Decimal            `json:"total"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
}
