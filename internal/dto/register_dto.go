package dto

import (
	"time"

	"oticash/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
	Observations   *string         `json:"observations"`
}

type CloseRegisterRequest struct {
	CashRegisterID string          `json:"cash_register_id" validate:"required,uuid"`
	ClosingBalance decimal.Decimal `json:"closing_balance"  validate:"min=0"`
	Observations   *string         `json:"observations"`
}

// RegisterFilter drives the paginated listing. Status narrows to
// open/closed, Search matches observations, the date range brackets
// opened_at.
type RegisterFilter struct {
	Status    string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type RegisterListResponse struct {
	Registers  []model.CashRegister `json:"registers"`
	Pagination Pagination           `json:"pagination"`
}

// CloseRegisterResponse carries the closed register plus the cash
// over/short figure: closing_balance − current_balance at close time.
// The engine stores the declared closing balance as-is and only reports
// the discrepancy; it never reconciles it automatically.
type CloseRegisterResponse struct {
	Register      model.CashRegister `json:"register"`
	Summary       Summary            `json:"summary"`
	CashOverShort decimal.Decimal    `json:"cash_over_short"`
}

// RegisterReportResponse is the live report for one register: the
// snapshot plus its summary as of now.
type RegisterReportResponse struct {
	Register model.CashRegister `json:"register"`
	Summary  Summary            `json:"summary"`
}
