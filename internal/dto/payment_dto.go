package dto

import (
	"time"

	"oticash/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type InstallmentsRequest struct {
	Current int             `json:"current" validate:"min=1"`
	Total   int             `json:"total"   validate:"min=2"`
	Value   decimal.Decimal `json:"value"   validate:"min=0"`
}

type RecordPaymentRequest struct {
	// CashRegisterID may be omitted; the engine then resolves the
	// currently open register.
	CashRegisterID string               `json:"cash_register_id" validate:"omitempty,uuid"`
	Amount         decimal.Decimal      `json:"amount"       validate:"required,gt=0"`
	Type           string               `json:"type"         validate:"required,oneof=sale debt_payment expense"`
	Method         string               `json:"method"       validate:"required,oneof=cash credit debit pix check"`
	Status         string               `json:"status"       validate:"required,oneof=pending completed"`
	Installments   *InstallmentsRequest `json:"installments" validate:"omitempty"`
	Date           *time.Time           `json:"date"`
	Description    string               `json:"description"  validate:"max=500"`
	Category       *string              `json:"category"`
}

// PaymentFilter drives the paginated payment listing.
type PaymentFilter struct {
	CashRegisterID string
	Type           string
	Status         string
	Page           int
	Limit          int
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PaymentListResponse struct {
	Payments   []model.Payment `json:"payments"`
	Pagination Pagination      `json:"pagination"`
}
