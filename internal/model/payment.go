package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment types. Sales and debt payments add to the register balance,
// expenses subtract from it.
const (
	PaymentSale        = "sale"
	PaymentDebtPayment = "debt_payment"
	PaymentExpense     = "expense"
)

// Payment methods.
const (
	MethodCash   = "cash"
	MethodCredit = "credit"
	MethodDebit  = "debit"
	MethodPix    = "pix"
	MethodCheck  = "check"
)

// Payment statuses. Cancelled payments are kept (soft state) but excluded
// from every aggregate.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment is a single movement against a cash register. A payment belongs
// to exactly one register for its entire life; cancellation flips the
// status and reverses the balance effect, it never deletes the row.
type Payment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CashRegisterID uuid.UUID       `gorm:"type:uuid;not null;index" json:"cash_register_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Type           string          `gorm:"type:varchar(20);not null;index" json:"type"`
	Method         string          `gorm:"type:varchar(10);not null" json:"method"`
	Status         string          `gorm:"type:varchar(10);not null;index" json:"status"`
	// Installment fields are only set for credit payments split into
	// scheduled charges; Total >= 2 when present.
	InstallmentCurrent *int             `gorm:"column:installment_current" json:"installment_current,omitempty"`
	InstallmentTotal   *int             `gorm:"column:installment_total" json:"installment_total,omitempty"`
	InstallmentValue   *decimal.Decimal `gorm:"column:installment_value;type:decimal(12,2)" json:"installment_value,omitempty"`
	Date               time.Time        `gorm:"not null;index" json:"date"`
	Description        string           `json:"description"`
	// Category is only meaningful for expenses (e.g. "supplies", "rent").
	Category  *string   `gorm:"type:varchar(50)" json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BalanceDelta returns the signed effect this payment has on the owning
// register's current balance when completed: positive for sales and debt
// payments, negative for expenses.
func (p *Payment) BalanceDelta() decimal.Decimal {
	if p.Type == PaymentExpense {
		return p.Amount.Neg()
	}
	return p.Amount
}
