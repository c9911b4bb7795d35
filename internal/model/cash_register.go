package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Register status values. The partial unique index on cash_registers
// (see infra.applySchemaPatches) guarantees at most one row with
// Status == RegisterOpen at any instant.
const (
	RegisterOpen   = "open"
	RegisterClosed = "closed"
)

// CashRegister represents one bounded session of till custody, from open
// to close. Every payment recorded during the session belongs to it.
// A closed register never reopens; a new one must be opened.
type CashRegister struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"opening_balance"`
	// CurrentBalance is only ever mutated via atomic SQL increments
	// (RegisterRepository.AddToBalance) — never read-modify-write.
	CurrentBalance decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"current_balance"`
	ClosingBalance *decimal.Decimal `gorm:"type:decimal(12,2)" json:"closing_balance,omitempty"`
	Status         string           `gorm:"type:varchar(10);not null;default:'open';index" json:"status"`
	OpenedBy       uuid.UUID        `gorm:"type:uuid;not null" json:"opened_by"`
	ClosedBy       *uuid.UUID       `gorm:"type:uuid" json:"closed_by,omitempty"`
	Observations   *string          `json:"observations,omitempty"`
	OpenedAt       time.Time        `json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`

	Payments []Payment `gorm:"foreignKey:CashRegisterID" json:"-"`
}

// IsOpen reports whether the register can still accept payments.
func (r *CashRegister) IsOpen() bool { return r.Status == RegisterOpen }
