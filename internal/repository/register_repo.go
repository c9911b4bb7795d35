package repository

import (
	"context"
	"time"

	"oticash/internal/dto"
	"oticash/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RegisterRepository interface {
	// Create inserts a new register. The partial unique index on
	// status = 'open' makes the insert the atomic check-then-act for the
	// single-open-register rule: a second concurrent open fails with
	// gorm.ErrDuplicatedKey instead of both succeeding.
	Create(ctx context.Context, r *model.CashRegister) error
	// FindOpen is the cheap, indexed "current register" read path.
	FindOpen(ctx context.Context) (*model.CashRegister, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
	// List is the full-scan read path; with Status="open" it answers the
	// same question as FindOpen, which is exactly the duplication the
	// reconciler exists to arbitrate.
	List(ctx context.Context, filter dto.RegisterFilter) ([]model.CashRegister, int64, error)
	// AddToBalance applies a signed delta to current_balance as a single
	// SQL increment guarded by status = 'open'. Returns false when no row
	// matched (register closed or gone) — callers must roll back.
	AddToBalance(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (bool, error)
	// CloseIfOpen flips status, closing balance and close metadata in one
	// conditional UPDATE. Returns false when the register was not open.
	CloseIfOpen(ctx context.Context, id uuid.UUID, closingBalance decimal.Decimal, closedBy uuid.UUID, observations *string, closedAt time.Time) (bool, error)
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type registerRepo struct{ db *gorm.DB }

func NewRegisterRepository(db *gorm.DB) RegisterRepository { return &registerRepo{db: db} }

func (r *registerRepo) DB() *gorm.DB { return r.db }

func (r *registerRepo) Create(ctx context.Context, reg *model.CashRegister) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *registerRepo) FindOpen(ctx context.Context) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).Where("status = ?", model.RegisterOpen).First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).First(&reg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registerRepo) List(ctx context.Context, filter dto.RegisterFilter) ([]model.CashRegister, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.CashRegister{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		q = q.Where("observations ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.StartDate != nil {
		q = q.Where("opened_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("opened_at <= ?", *filter.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var regs []model.CashRegister
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("opened_at DESC").Offset(offset).Limit(filter.Limit).Find(&regs).Error
	return regs, total, err
}

func (r *registerRepo) AddToBalance(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) (bool, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	res := db.WithContext(ctx).Model(&model.CashRegister{}).
		Where("id = ? AND status = ?", id, model.RegisterOpen).
		Update("current_balance", gorm.Expr("current_balance + ?", delta))
	return res.RowsAffected > 0, res.Error
}

func (r *registerRepo) CloseIfOpen(ctx context.Context, id uuid.UUID, closingBalance decimal.Decimal, closedBy uuid.UUID, observations *string, closedAt time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":          model.RegisterClosed,
		"closing_balance": closingBalance,
		"closed_by":       closedBy,
		"closed_at":       closedAt,
	}
	if observations != nil {
		updates["observations"] = *observations
	}
	res := r.db.WithContext(ctx).Model(&model.CashRegister{}).
		Where("id = ? AND status = ?", id, model.RegisterOpen).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}
