package repository

import (
	"context"

	"oticash/internal/dto"
	"oticash/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	List(ctx context.Context, filter dto.PaymentFilter) ([]model.Payment, int64, error)
	// UpdateStatusIf flips status only when the current status matches
	// `from`. Returns false when no row matched, which covers both a
	// missing payment and a lost status race.
	UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) (bool, error)
	// SumByTypeMethod aggregates completed payments for one register:
	// result[type][method] = SUM(amount).
	SumByTypeMethod(ctx context.Context, cashRegisterID uuid.UUID) (map[string]map[string]decimal.Decimal, error)
	// SumExpensesByCategory aggregates completed expenses by category.
	// Uncategorized expenses land under "other".
	SumExpensesByCategory(ctx context.Context, cashRegisterID uuid.UUID) (map[string]decimal.Decimal, error)
	DB() *gorm.DB
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) DB() *gorm.DB { return r.db }

func (r *paymentRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Payment) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Create(p).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) List(ctx context.Context, filter dto.PaymentFilter) ([]model.Payment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Payment{})

	if filter.CashRegisterID != "" {
		q = q.Where("cash_register_id = ?", filter.CashRegisterID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []model.Payment
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("date DESC").Offset(offset).Limit(filter.Limit).Find(&payments).Error
	return payments, total, err
}

func (r *paymentRepo) UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) (bool, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	res := db.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

type typeMethodSum struct {
	Type   string
	Method string
	Total  decimal.Decimal
}

func (r *paymentRepo) SumByTypeMethod(ctx context.Context, cashRegisterID uuid.UUID) (map[string]map[string]decimal.Decimal, error) {
	var rows []typeMethodSum
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Select("type, method, COALESCE(SUM(amount), 0) AS total").
		Where("cash_register_id = ? AND status = ?", cashRegisterID, model.StatusCompleted).
		Group("type, method").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[string]map[string]decimal.Decimal)
	for _, row := range rows {
		if sums[row.Type] == nil {
			sums[row.Type] = make(map[string]decimal.Decimal)
		}
		sums[row.Type][row.Method] = row.Total
	}
	return sums, nil
}

type categorySum struct {
	Category *string
	Total    decimal.Decimal
}

func (r *paymentRepo) SumExpensesByCategory(ctx context.Context, cashRegisterID uuid.UUID) (map[string]decimal.Decimal, error) {
	var rows []categorySum
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("cash_register_id = ? AND status = ? AND type = ?", cashRegisterID, model.StatusCompleted, model.PaymentExpense).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal)
	for _, row := range rows {
		cat := "other"
		if row.Category != nil && *row.Category != "" {
			cat = *row.Category
		}
		sums[cat] = sums[cat].Add(row.Total)
	}
	return sums, nil
}
