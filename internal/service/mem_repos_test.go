package service

import (
	"context"
	"sync"
	"time"

	"oticash/internal/dto"
	"oticash/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Full in-memory RegisterRepository ────────────────────────────────────────

// memRegisterRepo backs the service tests. The stale* knobs simulate the
// read divergence the reconciler exists to repair: a dedicated open-row
// lookup and a full listing that momentarily disagree.
type memRegisterRepo struct {
	mu        sync.Mutex
	registers map[uuid.UUID]*model.CashRegister

	// hideFromFindOpen makes the dedicated lookup miss open rows.
	hideFromFindOpen bool
	// staleListEntries are extra rows the listing still reports.
	staleListEntries []model.CashRegister
	// staleDirectReads makes the next N by-id fetches of an open row
	// report it closed (lagged single-record read).
	staleDirectReads int

	findOpenCalls int
	listCalls     int
}

func newMemRegisterRepo() *memRegisterRepo {
	return &memRegisterRepo{registers: make(map[uuid.UUID]*model.CashRegister)}
}

func (r *memRegisterRepo) DB() *gorm.DB { return nil }

func (r *memRegisterRepo) Create(_ context.Context, reg *model.CashRegister) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.registers {
		if existing.Status == model.RegisterOpen {
			return gorm.ErrDuplicatedKey
		}
	}
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	stored := *reg
	r.registers[reg.ID] = &stored
	return nil
}

func (r *memRegisterRepo) FindOpen(_ context.Context) (*model.CashRegister, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findOpenCalls++
	if r.hideFromFindOpen {
		return nil, gorm.ErrRecordNotFound
	}
	for _, reg := range r.registers {
		if reg.Status == model.RegisterOpen {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRegisterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *reg
	if r.staleDirectReads > 0 && copied.Status == model.RegisterOpen {
		r.staleDirectReads--
		copied.Status = model.RegisterClosed
	}
	return &copied, nil
}

func (r *memRegisterRepo) List(_ context.Context, filter dto.RegisterFilter) ([]model.CashRegister, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++

	var all []model.CashRegister
	for _, reg := range r.registers {
		all = append(all, *reg)
	}
	all = append(all, r.staleListEntries...)

	var matched []model.CashRegister
	for _, reg := range all {
		if filter.Status != "" && reg.Status != filter.Status {
			continue
		}
		matched = append(matched, reg)
	}

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memRegisterRepo) AddToBalance(_ context.Context, _ *gorm.DB, id uuid.UUID, delta decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registers[id]
	if !ok || reg.Status != model.RegisterOpen {
		return false, nil
	}
	reg.CurrentBalance = reg.CurrentBalance.Add(delta)
	return true, nil
}

func (r *memRegisterRepo) CloseIfOpen(_ context.Context, id uuid.UUID, closingBalance decimal.Decimal, closedBy uuid.UUID, observations *string, closedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registers[id]
	if !ok || reg.Status != model.RegisterOpen {
		return false, nil
	}
	reg.Status = model.RegisterClosed
	reg.ClosingBalance = &closingBalance
	reg.ClosedBy = &closedBy
	reg.ClosedAt = &closedAt
	if observations != nil {
		reg.Observations = observations
	}
	return true, nil
}

// current returns the stored register for direct inspection in asserts.
func (r *memRegisterRepo) current(id uuid.UUID) *model.CashRegister {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registers[id]
}

// ── Full in-memory PaymentRepository ─────────────────────────────────────────

type memPaymentRepo struct {
	mu       sync.Mutex
	payments []*model.Payment
}

func newMemPaymentRepo() *memPaymentRepo { return &memPaymentRepo{} }

func (r *memPaymentRepo) DB() *gorm.DB { return nil }

func (r *memPaymentRepo) Create(_ context.Context, _ *gorm.DB, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	stored := *p
	r.payments = append(r.payments, &stored)
	return nil
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memPaymentRepo) List(_ context.Context, filter dto.PaymentFilter) ([]model.Payment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []model.Payment
	for _, p := range r.payments {
		if filter.CashRegisterID != "" && p.CashRegisterID.String() != filter.CashRegisterID {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		matched = append(matched, *p)
	}
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memPaymentRepo) UpdateStatusIf(_ context.Context, _ *gorm.DB, id uuid.UUID, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id && p.Status == from {
			p.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *memPaymentRepo) SumByTypeMethod(_ context.Context, cashRegisterID uuid.UUID) (map[string]map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[string]map[string]decimal.Decimal)
	for _, p := range r.payments {
		if p.CashRegisterID != cashRegisterID || p.Status != model.StatusCompleted {
			continue
		}
		if sums[p.Type] == nil {
			sums[p.Type] = make(map[string]decimal.Decimal)
		}
		sums[p.Type][p.Method] = sums[p.Type][p.Method].Add(p.Amount)
	}
	return sums, nil
}

func (r *memPaymentRepo) SumExpensesByCategory(_ context.Context, cashRegisterID uuid.UUID) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[string]decimal.Decimal)
	for _, p := range r.payments {
		if p.CashRegisterID != cashRegisterID || p.Status != model.StatusCompleted || p.Type != model.PaymentExpense {
			continue
		}
		cat := "other"
		if p.Category != nil && *p.Category != "" {
			cat = *p.Category
		}
		sums[cat] = sums[cat].Add(p.Amount)
	}
	return sums, nil
}
