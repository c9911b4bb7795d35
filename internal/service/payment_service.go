package service

import (
	"context"
	"errors"
	"time"

	"oticash/internal/dto"
	"oticash/internal/model"
	"oticash/internal/repository"
	"oticash/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentAggregator is the payment-side surface consumed by the register
// state machine (close-time snapshot) and the export service.
type PaymentAggregator interface {
	Summarize(ctx context.Context, cashRegisterID uuid.UUID) (*dto.Summary, error)
}

type PaymentService interface {
	PaymentAggregator
	Record(ctx context.Context, req dto.RecordPaymentRequest) (*model.Payment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	Complete(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	List(ctx context.Context, filter dto.PaymentFilter) (*dto.PaymentListResponse, error)
}

type paymentService struct {
	repo         repository.PaymentRepository
	registerRepo repository.RegisterRepository
	dispatcher   *worker.Dispatcher
}

// NewPaymentService builds the aggregator. dispatcher may be nil (unit
// tests); it is only used for best-effort repair enqueues.
func NewPaymentService(repo repository.PaymentRepository, registerRepo repository.RegisterRepository, dispatcher *worker.Dispatcher) PaymentService {
	return &paymentService{repo: repo, registerRepo: registerRepo, dispatcher: dispatcher}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Record ───────────────────────────────────────────────────────────────────

// Record validates and persists a payment against an open register. When
// the request carries no register id, the currently open register is
// resolved; "none open" is answered with an InvalidStateError and a
// best-effort repair enqueue — the payment flow never blocks on
// reconciliation.
func (s *paymentService) Record(ctx context.Context, req dto.RecordPaymentRequest) (*model.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, newValidationError("amount", "must be > 0")
	}
	if req.Installments != nil {
		if req.Installments.Total < 2 {
			return nil, newValidationError("installments.total", "must be >= 2")
		}
		if req.Installments.Current < 1 || req.Installments.Current > req.Installments.Total {
			return nil, newValidationError("installments.current", "must be between 1 and total")
		}
	}
	if req.Category != nil && req.Type != model.PaymentExpense {
		return nil, newValidationError("category", "only allowed for expenses")
	}

	reg, err := s.resolveRegister(ctx, req.CashRegisterID)
	if err != nil {
		return nil, err
	}
	if !reg.IsOpen() {
		return nil, &InvalidStateError{Msg: "cash register is not open"}
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}
	if date.Before(reg.OpenedAt) {
		return nil, newValidationError("date", "precedes the register opening")
	}

	payment := &model.Payment{
		CashRegisterID: reg.ID,
		Amount:         req.Amount,
		Type:           req.Type,
		Method:         req.Method,
		Status:         req.Status,
		Date:           date,
		Description:    req.Description,
		Category:       req.Category,
	}
	if req.Installments != nil {
		payment.InstallmentCurrent = &req.Installments.Current
		payment.InstallmentTotal = &req.Installments.Total
		payment.InstallmentValue = &req.Installments.Value
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, payment); err != nil {
			return err
		}
		if payment.Status == model.StatusCompleted {
			ok, err := s.registerRepo.AddToBalance(ctx, tx, reg.ID, payment.BalanceDelta())
			if err != nil {
				return err
			}
			if !ok {
				// The register closed between the open check and the
				// balance update; abort the whole insert.
				return &InvalidStateError{Msg: "cash register is not open"}
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return payment, nil
}

// resolveRegister loads the target register: explicit id when given,
// otherwise the currently open one.
func (s *paymentService) resolveRegister(ctx context.Context, id string) (*model.CashRegister, error) {
	if id != "" {
		regID, err := uuid.Parse(id)
		if err != nil {
			return nil, newValidationError("cash_register_id", "invalid uuid")
		}
		reg, err := s.registerRepo.FindByID(ctx, regID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "cash register"}
		}
		return reg, err
	}

	reg, err := s.registerRepo.FindOpen(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.enqueueRepair(ctx)
		return nil, &InvalidStateError{Msg: "no open cash register; open one first"}
	}
	return reg, err
}

// enqueueRepair asks the reconciler to take a look, without ever failing
// the caller: the fast read path saw no open register, but the listing
// might still disagree.
func (s *paymentService) enqueueRepair(ctx context.Context) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.EnqueueRepair(ctx, "payment flow found no open register"); err != nil {
		log.Warn().Err(err).Msg("failed to enqueue reconciliation repair")
	}
}

// ── Cancel ───────────────────────────────────────────────────────────────────

// Cancel marks a payment cancelled and, when it had been completed,
// reverses its effect on the register balance in the same transaction.
// Cancelling an already-cancelled payment is a no-op, not an error.
func (s *paymentService) Cancel(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "payment"}
		}
		return nil, err
	}
	if payment.Status == model.StatusCancelled {
		return payment, nil
	}

	wasCompleted := payment.Status == model.StatusCompleted
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.UpdateStatusIf(ctx, tx, id, payment.Status, model.StatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			// Lost a race with another cancel; treat as already done.
			return nil
		}
		if wasCompleted {
			reversed, err := s.registerRepo.AddToBalance(ctx, tx, payment.CashRegisterID, payment.BalanceDelta().Neg())
			if err != nil {
				return err
			}
			if !reversed {
				// The owning register is closed and immutable.
				return &InvalidStateError{Msg: "cannot cancel a completed payment on a closed register"}
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	payment.Status = model.StatusCancelled
	return payment, nil
}

// ── Complete ─────────────────────────────────────────────────────────────────

// Complete settles a pending payment, applying its balance effect. Only
// pending payments can be completed.
func (s *paymentService) Complete(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "payment"}
		}
		return nil, err
	}
	if payment.Status != model.StatusPending {
		return nil, &InvalidStateError{Msg: "only pending payments can be completed"}
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.UpdateStatusIf(ctx, tx, id, model.StatusPending, model.StatusCompleted)
		if err != nil {
			return err
		}
		if !ok {
			return &InvalidStateError{Msg: "payment is no longer pending"}
		}
		applied, err := s.registerRepo.AddToBalance(ctx, tx, payment.CashRegisterID, payment.BalanceDelta())
		if err != nil {
			return err
		}
		if !applied {
			return &InvalidStateError{Msg: "cash register is not open"}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	payment.Status = model.StatusCompleted
	return payment, nil
}

// ── List ─────────────────────────────────────────────────────────────────────

func (s *paymentService) List(ctx context.Context, filter dto.PaymentFilter) (*dto.PaymentListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.PaymentListResponse{
		Payments:   payments,
		Pagination: dto.Pagination{Page: filter.Page, Limit: filter.Limit, Total: total},
	}, nil
}

// ── Summarize ────────────────────────────────────────────────────────────────

// Summarize folds all completed payments of one register into the
// per-type, per-method aggregates. Pure aggregation over the payments
// table — no side effects, safe to recompute at any time, which is what
// makes the close sequence retryable.
func (s *paymentService) Summarize(ctx context.Context, cashRegisterID uuid.UUID) (*dto.Summary, error) {
	reg, err := s.registerRepo.FindByID(ctx, cashRegisterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "cash register"}
		}
		return nil, err
	}

	sums, err := s.repo.SumByTypeMethod(ctx, cashRegisterID)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.repo.SumExpensesByCategory(ctx, cashRegisterID)
	if err != nil {
		return nil, err
	}

	summary := &dto.Summary{
		Register:     *reg,
		Sales:        dto.SalesSummary{ByMethod: map[string]decimal.Decimal{}},
		DebtPayments: dto.DebtSummary{ByMethod: map[string]decimal.Decimal{}},
		Expenses:     dto.ExpensesSummary{ByCategory: byCategory},
	}
	if summary.Expenses.ByCategory == nil {
		summary.Expenses.ByCategory = map[string]decimal.Decimal{}
	}

	for method, amount := range sums[model.PaymentSale] {
		summary.Sales.ByMethod[method] = amount
		summary.Sales.Total = summary.Sales.Total.Add(amount)
	}
	for method, amount := range sums[model.PaymentDebtPayment] {
		summary.DebtPayments.ByMethod[method] = amount
		summary.DebtPayments.Received = summary.DebtPayments.Received.Add(amount)
	}
	for _, amount := range sums[model.PaymentExpense] {
		summary.Expenses.Total = summary.Expenses.Total.Add(amount)
	}

	return summary, nil
}
