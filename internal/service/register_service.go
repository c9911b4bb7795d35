package service

import (
	"context"
	"errors"
	"time"

	"oticash/internal/dto"
	"oticash/internal/model"
	"oticash/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegisterService interface {
	Open(ctx context.Context, openedBy uuid.UUID, req dto.OpenRegisterRequest) (*model.CashRegister, error)
	// GetCurrent returns the single open register, or ErrNoOpenRegister
	// when none is open. The sentinel is a normal outcome, not a failure.
	GetCurrent(ctx context.Context) (*model.CashRegister, error)
	Close(ctx context.Context, closedBy uuid.UUID, req dto.CloseRegisterRequest) (*dto.CloseRegisterResponse, error)
	List(ctx context.Context, filter dto.RegisterFilter) (*dto.RegisterListResponse, error)
	GetReport(ctx context.Context, id uuid.UUID) (*dto.RegisterReportResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
}

type registerService struct {
	repo       repository.RegisterRepository
	aggregator PaymentAggregator
}

func NewRegisterService(repo repository.RegisterRepository, aggregator PaymentAggregator) RegisterService {
	return &registerService{repo: repo, aggregator: aggregator}
}

// ── Open ─────────────────────────────────────────────────────────────────────

// Open creates a new register in the open state. The single-open-register
// rule is enforced by the partial unique index, not by a read-then-write
// check: two concurrent opens race on the insert and exactly one wins.
func (s *registerService) Open(ctx context.Context, openedBy uuid.UUID, req dto.OpenRegisterRequest) (*model.CashRegister, error) {
	if req.OpeningBalance.IsNegative() {
		return nil, newValidationError("opening_balance", "must be >= 0")
	}

	reg := &model.CashRegister{
		OpeningBalance: req.OpeningBalance,
		CurrentBalance: req.OpeningBalance,
		Status:         model.RegisterOpen,
		OpenedBy:       openedBy,
		Observations:   req.Observations,
		OpenedAt:       time.Now(),
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConflictError{Msg: "a cash register is already open; close it before opening a new one"}
		}
		return nil, err
	}
	return reg, nil
}

// ── GetCurrent ───────────────────────────────────────────────────────────────

func (s *registerService) GetCurrent(ctx context.Context) (*model.CashRegister, error) {
	reg, err := s.repo.FindOpen(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenRegister
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// ── Close ────────────────────────────────────────────────────────────────────

// Close computes the final summary, then flips the register to closed in a
// single conditional UPDATE. The summary is pure aggregation over the
// payments table, so a crash between the two steps leaves the register
// open and the whole call safe to retry with the same arguments.
func (s *registerService) Close(ctx context.Context, closedBy uuid.UUID, req dto.CloseRegisterRequest) (*dto.CloseRegisterResponse, error) {
	if req.ClosingBalance.IsNegative() {
		return nil, newValidationError("closing_balance", "must be >= 0")
	}
	id, err := uuid.Parse(req.CashRegisterID)
	if err != nil {
		return nil, newValidationError("cash_register_id", "invalid uuid")
	}

	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "cash register"}
		}
		return nil, err
	}
	if !reg.IsOpen() {
		return nil, &InvalidStateError{Msg: "cash register is already closed"}
	}

	summary, err := s.aggregator.Summarize(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	closed, err := s.repo.CloseIfOpen(ctx, id, req.ClosingBalance, closedBy, req.Observations, now)
	if err != nil {
		return nil, err
	}
	if !closed {
		// Lost the race with a concurrent close.
		return nil, &InvalidStateError{Msg: "cash register is already closed"}
	}

	// The closing balance is stored as declared; the over/short figure is
	// reported to the caller, never reconciled automatically.
	overShort := req.ClosingBalance.Sub(reg.CurrentBalance)

	reg.Status = model.RegisterClosed
	reg.ClosingBalance = &req.ClosingBalance
	reg.ClosedBy = &closedBy
	reg.ClosedAt = &now
	if req.Observations != nil {
		reg.Observations = req.Observations
	}
	summary.Register = *reg

	return &dto.CloseRegisterResponse{
		Register:      *reg,
		Summary:       *summary,
		CashOverShort: overShort,
	}, nil
}

// ── List ─────────────────────────────────────────────────────────────────────

func (s *registerService) List(ctx context.Context, filter dto.RegisterFilter) (*dto.RegisterListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	regs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.RegisterListResponse{
		Registers:  regs,
		Pagination: dto.Pagination{Page: filter.Page, Limit: filter.Limit, Total: total},
	}, nil
}

// ── GetReport ────────────────────────────────────────────────────────────────

func (s *registerService) GetReport(ctx context.Context, id uuid.UUID) (*dto.RegisterReportResponse, error) {
	reg, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.aggregator.Summarize(ctx, id)
	if err != nil {
		return nil, err
	}
	summary.Register = *reg
	return &dto.RegisterReportResponse{Register: *reg, Summary: *summary}, nil
}

func (s *registerService) GetByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "cash register"}
		}
		return nil, err
	}
	return reg, nil
}
