package service

import (
	"context"
	"errors"

	"oticash/internal/dto"
	"oticash/internal/model"
	"oticash/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RegisterState is the tagged answer to "is a register open right now".
type RegisterState int

const (
	// StateUnknown means both read paths failed; callers should retry.
	StateUnknown RegisterState = iota
	// StateClosed means neither read path reports an open register.
	StateClosed
	// StateOpen means at least one read path reports an open register.
	StateOpen
)

// RegisterStatus pairs the state tag with the register it refers to
// (only set for StateOpen).
type RegisterStatus struct {
	State    RegisterState
	Register *model.CashRegister
}

func (s RegisterStatus) IsOpen() bool { return s.State == StateOpen }

// ReconcileService detects divergence between the two independent "which
// register is open" read paths and repairs it by forcing the stray
// register closed. Divergence is a repairable fault, not an error to
// propagate: repair is best-effort and never blocks a primary flow.
type ReconcileService interface {
	CheckStatus(ctx context.Context) RegisterStatus
	// Repair returns true when the system is consistent afterwards
	// (including "nothing was wrong"), false when the repair itself
	// failed and should be retried.
	Repair(ctx context.Context) bool
}

// systemOperator is the operator id recorded on automatically forced
// closes.
var systemOperator = uuid.Nil

const repairObservation = "closed automatically: register was open in one read path but not the other"

type reconcileService struct {
	repo      repository.RegisterRepository
	registers RegisterService
}

func NewReconcileService(repo repository.RegisterRepository, registers RegisterService) ReconcileService {
	return &reconcileService{repo: repo, registers: registers}
}

// CheckStatus tries the cheap indexed lookup first and only falls back to
// scanning the full listing when it reports nothing — the expensive path
// exists solely to cover the inconsistency window between the two views.
func (s *reconcileService) CheckStatus(ctx context.Context) RegisterStatus {
	reg, err := s.repo.FindOpen(ctx)
	if err == nil {
		return RegisterStatus{State: StateOpen, Register: reg}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Err(err).Msg("reconcile: open-register lookup failed, falling back to listing")
	}

	if reg := s.scanListingForOpen(ctx); reg != nil {
		return RegisterStatus{State: StateOpen, Register: reg}
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return RegisterStatus{State: StateUnknown}
	}
	return RegisterStatus{State: StateClosed}
}

// scanListingForOpen walks the full register listing looking for a row
// still marked open. Returns nil when none is found or the listing fails.
func (s *reconcileService) scanListingForOpen(ctx context.Context) *model.CashRegister {
	filter := dto.RegisterFilter{Page: 1, Limit: 100}
	for {
		regs, total, err := s.repo.List(ctx, filter)
		if err != nil {
			log.Warn().Err(err).Msg("reconcile: register listing failed")
			return nil
		}
		for i := range regs {
			if regs[i].IsOpen() {
				return &regs[i]
			}
		}
		if int64(filter.Page*filter.Limit) >= total || len(regs) == 0 {
			return nil
		}
		filter.Page++
	}
}

// Repair runs CheckStatus and, when a register looks open, verifies it
// through the direct by-id fetch. A register visible as open in one path
// but not the other is forced closed with its last known current balance
// as the closing balance.
func (s *reconcileService) Repair(ctx context.Context) bool {
	status := s.CheckStatus(ctx)
	switch status.State {
	case StateClosed:
		return true
	case StateUnknown:
		return false
	}

	reg := status.Register
	direct, err := s.repo.FindByID(ctx, reg.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Open in one view, gone in the other: nothing left to close.
			log.Warn().Str("register_id", reg.ID.String()).Msg("reconcile: open register no longer exists")
			return true
		}
		return false
	}
	if direct.IsOpen() {
		// Both paths agree; nothing to repair.
		return true
	}

	inconsistency := &InconsistencyError{RegisterID: reg.ID.String()}
	log.Warn().Str("register_id", reg.ID.String()).Msg(inconsistency.Error())
	return s.forceClose(ctx, reg)
}

// forceClose reuses the ordinary close path, so it inherits its atomicity.
// The possibly-stale current balance is kept as the closing balance — the
// repair records what it saw, it does not reconstruct the till count.
func (s *reconcileService) forceClose(ctx context.Context, reg *model.CashRegister) bool {
	obs := repairObservation
	_, err := s.registers.Close(ctx, systemOperator, dto.CloseRegisterRequest{
		CashRegisterID: reg.ID.String(),
		ClosingBalance: reg.CurrentBalance,
		Observations:   &obs,
	})
	if err == nil {
		log.Info().Str("register_id", reg.ID.String()).Msg("reconcile: forced register closed")
		return true
	}

	var invalidState *InvalidStateError
	var notFound *NotFoundError
	if errors.As(err, &invalidState) || errors.As(err, &notFound) {
		// Someone else closed it first; the repair raced and lost, which
		// is still a repaired system.
		return true
	}
	log.Error().Err(err).Str("register_id", reg.ID.String()).Msg("reconcile: forced close failed")
	return false
}
