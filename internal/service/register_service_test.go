package service

import (
	"context"
	"errors"
	"testing"

	"oticash/internal/dto"
	"oticash/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() (*memRegisterRepo, *memPaymentRepo, RegisterService, PaymentService) {
	regRepo := newMemRegisterRepo()
	payRepo := newMemPaymentRepo()
	paymentSvc := NewPaymentService(payRepo, regRepo, nil)
	registerSvc := NewRegisterService(regRepo, paymentSvc)
	return regRepo, payRepo, registerSvc, paymentSvc
}

func openTestRegister(t *testing.T, svc RegisterService, balance int64) *model.CashRegister {
	t.Helper()
	reg, err := svc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromInt(balance),
	})
	require.NoError(t, err)
	return reg
}

func TestOpenRegister(t *testing.T) {
	_, _, registerSvc, _ := newTestEngine()

	reg := openTestRegister(t, registerSvc, 100)

	assert.Equal(t, model.RegisterOpen, reg.Status)
	assert.True(t, reg.CurrentBalance.Equal(decimal.NewFromInt(100)))
	assert.True(t, reg.OpeningBalance.Equal(decimal.NewFromInt(100)))
	assert.NotEqual(t, uuid.Nil, reg.ID)
}

func TestOpenRegisterConflict(t *testing.T) {
	_, _, registerSvc, _ := newTestEngine()

	openTestRegister(t, registerSvc, 100)

	_, err := registerSvc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromInt(50),
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestOpenRegisterNegativeBalance(t *testing.T) {
	_, _, registerSvc, _ := newTestEngine()

	_, err := registerSvc.Open(context.Background(), uuid.New(), dto.OpenRegisterRequest{
		OpeningBalance: decimal.NewFromInt(-1),
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "opening_balance")
}

func TestGetCurrentNoOpenRegister(t *testing.T) {
	_, _, registerSvc, _ := newTestEngine()

	_, err := registerSvc.GetCurrent(context.Background())
	require.ErrorIs(t, err, ErrNoOpenRegister)
}

func TestGetCurrentReturnsOpenRegister(t *testing.T) {
	_, _, registerSvc, _ := newTestEngine()

	opened := openTestRegister(t, registerSvc, 100)

	current, err := registerSvc.GetCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, opened.ID, current.ID)
}

func TestCloseStoresDeclaredBalanceAndReportsOverShort(t *testing.T) {
	regRepo, _, registerSvc, paymentSvc := newTestEngine()

	reg := openTestRegister(t, registerSvc, 100)
	_, err := paymentSvc.Record(context.Background(), dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(80),
		Type:   model.PaymentSale,
		Method: model.MethodCash,
		Status: model.StatusCompleted,
	})
	require.NoError(t, err)

	// Current balance is 180; the operator declares 200. The declared
	// value is stored as-is and the discrepancy only reported.
	resp, err := registerSvc.Close(context.Background(), uuid.New(), dto.CloseRegisterRequest{
		CashRegisterID: reg.ID.String(),
		ClosingBalance: decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	assert.Equal(t, model.RegisterClosed, resp.Register.Status)
	require.NotNil(t, resp.Register.ClosingBalance)
	assert.True(t, resp.Register.ClosingBalance.Equal(decimal.NewFromInt(200)))
	assert.True(t, resp.CashOverShort.Equal(decimal.NewFromInt(20)))
	assert.True(t, resp.Summary.Sales.Total.Equal(decimal.NewFromInt(80)))

	stored := regRepo.current(reg.ID)
	assert.Equal(t, model.RegisterClosed, stored.Status)
	assert.True(t, stored.ClosingBalance.Equal(decimal.NewFromInt(200)))
}

func TestCloseAlreadyClosed(t *testing.T) {
	_, _, registerSvc, _ := newTestEngine()

	reg := openTestRegister(t, registerSvc, 100)
	req := dto.CloseRegisterRequest{
		CashRegisterID: reg.ID.String(),
		ClosingBalance: decimal.NewFromInt(100),
	}
	_, err := registerSvc.Close(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	_, err = registerSvc.Close(context.Background(), uuid.New(), req)
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
}

func TestCloseUnknownRegister(t *testing.T) {
	_, _, registerSvc, _ := newTestEngine()

	_, err := registerSvc.Close(context.Background(), uuid.New(), dto.CloseRegisterRequest{
		CashRegisterID: uuid.NewString(),
		ClosingBalance: decimal.NewFromInt(100),
	})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

// A close interrupted after summary computation leaves the register open;
// re-invoking with the same arguments must succeed and produce the same
// summary, because the summary is pure aggregation over the payments.
func TestCloseIsRetryable(t *testing.T) {
	_, _, registerSvc, paymentSvc := newTestEngine()

	reg := openTestRegister(t, registerSvc, 100)
	_, err := paymentSvc.Record(context.Background(), dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(30),
		Type:   model.PaymentSale,
		Method: model.MethodPix,
		Status: model.StatusCompleted,
	})
	require.NoError(t, err)

	// First attempt got as far as summary computation, then crashed.
	interrupted, err := paymentSvc.Summarize(context.Background(), reg.ID)
	require.NoError(t, err)

	resp, err := registerSvc.Close(context.Background(), uuid.New(), dto.CloseRegisterRequest{
		CashRegisterID: reg.ID.String(),
		ClosingBalance: decimal.NewFromInt(130),
	})
	require.NoError(t, err)
	assert.True(t, resp.Summary.Sales.Total.Equal(interrupted.Sales.Total))
	require.NotNil(t, resp.Register.ClosingBalance)
	assert.True(t, resp.Register.ClosingBalance.Equal(decimal.NewFromInt(130)))
}

func TestListFiltersByStatus(t *testing.T) {
	_, _, registerSvc, _ := newTestEngine()

	reg := openTestRegister(t, registerSvc, 100)
	_, err := registerSvc.Close(context.Background(), uuid.New(), dto.CloseRegisterRequest{
		CashRegisterID: reg.ID.String(),
		ClosingBalance: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	openTestRegister(t, registerSvc, 50)

	all, err := registerSvc.List(context.Background(), dto.RegisterFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Pagination.Total)

	onlyOpen, err := registerSvc.List(context.Background(), dto.RegisterFilter{Status: model.RegisterOpen})
	require.NoError(t, err)
	require.Len(t, onlyOpen.Registers, 1)
	assert.Equal(t, model.RegisterOpen, onlyOpen.Registers[0].Status)
}

func TestGetReportIncludesSummary(t *testing.T) {
	_, _, registerSvc, paymentSvc := newTestEngine()

	reg := openTestRegister(t, registerSvc, 100)
	_, err := paymentSvc.Record(context.Background(), dto.RecordPaymentRequest{
		Amount: decimal.NewFromInt(25),
		Type:   model.PaymentDebtPayment,
		Method: model.MethodCheck,
		Status: model.StatusCompleted,
	})
	require.NoError(t, err)

	report, err := registerSvc.GetReport(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, report.Register.ID)
	assert.True(t, report.Summary.DebtPayments.Received.Equal(decimal.NewFromInt(25)))
}

func TestGetReportUnknownRegister(t *testing.T) {
	_, _, registerSvc, _ := newTestEngine()

	_, err := registerSvc.GetReport(context.Background(), uuid.New())
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
}
