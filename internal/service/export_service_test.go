package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"oticash/internal/dto"
	"oticash/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExportEngine(t *testing.T) (*model.CashRegister, ExportService) {
	t.Helper()
	_, _, registerSvc, paymentSvc := newTestEngine()
	reg := openTestRegister(t, registerSvc, 100)

	record := func(amount int64, kind, method string, category *string) {
		_, err := paymentSvc.Record(context.Background(), dto.RecordPaymentRequest{
			Amount:   decimal.NewFromInt(amount),
			Type:     kind,
			Method:   method,
			Status:   model.StatusCompleted,
			Category: category,
		})
		require.NoError(t, err)
	}
	rent := "rent"
	record(120, model.PaymentSale, model.MethodCash, nil)
	record(80, model.PaymentSale, model.MethodPix, nil)
	record(40, model.PaymentDebtPayment, model.MethodCash, nil)
	record(25, model.PaymentExpense, model.MethodCash, &rent)

	return reg, NewExportService(paymentSvc)
}

func TestExportRendersEveryFormat(t *testing.T) {
	reg, exportSvc := newExportEngine(t)

	cases := []struct {
		format      string
		ext         string
		contentType string
	}{
		{FormatExcel, ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{FormatPDF, ".pdf", "application/pdf"},
		{FormatCSV, ".csv", "text/csv"},
		{FormatJSON, ".json", "application/json"},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			file, err := exportSvc.Export(context.Background(), reg.ID, tc.format, "")
			require.NoError(t, err)
			assert.NotEmpty(t, file.Data)
			assert.Equal(t, "register_"+reg.ID.String()+tc.ext, file.Filename)
			assert.Equal(t, tc.contentType, file.ContentType)
		})
	}
}

func TestExportPDFMagicBytes(t *testing.T) {
	reg, exportSvc := newExportEngine(t)

	file, err := exportSvc.Export(context.Background(), reg.ID, FormatPDF, "Daily close")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestExportCSVContent(t *testing.T) {
	reg, exportSvc := newExportEngine(t)

	file, err := exportSvc.Export(context.Background(), reg.ID, FormatCSV, "")
	require.NoError(t, err)

	body := string(file.Data)
	assert.Contains(t, body, "section,label,amount")
	assert.Contains(t, body, "sales,total,200.00")
	assert.Contains(t, body, "sales,cash,120.00")
	assert.Contains(t, body, "sales,pix,80.00")
	assert.Contains(t, body, "debt_payments,received,40.00")
	assert.Contains(t, body, "expenses,total,25.00")
	assert.Contains(t, body, "expenses,rent,25.00")
	// 100 + 200 + 40 - 25
	assert.Contains(t, body, "register,current_balance,315.00")
}

func TestExportJSONContent(t *testing.T) {
	reg, exportSvc := newExportEngine(t)

	file, err := exportSvc.Export(context.Background(), reg.ID, FormatJSON, "")
	require.NoError(t, err)

	body := string(file.Data)
	assert.Contains(t, body, `"sales"`)
	assert.Contains(t, body, `"debt_payments"`)
	assert.Contains(t, body, `"by_category"`)
	assert.Contains(t, body, reg.ID.String())
}

func TestExportUnknownFormat(t *testing.T) {
	reg, exportSvc := newExportEngine(t)

	_, err := exportSvc.Export(context.Background(), reg.ID, "xml", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestExportExpiredContext(t *testing.T) {
	reg, exportSvc := newExportEngine(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := exportSvc.Export(ctx, reg.ID, FormatPDF, "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
