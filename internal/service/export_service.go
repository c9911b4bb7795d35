package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"

	"oticash/internal/dto"
	"oticash/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Export formats.
const (
	FormatExcel = "excel"
	FormatPDF   = "pdf"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// ExportFile is a rendered summary ready to stream to the client.
type ExportFile struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportService assembles a point-in-time register summary and renders it
// to the requested format. Rendering is stateless; format selection
// happens here and nowhere else.
type ExportService interface {
	BuildSummary(ctx context.Context, cashRegisterID uuid.UUID) (*dto.Summary, error)
	Export(ctx context.Context, cashRegisterID uuid.UUID, format, title string) (*ExportFile, error)
}

type exportService struct {
	aggregator PaymentAggregator
}

func NewExportService(aggregator PaymentAggregator) ExportService {
	return &exportService{aggregator: aggregator}
}

func (s *exportService) BuildSummary(ctx context.Context, cashRegisterID uuid.UUID) (*dto.Summary, error) {
	return s.aggregator.Summarize(ctx, cashRegisterID)
}

func (s *exportService) Export(ctx context.Context, cashRegisterID uuid.UUID, format, title string) (*ExportFile, error) {
	summary, err := s.BuildSummary(ctx, cashRegisterID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = "Cash Register Summary"
	}
	// Rendering can be slow on large registers; respect the caller's
	// deadline before starting.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := "register_" + cashRegisterID.String()
	switch format {
	case FormatExcel:
		data, err := infra.RenderSummaryExcel(summary, title)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Data: data, Filename: base + ".xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, nil
	case FormatPDF:
		data, err := infra.RenderSummaryPDF(summary, title)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Data: data, Filename: base + ".pdf", ContentType: "application/pdf"}, nil
	case FormatCSV:
		data, err := renderSummaryCSV(summary)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Data: data, Filename: base + ".csv", ContentType: "text/csv"}, nil
	case FormatJSON:
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return nil, err
		}
		return &ExportFile{Data: data, Filename: base + ".json", ContentType: "application/json"}, nil
	default:
		return nil, newValidationError("format", "must be one of excel, pdf, csv, json")
	}
}

// renderSummaryCSV flattens the summary into section/label/amount rows.
func renderSummaryCSV(summary *dto.Summary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"section", "label", "amount"},
		{"register", "opening_balance", summary.Register.OpeningBalance.StringFixed(2)},
		{"register", "current_balance", summary.Register.CurrentBalance.StringFixed(2)},
	}
	if summary.Register.ClosingBalance != nil {
		rows = append(rows, []string{"register", "closing_balance", summary.Register.ClosingBalance.StringFixed(2)})
	}
	rows = append(rows, []string{"sales", "total", summary.Sales.Total.StringFixed(2)})
	rows = appendMethodRows(rows, "sales", summary.Sales.ByMethod)
	rows = append(rows, []string{"debt_payments", "received", summary.DebtPayments.Received.StringFixed(2)})
	rows = appendMethodRows(rows, "debt_payments", summary.DebtPayments.ByMethod)
	rows = append(rows, []string{"expenses", "total", summary.Expenses.Total.StringFixed(2)})
	rows = appendMethodRows(rows, "expenses", summary.Expenses.ByCategory)

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("csv export: %w", err)
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func appendMethodRows(rows [][]string, section string, byKey map[string]decimal.Decimal) [][]string {
	for _, key := range sortedKeys(byKey) {
		rows = append(rows, []string{section, key, byKey[key].StringFixed(2)})
	}
	return rows
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
