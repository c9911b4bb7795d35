package infra

// pdf.go — summary report rendering using go-pdf/fpdf.
// Produces an A4 report with the register header, balance block and the
// per-method / per-category aggregate tables.

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"oticash/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// RenderSummaryPDF renders a register summary into an in-memory PDF.
func RenderSummaryPDF(summary *dto.Summary, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Register %s", summary.Register.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Generated %s", time.Now().Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Balances ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, "Balances", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdfRow(pdf, contentW, "Opening balance", summary.Register.OpeningBalance)
	pdfRow(pdf, contentW, "Current balance", summary.Register.CurrentBalance)
	if summary.Register.ClosingBalance != nil {
		pdfRow(pdf, contentW, "Closing balance", *summary.Register.ClosingBalance)
	}
	pdf.Ln(3)

	// ── Aggregates ───────────────────────────────────────────────────────────
	pdfSection(pdf, contentW, "Sales", summary.Sales.Total, summary.Sales.ByMethod)
	pdfSection(pdf, contentW, "Debt payments", summary.DebtPayments.Received, summary.DebtPayments.ByMethod)
	pdfSection(pdf, contentW, "Expenses", summary.Expenses.Total, summary.Expenses.ByCategory)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render summary: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfSection(pdf *fpdf.Fpdf, w float64, name string, total decimal.Decimal, breakdown map[string]decimal.Decimal) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(w, 7, name, "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, key := range sortedAmountKeys(breakdown) {
		pdfRow(pdf, w, "  "+key, breakdown[key])
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdfRow(pdf, w, "Total", total)
	pdf.Ln(3)
}

func pdfRow(pdf *fpdf.Fpdf, w float64, label string, amount decimal.Decimal) {
	pdf.CellFormat(w*0.7, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(w*0.3, 6, amount.StringFixed(2), "", 1, "R", false, 0, "")
}

func sortedAmountKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
