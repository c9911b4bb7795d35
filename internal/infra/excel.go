package infra

// excel.go — summary workbook rendering using excelize.

import (
	"fmt"

	"oticash/internal/dto"

	"github.com/xuri/excelize/v2"
)

// RenderSummaryExcel renders a register summary into an in-memory xlsx
// workbook with one sheet of section/label/amount rows.
func RenderSummaryExcel(summary *dto.Summary, title string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Summary"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("excel: create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheetName, "A1", title)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Register %s", summary.Register.ID))

	headers := []string{"Section", "Label", "Amount"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(sheetName, cell, header)
	}

	row := 5
	writeRow := func(section, label string, amount string) {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), section)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), label)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), amount)
		row++
	}

	writeRow("register", "opening_balance", summary.Register.OpeningBalance.StringFixed(2))
	writeRow("register", "current_balance", summary.Register.CurrentBalance.StringFixed(2))
	if summary.Register.ClosingBalance != nil {
		writeRow("register", "closing_balance", summary.Register.ClosingBalance.StringFixed(2))
	}

	writeRow("sales", "total", summary.Sales.Total.StringFixed(2))
	for _, method := range sortedAmountKeys(summary.Sales.ByMethod) {
		writeRow("sales", method, summary.Sales.ByMethod[method].StringFixed(2))
	}
	writeRow("debt_payments", "received", summary.DebtPayments.Received.StringFixed(2))
	for _, method := range sortedAmountKeys(summary.DebtPayments.ByMethod) {
		writeRow("debt_payments", method, summary.DebtPayments.ByMethod[method].StringFixed(2))
	}
	writeRow("expenses", "total", summary.Expenses.Total.StringFixed(2))
	for _, category := range sortedAmountKeys(summary.Expenses.ByCategory) {
		writeRow("expenses", category, summary.Expenses.ByCategory[category].StringFixed(2))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: render summary: %w", err)
	}
	return buf.Bytes(), nil
}
