package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kmorales/expenseflow/internal/domain/entity"
)

// ExpenseExporter renders expense listings as xlsx workbooks for the admin
// export endpoint.
type ExpenseExporter struct {
	logger *zap.Logger
}

// NewExpenseExporter creates an expense exporter.
func NewExpenseExporter(logger *zap.Logger) *ExpenseExporter {
	return &ExpenseExporter{logger: logger}
}

const sheetName = "Expenses"

var headers = []string{
	"ID", "Employee", "Amount", "Currency", "Category", "Description",
	"Status", "Flow Type", "Approvals", "Rejections", "Submitted",
}

// Export writes all expenses into a single-sheet workbook and returns the
// serialized file.
func (e *ExpenseExporter) Export(expenses []*entity.Expense) ([]byte, error) {
	e.logger.Info("Exporting expense report", zap.Int("count", len(expenses)))

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	for col, h := range headers {
		e.setCell(f, cellName(col, 1), h)
	}

	for i, exp := range expenses {
		row := i + 2
		approves, rejects := tally(exp)
		values := []interface{}{
			exp.ID,
			exp.EmployeeID,
			exp.Amount,
			exp.Currency,
			exp.Category,
			exp.Description,
			exp.Status.String(),
			exp.FlowType.String(),
			approves,
			rejects,
			exp.SubmissionDate.Format("2006-01-02"),
		}
		for col, v := range values {
			e.setCell(f, cellName(col, row), v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	e.logger.Info("Expense report exported", zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (e *ExpenseExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return ""
	}
	return name
}

func tally(exp *entity.Expense) (approves, rejects int) {
	for _, d := range exp.Decisions {
		switch d.Action {
		case entity.ActionApprove:
			approves++
		case entity.ActionReject:
			rejects++
		}
	}
	return approves, rejects
}
