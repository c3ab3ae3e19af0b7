package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kmorales/expenseflow/internal/domain/entity"
)

func TestExport_WritesHeaderAndRows(t *testing.T) {
	exporter := NewExpenseExporter(zap.NewNop())

	expenses := []*entity.Expense{
		{
			ID:         "exp-1",
			EmployeeID: "u-1",
			Amount:     42.50,
			Currency:   "USD",
			Category:   "Meals",
			Status:     entity.StatusApproved,
			FlowType:   entity.FlowSequential,
			Decisions: []entity.Decision{
				{ApproverID: "mgr-1", Action: entity.ActionApprove, DecidedAt: time.Now()},
			},
			SubmissionDate: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		},
	}

	data, err := exporter.Export(expenses)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Expenses", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", got)

	got, err = f.GetCellValue("Expenses", "A2")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", got)

	got, err = f.GetCellValue("Expenses", "G2")
	require.NoError(t, err)
	assert.Equal(t, "Approved", got)

	got, err = f.GetCellValue("Expenses", "K2")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", got)
}

func TestExport_EmptyList(t *testing.T) {
	exporter := NewExpenseExporter(zap.NewNop())

	data, err := exporter.Export(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
