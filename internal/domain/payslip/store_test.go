package payslip

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payslipID = "1b7e8a5c-7c1a-4c4e-8a0b-3f0e5d9c2a10"

func payslipColumns() []string {
	cols := []string{"id", "employee_id", "batch_id", "payslip_number", "pay_period", "pay_date",
		"effective_work_days", "lop", "el_availed"}
	cols = append(cols, moneyColumns...)
	return append(cols, "created_at")
}

func TestCreatePayrollRecordSendsFixedPointAmounts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	draft, err := Normalize(RawRow{"employeeNo": "EMP001", "name": "John", "payPeriod": "Jan 2025",
		"basicActual": "40000", "pfActual": "5000.5"})
	require.NoError(t, err)
	rec := draft.Record
	rec.EmployeeID = "emp-uuid"
	rec.CreatedAt = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	args := []any{"emp-uuid", nil, "PSL-EMP001-Jan 2025", "Jan 2025", "", 31, 0, 0}
	for i := range moneyColumns {
		switch moneyColumns[i] {
		case "basic_actual", "total_earnings_actual":
			args = append(args, "40000.00")
		case "pf_actual", "total_deductions_actual":
			args = append(args, "5000.50")
		case "net_pay":
			args = append(args, "34999.50")
		default:
			args = append(args, "0.00")
		}
	}
	args = append(args, rec.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payslips")).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(payslipID))

	saved, err := NewStore(mock).CreatePayrollRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, payslipID, saved.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScansDecimalColumns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	values := []any{payslipID, "emp-uuid", "", "PSL-E1-Jan 2025", "Jan 2025", "31/01/2025", 31, 1, 2}
	for _, col := range moneyColumns {
		if col == "net_pay" {
			values = append(values, "49800.00")
			continue
		}
		values = append(values, "0.00")
	}
	values = append(values, created)

	mock.ExpectQuery(regexp.QuoteMeta("FROM payslips")).
		WithArgs(payslipID).
		WillReturnRows(pgxmock.NewRows(payslipColumns()).AddRow(values...))

	rec, err := NewStore(mock).Get(context.Background(), payslipID)
	require.NoError(t, err)
	assert.True(t, dec("49800").Equal(rec.NetPay))
	assert.Equal(t, 1, rec.LOP)
	assert.Equal(t, created, rec.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUnknownPayslip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM payslips")).
		WithArgs(payslipID).
		WillReturnRows(pgxmock.NewRows(payslipColumns()))

	store := NewStore(mock)
	_, err = store.Get(context.Background(), payslipID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBatchEncodesErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	finished := time.Now()
	run := BatchRun{
		ID:           payslipID,
		Status:       BatchCompleted,
		SuccessCount: 1,
		ErrorCount:   1,
		Errors:       []RowError{{Row: 2, EmployeeNo: "E2", Stage: StageValidate, Error: "validation failed: name is required"}},
		FinishedAt:   &finished,
	}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payslip_batches")).
		WithArgs(payslipID, "completed", 1, 1,
			`[{"row":2,"employeeNo":"E2","stage":"validate","error":"validation failed: name is required"}]`, &finished).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewStore(mock).UpdateBatch(context.Background(), run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAbandonStaleBatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("SET status = $1, finished_at = now()")).
		WithArgs("abandoned", "accepted", "processing", cutoff).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := NewStore(mock).AbandonStaleBatches(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneBatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM payslip_batches")).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	n, err := NewStore(mock).PruneBatches(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
