package payslip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"payslipgen/internal/platform/db"
)

var moneyColumns = []string{
	"basic_full", "basic_actual", "hra_full", "hra_actual",
	"conveyance_allowance_full", "conveyance_allowance_actual",
	"other_allowance_full", "other_allowance_actual",
	"special_allowance_full", "special_allowance_actual",
	"bonus_incentive_full", "bonus_incentive_actual",
	"pf_actual", "prof_tax_actual",
	"total_earnings_full", "total_earnings_actual", "total_deductions_actual", "net_pay",
	"employer_pf",
}

// moneyFields returns pointers in moneyColumns order.
func moneyFields(r *PayrollRecord) []*decimal.Decimal {
	return []*decimal.Decimal{
		&r.BasicFull, &r.BasicActual, &r.HRAFull, &r.HRAActual,
		&r.ConveyanceFull, &r.ConveyanceActual,
		&r.OtherFull, &r.OtherActual,
		&r.SpecialFull, &r.SpecialActual,
		&r.BonusFull, &r.BonusActual,
		&r.PFActual, &r.ProfTaxActual,
		&r.TotalEarningsFull, &r.TotalEarningsActual, &r.TotalDeductionsActual, &r.NetPay,
		&r.EmployerPF,
	}
}

var (
	insertPayslipSQL = buildInsertPayslip()
	selectPayslipSQL = buildSelectPayslip()
)

func buildInsertPayslip() string {
	const fixed = 8
	placeholders := make([]string, 0, fixed+len(moneyColumns)+1)
	for i := 1; i <= fixed; i++ {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
	}
	for i := range moneyColumns {
		placeholders = append(placeholders, fmt.Sprintf("$%d::text::numeric", fixed+i+1))
	}
	placeholders = append(placeholders, fmt.Sprintf("$%d", fixed+len(moneyColumns)+1))
	return `
    INSERT INTO payslips (employee_id, batch_id, payslip_number, pay_period, pay_date,
                          effective_work_days, lop, el_availed, ` + strings.Join(moneyColumns, ", ") + `, created_at)
    VALUES (` + strings.Join(placeholders, ", ") + `)
    RETURNING id::text`
}

func buildSelectPayslip() string {
	money := make([]string, len(moneyColumns))
	for i, col := range moneyColumns {
		money[i] = col + "::text"
	}
	return `
    SELECT id::text, employee_id::text, COALESCE(batch_id::text, ''), payslip_number, pay_period, pay_date,
           effective_work_days, lop, el_availed, ` + strings.Join(money, ", ") + `, created_at
    FROM payslips`
}

type Store struct {
	DB db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{DB: q}
}

func (s *Store) CreatePayrollRecord(ctx context.Context, rec PayrollRecord) (*PayrollRecord, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	args := []any{
		rec.EmployeeID, nullIfEmpty(rec.BatchID), rec.PayslipNumber, rec.PayPeriod, rec.PayDate,
		rec.EffectiveWorkDays, rec.LOP, rec.ELAvailed,
	}
	for _, d := range moneyFields(&rec) {
		args = append(args, d.StringFixed(2))
	}
	args = append(args, rec.CreatedAt)

	if err := s.DB.QueryRow(ctx, insertPayslipSQL, args...).Scan(&rec.ID); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("payslip references unknown employee %s: %w", rec.EmployeeID, err)
		}
		return nil, fmt.Errorf("insert payslip: %w", err)
	}
	return &rec, nil
}

// List returns payslips newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]PayrollRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	var (
		rows pgx.Rows
		err  error
	)
	if filter.EmployeeID != "" {
		if _, parseErr := uuid.Parse(filter.EmployeeID); parseErr != nil {
			return []PayrollRecord{}, nil
		}
		rows, err = s.DB.Query(ctx, selectPayslipSQL+`
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3`, filter.EmployeeID, limit, filter.Offset)
	} else {
		rows, err = s.DB.Query(ctx, selectPayslipSQL+`
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2`, limit, filter.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list payslips: %w", err)
	}
	defer rows.Close()

	out := make([]PayrollRecord, 0)
	for rows.Next() {
		rec, err := scanPayslip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (*PayrollRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	rec, err := scanPayslip(s.DB.QueryRow(ctx, selectPayslipSQL+`
    WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func scanPayslip(row pgx.Row) (*PayrollRecord, error) {
	var rec PayrollRecord
	money := make([]string, len(moneyColumns))
	dest := []any{
		&rec.ID, &rec.EmployeeID, &rec.BatchID, &rec.PayslipNumber, &rec.PayPeriod, &rec.PayDate,
		&rec.EffectiveWorkDays, &rec.LOP, &rec.ELAvailed,
	}
	for i := range money {
		dest = append(dest, &money[i])
	}
	dest = append(dest, &rec.CreatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	for i, field := range moneyFields(&rec) {
		d, err := decimal.NewFromString(money[i])
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", moneyColumns[i], err)
		}
		*field = d
	}
	return &rec, nil
}

func (s *Store) CreateBatch(ctx context.Context, run BatchRun) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO payslip_batches (id, status, format, total_rows, started_at)
    VALUES ($1, $2, $3, $4, $5)
  `, run.ID, string(run.Status), string(run.Format), run.TotalRows, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (s *Store) UpdateBatch(ctx context.Context, run BatchRun) error {
	errs := run.Errors
	if errs == nil {
		errs = []RowError{}
	}
	payload, err := json.Marshal(errs)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    UPDATE payslip_batches
    SET status = $2, success_count = $3, error_count = $4, errors = $5::text::jsonb, finished_at = $6
    WHERE id = $1
  `, run.ID, string(run.Status), run.SuccessCount, run.ErrorCount, string(payload), run.FinishedAt)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return nil
}

// AbandonStaleBatches closes runs still open that started before startedBefore.
func (s *Store) AbandonStaleBatches(ctx context.Context, startedBefore time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payslip_batches
    SET status = $1, finished_at = now()
    WHERE status IN ($2, $3) AND started_at < $4
  `, string(BatchAbandoned), string(BatchAccepted), string(BatchProcessing), startedBefore)
	if err != nil {
		return 0, fmt.Errorf("abandon stale batches: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneBatches deletes batch runs that finished before finishedBefore. Payslip
// records keep existing with their batch reference cleared.
func (s *Store) PruneBatches(ctx context.Context, finishedBefore time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM payslip_batches
    WHERE finished_at IS NOT NULL AND finished_at < $1
  `, finishedBefore)
	if err != nil {
		return 0, fmt.Errorf("prune batches: %w", err)
	}
	return tag.RowsAffected(), nil
}

const selectBatchSQL = `
    SELECT id::text, status, format, total_rows, success_count, error_count, errors::text, started_at, finished_at
    FROM payslip_batches`

func (s *Store) ListBatches(ctx context.Context, limit int) ([]BatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.Query(ctx, selectBatchSQL+`
    ORDER BY started_at DESC
    LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	out := make([]BatchRun, 0)
	for rows.Next() {
		run, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func (s *Store) GetBatch(ctx context.Context, id string) (*BatchRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrBatchNotFound
	}
	run, err := scanBatch(s.DB.QueryRow(ctx, selectBatchSQL+`
    WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	return run, err
}

func scanBatch(row pgx.Row) (*BatchRun, error) {
	var run BatchRun
	var status, format, errs string
	if err := row.Scan(&run.ID, &status, &format, &run.TotalRows, &run.SuccessCount, &run.ErrorCount,
		&errs, &run.StartedAt, &run.FinishedAt); err != nil {
		return nil, err
	}
	run.Status = BatchStatus(status)
	run.Format = PageFormat(format)
	if err := json.Unmarshal([]byte(errs), &run.Errors); err != nil {
		return nil, fmt.Errorf("decode batch errors: %w", err)
	}
	return &run, nil
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
