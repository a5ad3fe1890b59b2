package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"payslipgen/internal/platform/crypto"
	"payslipgen/internal/platform/db"
)

const selectColumns = `
    SELECT id::text, employee_no, name, joining_date, designation, department, location,
           bank_name, COALESCE(bank_account_no, ''), bank_account_enc, ifsc_code,
           COALESCE(pan_number, ''), pan_number_enc,
           COALESCE(pf_number, ''), COALESCE(pf_uan, ''),
           created_at, updated_at
    FROM employees`

type Store struct {
	DB     db.Querier
	Crypto *crypto.Service
}

func NewStore(q db.Querier, crypto *crypto.Service) *Store {
	return &Store{DB: q, Crypto: crypto}
}

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, selectColumns+`
    ORDER BY employee_no`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	out := make([]Employee, 0)
	for rows.Next() {
		emp, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (*Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	emp, err := s.scan(s.DB.QueryRow(ctx, selectColumns+`
    WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return emp, err
}

// FindByNumber returns nil without error when no employee has the number.
func (s *Store) FindByNumber(ctx context.Context, employeeNo string) (*Employee, error) {
	emp, err := s.scan(s.DB.QueryRow(ctx, selectColumns+`
    WHERE employee_no = $1`, strings.TrimSpace(employeeNo)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find employee %q: %w", employeeNo, err)
	}
	return emp, nil
}

func (s *Store) Create(ctx context.Context, emp Employee) (*Employee, error) {
	args, err := s.sensitiveArgs(emp)
	if err != nil {
		return nil, err
	}
	err = s.DB.QueryRow(ctx, `
    INSERT INTO employees (employee_no, name, joining_date, designation, department, location,
                           bank_name, bank_account_no, bank_account_enc, ifsc_code,
                           pan_number, pan_number_enc, pf_number, pf_uan)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    RETURNING id::text, created_at, updated_at
  `, emp.EmployeeNo, emp.Name, emp.JoiningDate, emp.Designation, emp.Department, emp.Location,
		emp.BankName, args.bankPlain, args.bankEnc, emp.IFSCCode,
		args.panPlain, args.panEnc, nullIfEmpty(emp.PFNumber), nullIfEmpty(emp.PFUAN),
	).Scan(&emp.ID, &emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateNo
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return &emp, nil
}

func (s *Store) Update(ctx context.Context, id string, emp Employee) (*Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	args, err := s.sensitiveArgs(emp)
	if err != nil {
		return nil, err
	}
	err = s.DB.QueryRow(ctx, `
    UPDATE employees
    SET employee_no = $2, name = $3, joining_date = $4, designation = $5, department = $6,
        location = $7, bank_name = $8, bank_account_no = $9, bank_account_enc = $10,
        ifsc_code = $11, pan_number = $12, pan_number_enc = $13, pf_number = $14, pf_uan = $15,
        updated_at = now()
    WHERE id = $1
    RETURNING created_at, updated_at
  `, id, emp.EmployeeNo, emp.Name, emp.JoiningDate, emp.Designation, emp.Department,
		emp.Location, emp.BankName, args.bankPlain, args.bankEnc,
		emp.IFSCCode, args.panPlain, args.panEnc, nullIfEmpty(emp.PFNumber), nullIfEmpty(emp.PFUAN),
	).Scan(&emp.CreatedAt, &emp.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case db.IsUniqueViolation(err):
		return nil, ErrDuplicateNo
	case err != nil:
		return nil, fmt.Errorf("update employee: %w", err)
	}
	emp.ID = id
	return &emp, nil
}

// Delete refuses to remove employees that payslips still reference.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := s.DB.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("delete employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type sensitive struct {
	bankPlain, panPlain any
	bankEnc, panEnc     []byte
}

// sensitiveArgs stores bank account and PAN encrypted when a key is configured, plain otherwise.
func (s *Store) sensitiveArgs(emp Employee) (sensitive, error) {
	if !s.Crypto.Configured() {
		return sensitive{bankPlain: nullIfEmpty(emp.BankAccountNo), panPlain: nullIfEmpty(emp.PANNumber)}, nil
	}
	bankEnc, err := s.Crypto.EncryptString(emp.BankAccountNo)
	if err != nil {
		return sensitive{}, fmt.Errorf("encrypt bank account: %w", err)
	}
	panEnc, err := s.Crypto.EncryptString(emp.PANNumber)
	if err != nil {
		return sensitive{}, fmt.Errorf("encrypt pan: %w", err)
	}
	return sensitive{bankEnc: bankEnc, panEnc: panEnc}, nil
}

func (s *Store) scan(row pgx.Row) (*Employee, error) {
	var emp Employee
	var bankEnc, panEnc []byte
	err := row.Scan(
		&emp.ID, &emp.EmployeeNo, &emp.Name, &emp.JoiningDate, &emp.Designation, &emp.Department, &emp.Location,
		&emp.BankName, &emp.BankAccountNo, &bankEnc, &emp.IFSCCode,
		&emp.PANNumber, &panEnc,
		&emp.PFNumber, &emp.PFUAN,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	emp.BankAccountNo = s.decryptFallback(bankEnc, emp.BankAccountNo)
	emp.PANNumber = s.decryptFallback(panEnc, emp.PANNumber)
	return &emp, nil
}

func (s *Store) decryptFallback(enc []byte, plain string) string {
	if len(enc) == 0 || !s.Crypto.Configured() {
		return plain
	}
	value, err := s.Crypto.DecryptString(enc)
	if err != nil {
		return plain
	}
	return value
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
