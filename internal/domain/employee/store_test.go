package employee

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payslipgen/internal/platform/crypto"
)

var employeeColumns = []string{
	"id", "employee_no", "name", "joining_date", "designation", "department", "location",
	"bank_name", "bank_account_no", "bank_account_enc", "ifsc_code",
	"pan_number", "pan_number_enc", "pf_number", "pf_uan", "created_at", "updated_at",
}

const employeeID = "7d0f3c8e-2f51-4b0e-9f5d-0d8a2f4f6b11"

func newMockStore(t *testing.T, key string) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	svc, err := crypto.New(key)
	require.NoError(t, err)
	return NewStore(mock, svc), mock
}

func TestFindByNumberReturnsNilWhenMissing(t *testing.T) {
	store, mock := newMockStore(t, "")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE employee_no = $1")).
		WithArgs("EMP404").
		WillReturnRows(pgxmock.NewRows(employeeColumns))

	emp, err := store.FindByNumber(context.Background(), " EMP404 ")
	require.NoError(t, err)
	assert.Nil(t, emp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByNumberScansRow(t *testing.T) {
	store, mock := newMockStore(t, "")
	now := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE employee_no = $1")).
		WithArgs("EMP001").
		WillReturnRows(pgxmock.NewRows(employeeColumns).AddRow(
			employeeID, "EMP001", "John Doe", "01/04/2020", "Engineer", "R&D", "Pune",
			"HDFC", "50100012345678", []byte{}, "HDFC0001234",
			"ABCDE1234F", []byte{}, "PF/123", "100200300400", now, now,
		))

	emp, err := store.FindByNumber(context.Background(), "EMP001")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, employeeID, emp.ID)
	assert.Equal(t, "John Doe", emp.Name)
	assert.Equal(t, "50100012345678", emp.BankAccountNo)
	assert.Equal(t, "100200300400", emp.PFUAN)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTranslatesUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t, "")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := store.Create(context.Background(), Employee{EmployeeNo: "EMP001", Name: "John Doe"})
	assert.ErrorIs(t, err, ErrDuplicateNo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEncryptsSensitiveFields(t *testing.T) {
	store, mock := newMockStore(t, strings.Repeat("ab", 32))
	now := time.Now()

	var bankEnc encryptedArg
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WithArgs("EMP002", "Jane Smith", "", "", "", "",
			"SBI", nil, &bankEnc, "",
			nil, pgxmock.AnyArg(), nil, nil).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(employeeID, now, now))

	emp, err := store.Create(context.Background(), Employee{
		EmployeeNo:    "EMP002",
		Name:          "Jane Smith",
		BankName:      "SBI",
		BankAccountNo: "1111222233",
		PANNumber:     "ABCDE1234F",
	})
	require.NoError(t, err)
	assert.Equal(t, employeeID, emp.ID)
	assert.Equal(t, "1111222233", emp.BankAccountNo)

	plain, err := store.Crypto.DecryptString(bankEnc.value)
	require.NoError(t, err)
	assert.Equal(t, "1111222233", plain)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReferencedEmployee(t *testing.T) {
	store, mock := newMockStore(t, "")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees WHERE id = $1")).
		WithArgs(employeeID).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := store.Delete(context.Background(), employeeID)
	assert.ErrorIs(t, err, ErrReferenced)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingEmployee(t *testing.T) {
	store, mock := newMockStore(t, "")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees")).
		WithArgs(employeeID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, store.Delete(context.Background(), employeeID), ErrNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), "not-a-uuid"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// encryptedArg captures a ciphertext argument so the test can decrypt it.
type encryptedArg struct {
	value []byte
}

func (a *encryptedArg) Match(v any) bool {
	b, ok := v.([]byte)
	if !ok || len(b) == 0 {
		return false
	}
	a.value = b
	return true
}
