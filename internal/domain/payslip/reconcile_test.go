package payslip

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payslipgen/internal/domain/employee"
)

func TestResolveIsIdempotent(t *testing.T) {
	store := newFakeEmployees()
	r := NewReconciler(store, nil)

	first, err := r.Resolve(context.Background(), employee.Employee{EmployeeNo: "EMP001", Name: "John Doe"})
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), employee.Employee{EmployeeNo: "EMP001", Name: "Someone Else"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "John Doe", second.Name)
	assert.Equal(t, 1, store.creates)
}

func TestResolveReturnsExisting(t *testing.T) {
	store := newFakeEmployees()
	store.byNo["EMP009"] = employee.Employee{ID: "existing", EmployeeNo: "EMP009", Name: "Asha"}

	emp, err := NewReconciler(store, nil).Resolve(context.Background(), employee.Employee{EmployeeNo: " EMP009 "})
	require.NoError(t, err)
	assert.Equal(t, "existing", emp.ID)
	assert.Equal(t, 0, store.creates)
}

// staleEmployees misses the first lookups, as if another process inserted the
// employee between this process's read and its insert.
type staleEmployees struct {
	*fakeEmployees
	misses  int
	lookups int
	findErr error
}

func (s *staleEmployees) FindByNumber(ctx context.Context, no string) (*employee.Employee, error) {
	s.lookups++
	if s.lookups <= s.misses {
		return nil, nil
	}
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.fakeEmployees.FindByNumber(ctx, no)
}

func TestResolveReturnsWinnerAfterDuplicateInsert(t *testing.T) {
	store := &staleEmployees{fakeEmployees: newFakeEmployees(), misses: 1}
	store.byNo["EMP042"] = employee.Employee{ID: "other-process", EmployeeNo: "EMP042", Name: "Meera"}

	emp, err := NewReconciler(store, nil).Resolve(context.Background(), employee.Employee{EmployeeNo: "EMP042", Name: "Row Name"})
	require.NoError(t, err)

	assert.Equal(t, "other-process", emp.ID)
	assert.Equal(t, "Meera", emp.Name)
	assert.Equal(t, 0, store.creates)
	assert.Equal(t, 2, store.lookups)
}

func TestResolveReportsFailedReReadAfterDuplicateInsert(t *testing.T) {
	store := &staleEmployees{fakeEmployees: newFakeEmployees(), misses: 1, findErr: errors.New("connection reset")}
	store.byNo["EMP042"] = employee.Employee{ID: "other-process", EmployeeNo: "EMP042", Name: "Meera"}

	_, err := NewReconciler(store, nil).Resolve(context.Background(), employee.Employee{EmployeeNo: "EMP042", Name: "Row Name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 0, store.creates)
}

func TestResolveConcurrentSameNumberCreatesOnce(t *testing.T) {
	store := newFakeEmployees()
	store.delay = 20 * time.Millisecond
	r := NewReconciler(store, nil)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			emp, err := r.Resolve(context.Background(), employee.Employee{EmployeeNo: "EMP777", Name: "Race"})
			if err == nil {
				ids[i] = emp.ID
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.creates)
	for _, id := range ids {
		assert.Equal(t, "emp-1", id)
	}
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	store := newFakeEmployees()
	store.createErr["EMP500"] = errors.New("check constraint violated")

	_, err := NewReconciler(store, nil).Resolve(context.Background(), employee.Employee{EmployeeNo: "EMP500", Name: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create employee EMP500")
}

func TestResolveRejectsBlankNumber(t *testing.T) {
	_, err := NewReconciler(newFakeEmployees(), nil).Resolve(context.Background(), employee.Employee{Name: "X"})
	assert.ErrorIs(t, err, ErrValidation)
}
