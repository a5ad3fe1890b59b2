package payslip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"payslipgen/internal/domain/employee"
	"payslipgen/internal/platform/metrics"
	"payslipgen/internal/platform/validate"
)

// EmployeeStore is the part of the employee registry the reconciler needs.
// FindByNumber returns nil, nil when nothing matches.
type EmployeeStore interface {
	FindByNumber(ctx context.Context, employeeNo string) (*employee.Employee, error)
	Create(ctx context.Context, emp employee.Employee) (*employee.Employee, error)
}

// Reconciler resolves a row's employee number to a stored employee, creating it
// when absent. Concurrent calls for one number share a single lookup/create.
type Reconciler struct {
	store   EmployeeStore
	metrics *metrics.Collector
	group   singleflight.Group
}

func NewReconciler(store EmployeeStore, m *metrics.Collector) *Reconciler {
	return &Reconciler{store: store, metrics: m}
}

func (r *Reconciler) Resolve(ctx context.Context, candidate employee.Employee) (*employee.Employee, error) {
	no := strings.TrimSpace(candidate.EmployeeNo)
	if no == "" {
		return nil, &ValidationError{Issues: []validate.Issue{{Field: ColEmployeeNo, Reason: "is required"}}}
	}
	candidate.EmployeeNo = no

	v, err, _ := r.group.Do(no, func() (any, error) {
		return r.findOrCreate(ctx, candidate)
	})
	if err != nil {
		return nil, err
	}
	emp := *v.(*employee.Employee)
	return &emp, nil
}

func (r *Reconciler) findOrCreate(ctx context.Context, candidate employee.Employee) (*employee.Employee, error) {
	existing, err := r.store.FindByNumber(ctx, candidate.EmployeeNo)
	if err != nil {
		return nil, fmt.Errorf("look up employee %s: %w", candidate.EmployeeNo, err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := r.store.Create(ctx, candidate)
	if errors.Is(err, employee.ErrDuplicateNo) {
		// Another writer created it between our lookup and insert.
		winner, findErr := r.store.FindByNumber(ctx, candidate.EmployeeNo)
		if findErr != nil {
			return nil, fmt.Errorf("re-read employee %s after duplicate insert: %w", candidate.EmployeeNo, findErr)
		}
		if winner != nil {
			return winner, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create employee %s: %w", candidate.EmployeeNo, err)
	}
	r.metrics.EmployeeCreated()
	return created, nil
}
