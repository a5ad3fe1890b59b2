package payslip

import (
	"context"
	"fmt"
	"time"

	"payslipgen/internal/domain/employee"
)

type EmployeeGetter interface {
	Get(ctx context.Context, id string) (*employee.Employee, error)
}

// Service generates a single payslip for an existing employee.
type Service struct {
	employees EmployeeGetter
	settings  SettingsSource
	renderer  Renderer
	store     RecordStore
	now       func() time.Time
}

func NewService(employees EmployeeGetter, settings SettingsSource, renderer Renderer, store RecordStore) *Service {
	return &Service{employees: employees, settings: settings, renderer: renderer, store: store, now: time.Now}
}

// Generate normalizes data with the employee's identity, renders the PDF and
// stores the record. Nothing is stored when rendering fails.
func (s *Service) Generate(ctx context.Context, employeeID string, data RawRow, format PageFormat) (*Generated, error) {
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	emp, err := s.employees.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	row := make(RawRow, len(data)+2)
	for k, v := range data {
		row[k] = v
	}
	row[ColEmployeeNo] = emp.EmployeeNo
	row[ColName] = emp.Name

	draft, err := Normalize(row)
	if err != nil {
		return nil, err
	}
	rec := draft.Record
	rec.EmployeeID = emp.ID
	rec.CreatedAt = s.now().UTC().Truncate(time.Second)

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load company settings: %w", err)
	}
	pdf, err := s.renderer.Render(ctx, Document{Employee: *emp, Record: rec, Settings: settings}, format)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.CreatePayrollRecord(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("save payslip: %w", err)
	}
	return &Generated{
		Row:      1,
		FileName: FileName(emp.EmployeeNo, saved.PayPeriod),
		Employee: *emp,
		Record:   *saved,
		PDF:      pdf,
	}, nil
}
