package payslip

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"payslipgen/internal/domain/company"
	"payslipgen/internal/domain/employee"
)

type fakeEmployees struct {
	mu        sync.Mutex
	byNo      map[string]employee.Employee
	creates   int
	createErr map[string]error
	delay     time.Duration
}

func newFakeEmployees() *fakeEmployees {
	return &fakeEmployees{byNo: map[string]employee.Employee{}, createErr: map[string]error{}}
}

func (f *fakeEmployees) FindByNumber(ctx context.Context, no string) (*employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if emp, ok := f.byNo[no]; ok {
		return &emp, nil
	}
	return nil, nil
}

func (f *fakeEmployees) Create(ctx context.Context, emp employee.Employee) (*employee.Employee, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[emp.EmployeeNo]; err != nil {
		return nil, err
	}
	if _, ok := f.byNo[emp.EmployeeNo]; ok {
		return nil, employee.ErrDuplicateNo
	}
	f.creates++
	emp.ID = fmt.Sprintf("emp-%d", f.creates)
	f.byNo[emp.EmployeeNo] = emp
	return &emp, nil
}

func (f *fakeEmployees) Get(ctx context.Context, id string) (*employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, emp := range f.byNo {
		if emp.ID == id {
			return &emp, nil
		}
	}
	return nil, employee.ErrNotFound
}

type fakeSettings struct {
	settings *company.Settings
	err      error
}

func (f fakeSettings) Get(ctx context.Context) (*company.Settings, error) {
	return f.settings, f.err
}

type fakeRenderer struct {
	mu       sync.Mutex
	failFor  map[string]bool
	block    map[string]bool
	calls    int
	formats  []PageFormat
	inFlight int
	maxSeen  int
	rendered func(employeeNo string)
}

func (f *fakeRenderer) Render(ctx context.Context, doc Document, format PageFormat) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.formats = append(f.formats, format)
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	fail := f.failFor[doc.Employee.EmployeeNo]
	block := f.block[doc.Employee.EmployeeNo]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %v", ErrRender, ctx.Err())
	}
	time.Sleep(2 * time.Millisecond)
	if fail {
		return nil, errors.New("paint failed")
	}
	if f.rendered != nil {
		f.rendered(doc.Employee.EmployeeNo)
	}
	return []byte("%PDF-1.3 " + doc.Employee.EmployeeNo + " " + doc.Record.NetPay.String()), nil
}

type fakeRecords struct {
	mu       sync.Mutex
	saved    []PayrollRecord
	failFor  map[string]bool
	batches  []BatchRun
	batchErr error
}

func (f *fakeRecords) CreatePayrollRecord(ctx context.Context, rec PayrollRecord) (*PayrollRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[rec.PayslipNumber] {
		return nil, errors.New("connection reset")
	}
	rec.ID = fmt.Sprintf("ps-%d", len(f.saved)+1)
	f.saved = append(f.saved, rec)
	return &rec, nil
}

func (f *fakeRecords) CreateBatch(ctx context.Context, run BatchRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, run)
	return nil
}

func (f *fakeRecords) UpdateBatch(ctx context.Context, run BatchRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, run)
	return nil
}
