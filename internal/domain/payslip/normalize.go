package payslip

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"payslipgen/internal/domain/employee"
	"payslipgen/internal/platform/validate"
)

// Draft is a normalized row: a payroll record without an employee id and the
// employee attributes the row carries.
type Draft struct {
	Employee employee.Employee
	Record   PayrollRecord
}

// ValidationError lists the required fields a row is missing.
type ValidationError struct {
	Issues []validate.Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + " " + issue.Reason
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type rowIdentity struct {
	EmployeeNo string `json:"employeeNo" validate:"required"`
	Name       string `json:"name" validate:"required"`
	PayPeriod  string `json:"payPeriod" validate:"required"`
}

// Normalize validates the required identity fields and derives payroll totals.
// It performs no I/O and only fails with *ValidationError.
func Normalize(row RawRow) (Draft, error) {
	identity := rowIdentity{
		EmployeeNo: row.Text(ColEmployeeNo),
		Name:       row.Text(ColName),
		PayPeriod:  row.Text(ColPayPeriod),
	}
	if err := validate.Struct(identity); err != nil {
		issues := validate.Issues(err)
		if issues == nil {
			issues = []validate.Issue{{Field: "row", Reason: err.Error()}}
		}
		return Draft{}, &ValidationError{Issues: issues}
	}

	rec := PayrollRecord{
		PayslipNumber:     PayslipNumber(identity.EmployeeNo, identity.PayPeriod),
		PayPeriod:         identity.PayPeriod,
		PayDate:           row.Text(ColPayDate),
		EffectiveWorkDays: row.Count(ColEffectiveWorkDays, DefaultEffectiveWorkDays),
		LOP:               row.Count(ColLOP, 0),
		ELAvailed:         row.Count(ColELAvailed, 0),
		BasicFull:         row.Amount(ColBasicFull),
		BasicActual:       row.Amount(ColBasicActual),
		HRAFull:           row.Amount(ColHRAFull),
		HRAActual:         row.Amount(ColHRAActual),
		ConveyanceFull:    row.Amount(ColConveyanceFull),
		ConveyanceActual:  row.Amount(ColConveyanceActual),
		OtherFull:         row.Amount(ColOtherFull),
		OtherActual:       row.Amount(ColOtherActual),
		SpecialFull:       row.Amount(ColSpecialFull),
		SpecialActual:     row.Amount(ColSpecialActual),
		BonusFull:         row.Amount(ColBonusFull),
		BonusActual:       row.Amount(ColBonusActual),
		PFActual:          row.Amount(ColPFActual),
		ProfTaxActual:     row.Amount(ColProfTaxActual),
		EmployerPF:        row.Amount(ColEmployerPF),
	}
	ComputeTotals(&rec)

	emp := employee.Employee{
		EmployeeNo:    identity.EmployeeNo,
		Name:          identity.Name,
		JoiningDate:   row.Text(ColJoiningDate),
		Designation:   row.Text(ColDesignation),
		Department:    row.Text(ColDepartment),
		Location:      row.Text(ColLocation),
		BankName:      row.Text(ColBankName),
		BankAccountNo: row.Text(ColBankAccountNo),
		IFSCCode:      row.Text(ColIFSCCode),
		PANNumber:     row.Text(ColPANNumber),
		PFNumber:      row.Text(ColPFNumber),
		PFUAN:         row.Text(ColPFUAN),
	}
	return Draft{Employee: emp, Record: rec}, nil
}

// ComputeTotals fills the four derived totals from the component amounts.
func ComputeTotals(rec *PayrollRecord) {
	full := decimal.Zero
	actual := decimal.Zero
	for _, c := range rec.Earnings() {
		full = full.Add(c.Full)
		actual = actual.Add(c.Actual)
	}
	deductions := decimal.Zero
	for _, d := range rec.Deductions() {
		deductions = deductions.Add(d.Actual)
	}
	rec.TotalEarningsFull = full
	rec.TotalEarningsActual = actual
	rec.TotalDeductionsActual = deductions
	rec.NetPay = actual.Sub(deductions)
}

func PayslipNumber(employeeNo, payPeriod string) string {
	return fmt.Sprintf("PSL-%s-%s", employeeNo, payPeriod)
}
