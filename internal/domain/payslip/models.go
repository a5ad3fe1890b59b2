package payslip

import (
	"time"

	"github.com/shopspring/decimal"

	"payslipgen/internal/domain/company"
	"payslipgen/internal/domain/employee"
)

// PayrollRecord is one generated payslip. NetPay always equals
// TotalEarningsActual minus TotalDeductionsActual; Normalize establishes it.
type PayrollRecord struct {
	ID                    string          `json:"id"`
	EmployeeID            string          `json:"employeeId"`
	BatchID               string          `json:"batchId,omitempty"`
	PayslipNumber         string          `json:"payslipNumber"`
	PayPeriod             string          `json:"payPeriod"`
	PayDate               string          `json:"payDate"`
	EffectiveWorkDays     int             `json:"effectiveWorkDays"`
	LOP                   int             `json:"lop"`
	ELAvailed             int             `json:"elAvailed"`
	BasicFull             decimal.Decimal `json:"basicFull"`
	BasicActual           decimal.Decimal `json:"basicActual"`
	HRAFull               decimal.Decimal `json:"hraFull"`
	HRAActual             decimal.Decimal `json:"hraActual"`
	ConveyanceFull        decimal.Decimal `json:"conveyanceAllowanceFull"`
	ConveyanceActual      decimal.Decimal `json:"conveyanceAllowanceActual"`
	OtherFull             decimal.Decimal `json:"otherAllowanceFull"`
	OtherActual           decimal.Decimal `json:"otherAllowanceActual"`
	SpecialFull           decimal.Decimal `json:"specialAllowanceFull"`
	SpecialActual         decimal.Decimal `json:"specialAllowanceActual"`
	BonusFull             decimal.Decimal `json:"bounsIncentiveFull"`
	BonusActual           decimal.Decimal `json:"bounsIncentiveActual"`
	PFActual              decimal.Decimal `json:"pfActual"`
	ProfTaxActual         decimal.Decimal `json:"profTaxActual"`
	TotalEarningsFull     decimal.Decimal `json:"totalEarningsFull"`
	TotalEarningsActual   decimal.Decimal `json:"totalEarningsActual"`
	TotalDeductionsActual decimal.Decimal `json:"totalDeductionsActual"`
	NetPay                decimal.Decimal `json:"netPay"`
	EmployerPF            decimal.Decimal `json:"employerPf"`
	CreatedAt             time.Time       `json:"createdAt"`
}

// Component is one earning line. Optional lines are printed only when nonzero.
type Component struct {
	Label    string
	Full     decimal.Decimal
	Actual   decimal.Decimal
	Optional bool
}

type Deduction struct {
	Label  string
	Actual decimal.Decimal
}

func (r PayrollRecord) Earnings() []Component {
	return []Component{
		{Label: "BASIC", Full: r.BasicFull, Actual: r.BasicActual},
		{Label: "HRA", Full: r.HRAFull, Actual: r.HRAActual},
		{Label: "CONVEYANCE ALLOWANCE", Full: r.ConveyanceFull, Actual: r.ConveyanceActual, Optional: true},
		{Label: "OTHER ALLOWANCE", Full: r.OtherFull, Actual: r.OtherActual, Optional: true},
		{Label: "SPECIAL ALLOWANCE", Full: r.SpecialFull, Actual: r.SpecialActual, Optional: true},
		{Label: "BOUNS/INCENTIVE", Full: r.BonusFull, Actual: r.BonusActual, Optional: true},
	}
}

func (r PayrollRecord) Deductions() []Deduction {
	return []Deduction{
		{Label: "PF", Actual: r.PFActual},
		{Label: "PROF TAX", Actual: r.ProfTaxActual},
	}
}

// Visible reports whether the component should appear on the document.
func (c Component) Visible() bool {
	return !c.Optional || !c.Full.IsZero() || !c.Actual.IsZero()
}

// Document is everything the renderer needs for one payslip.
type Document struct {
	Employee employee.Employee
	Record   PayrollRecord
	Settings *company.Settings
}

type RowError struct {
	Row        int    `json:"row"`
	EmployeeNo string `json:"employeeNo"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}

type BatchRun struct {
	ID           string      `json:"id"`
	Status       BatchStatus `json:"status"`
	Format       PageFormat  `json:"format"`
	TotalRows    int         `json:"totalRows"`
	SuccessCount int         `json:"successCount"`
	ErrorCount   int         `json:"errorCount"`
	Errors       []RowError  `json:"errors"`
	StartedAt    time.Time   `json:"startedAt"`
	FinishedAt   *time.Time  `json:"finishedAt,omitempty"`
}

// Generated is a successfully rendered and persisted payslip.
type Generated struct {
	Row      int               `json:"row"`
	FileName string            `json:"fileName"`
	Employee employee.Employee `json:"employee"`
	Record   PayrollRecord     `json:"record"`
	PDF      []byte            `json:"-"`
}

type ListFilter struct {
	EmployeeID string
	Limit      int
	Offset     int
}
