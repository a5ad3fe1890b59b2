package employee

import (
	"strings"
	"time"
)

type Employee struct {
	ID            string    `json:"id"`
	EmployeeNo    string    `json:"employeeNo" validate:"required,max=64"`
	Name          string    `json:"name" validate:"required,max=200"`
	JoiningDate   string    `json:"joiningDate" validate:"max=64"`
	Designation   string    `json:"designation" validate:"max=200"`
	Department    string    `json:"department" validate:"max=200"`
	Location      string    `json:"location" validate:"max=200"`
	BankName      string    `json:"bankName" validate:"max=200"`
	BankAccountNo string    `json:"bankAccountNo" validate:"max=64"`
	IFSCCode      string    `json:"ifscCode" validate:"max=32"`
	PANNumber     string    `json:"panNumber" validate:"max=32"`
	PFNumber      string    `json:"pfNumber,omitempty" validate:"max=64"`
	PFUAN         string    `json:"pfUan,omitempty" validate:"max=64"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Trimmed returns e with surrounding whitespace removed from every text field.
func (e Employee) Trimmed() Employee {
	for _, f := range []*string{
		&e.EmployeeNo, &e.Name, &e.JoiningDate, &e.Designation, &e.Department, &e.Location,
		&e.BankName, &e.BankAccountNo, &e.IFSCCode, &e.PANNumber, &e.PFNumber, &e.PFUAN,
	} {
		*f = strings.TrimSpace(*f)
	}
	return e
}
