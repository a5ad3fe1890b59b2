package company

import "time"

// Settings is the singleton branding record printed on every payslip.
type Settings struct {
	CompanyName    string    `json:"companyName" validate:"required,max=200"`
	CompanyAddress string    `json:"companyAddress" validate:"required,max=500"`
	CompanyGST     string    `json:"companyGst,omitempty" validate:"max=32"`
	LogoURL        string    `json:"logoUrl,omitempty" validate:"max=500"`
	SignatureURL   string    `json:"signatureUrl,omitempty" validate:"max=500"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
