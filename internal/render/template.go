package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"payslipgen/internal/domain/payslip"
)

const (
	defaultCompanyName    = "COMPANY NAME"
	defaultCompanyAddress = "Company Address"
)

const payslipMarkup = `<article class="payslip">
<header>
{{- if .LogoURL}}<img class="logo" src="{{.LogoURL}}" data-height="18">{{end}}
<h1>{{.CompanyName}}</h1>
<p class="center">{{.CompanyAddress}}</p>
{{- if .CompanyGST}}<p class="center">GSTIN: {{.CompanyGST}}</p>{{end}}
<h2>Payslip for the month of {{.PayPeriod}}</h2>
</header>
<table class="details">
<colgroup><col width="22"><col width="28"><col width="22"><col width="28"></colgroup>
<tbody>
{{- range .Details}}
<tr><th>{{.LeftLabel}}</th><td>{{.LeftValue}}</td><th>{{.RightLabel}}</th><td>{{.RightValue}}</td></tr>
{{- end}}
</tbody>
</table>
<table class="earnings">
<colgroup><col width="26"><col width="16"><col width="16"><col width="26"><col width="16"></colgroup>
<thead><tr><th>Earnings</th><th class="num">Full</th><th class="num">Actual</th><th>Deductions</th><th class="num">Actual</th></tr></thead>
<tbody>
{{- range .Lines}}
<tr><td>{{.Earning}}</td><td class="num">{{.Full}}</td><td class="num">{{.Actual}}</td><td>{{.Deduction}}</td><td class="num">{{.DeductionActual}}</td></tr>
{{- end}}
</tbody>
<tfoot><tr><th>Total Earnings: Rs.</th><th class="num">{{.TotalFull}}</th><th class="num">{{.TotalActual}}</th><th>Total Deductions: Rs.</th><th class="num">{{.TotalDeductions}}</th></tr></tfoot>
</table>
<section class="net-pay">
<p class="strong">Net Pay for the month (Total Earnings - Total Deductions): {{.NetPay}}</p>
<p>({{.NetPayWords}} only)</p>
{{- if .EmployerPF}}<p>Employer PF Contribution: Rs. {{.EmployerPF}}</p>{{end}}
</section>
{{- if .SignatureURL}}<img class="signature" src="{{.SignatureURL}}" data-height="15" data-align="right">{{end}}
<footer><p class="center small">This is a system generated payslip and does not require signature.</p></footer>
</article>`

var markupTemplate = template.Must(template.New("payslip").Parse(payslipMarkup))

type detailRow struct {
	LeftLabel, LeftValue   string
	RightLabel, RightValue string
}

type earningLine struct {
	Earning, Full, Actual      string
	Deduction, DeductionActual string
}

type view struct {
	CompanyName     string
	CompanyAddress  string
	CompanyGST      string
	LogoURL         string
	SignatureURL    string
	PayPeriod       string
	Details         []detailRow
	Lines           []earningLine
	TotalFull       string
	TotalActual     string
	TotalDeductions string
	NetPay          string
	NetPayWords     string
	EmployerPF      string
}

// Markup produces the intermediate HTML for one payslip. All values are escaped
// by html/template so employee data cannot alter the document structure.
func Markup(doc payslip.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := markupTemplate.Execute(&buf, newView(doc)); err != nil {
		return nil, fmt.Errorf("execute payslip template: %w", err)
	}
	return buf.Bytes(), nil
}

func newView(doc payslip.Document) view {
	emp, rec := doc.Employee, doc.Record
	v := view{
		CompanyName:     defaultCompanyName,
		CompanyAddress:  defaultCompanyAddress,
		PayPeriod:       rec.PayPeriod,
		TotalFull:       formatAmount(rec.TotalEarningsFull),
		TotalActual:     formatAmount(rec.TotalEarningsActual),
		TotalDeductions: formatAmount(rec.TotalDeductionsActual),
		NetPay:          formatAmount(rec.NetPay),
		NetPayWords:     AmountInWords(rec.NetPay),
	}
	if s := doc.Settings; s != nil {
		if name := strings.TrimSpace(s.CompanyName); name != "" {
			v.CompanyName = name
		}
		if addr := strings.TrimSpace(s.CompanyAddress); addr != "" {
			v.CompanyAddress = addr
		}
		v.CompanyGST = strings.TrimSpace(s.CompanyGST)
		v.LogoURL = strings.TrimSpace(s.LogoURL)
		v.SignatureURL = strings.TrimSpace(s.SignatureURL)
	}
	if !rec.EmployerPF.IsZero() {
		v.EmployerPF = formatAmount(rec.EmployerPF)
	}

	v.Details = []detailRow{
		{"Name", emp.Name, "Employee No", emp.EmployeeNo},
		{"Joining Date", emp.JoiningDate, "Bank Name", emp.BankName},
		{"Designation", emp.Designation, "Bank Account No", emp.BankAccountNo},
		{"Department", emp.Department, "PAN Number", emp.PANNumber},
		{"Location", emp.Location, "PF No", emp.PFNumber},
		{"Effective Work Days", fmt.Sprint(rec.EffectiveWorkDays), "PF UAN", emp.PFUAN},
		{"LOP", fmt.Sprint(rec.LOP), "EL AVAILED", fmt.Sprint(rec.ELAvailed)},
	}

	var earnings []payslip.Component
	for _, c := range rec.Earnings() {
		if c.Visible() {
			earnings = append(earnings, c)
		}
	}
	deductions := rec.Deductions()
	for i := 0; i < max(len(earnings), len(deductions)); i++ {
		var line earningLine
		if i < len(earnings) {
			line.Earning = earnings[i].Label
			line.Full = formatAmount(earnings[i].Full)
			line.Actual = formatAmount(earnings[i].Actual)
		}
		if i < len(deductions) {
			line.Deduction = deductions[i].Label
			line.DeductionActual = formatAmount(deductions[i].Actual)
		}
		v.Lines = append(v.Lines, line)
	}
	return v
}
