package payslip

import (
	"encoding/csv"
	"io"
)

var templateSamples = [][]string{
	{"EMP001", "John Doe", "01 Jan 2020", "Software Engineer", "Engineering", "Bangalore", "State Bank of India",
		"1234567890", "SBIN0001234", "ABCDE1234F", "PF12345678", "123456789012", "Jan 2025", "31/01/2025",
		"31", "0", "0", "40000", "40000", "15000", "15000", "3000", "3000", "3000", "3000",
		"10000", "10000", "5000", "5000", "7250", "200", "7250"},
	{"EMP002", "Jane Smith", "15 Mar 2021", "Senior Developer", "Engineering", "Mumbai", "HDFC Bank",
		"9876543210", "HDFC0001234", "XYZAB5678C", "PF87654321", "987654321098", "Jan 2025", "31/01/2025",
		"31", "0", "0", "50000", "50000", "20000", "20000", "4000", "4000", "4000", "4000",
		"12000", "12000", "6000", "6000", "9000", "200", "9000"},
}

// WriteTemplate writes the upload sheet header followed by two sample rows.
func WriteTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(templateSamples); err != nil {
		return err
	}
	return cw.Error()
}
