package payslip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"
)

// FileName is the document name for one payslip: payslip-<employeeNo>-<payPeriod>.pdf.
func FileName(employeeNo, payPeriod string) string {
	return fmt.Sprintf("payslip-%s-%s.pdf", safeSegment(employeeNo), safeSegment(payPeriod))
}

func safeSegment(value string) string {
	return strings.NewReplacer("/", "-", "\\", "-", "\x00", "").Replace(strings.TrimSpace(value))
}

type archive struct {
	buf   bytes.Buffer
	zw    *zip.Writer
	names map[string]int
}

func newArchive() *archive {
	a := &archive{names: make(map[string]int)}
	a.zw = zip.NewWriter(&a.buf)
	return a
}

// add stores data under name, suffixing " (n)" when the name was already used.
func (a *archive) add(name string, data []byte, modified time.Time) (string, error) {
	a.names[name]++
	if n := a.names[name]; n > 1 {
		ext := ""
		if i := strings.LastIndex(name, "."); i > 0 {
			name, ext = name[:i], name[i:]
		}
		name = fmt.Sprintf("%s (%d)%s", name, n, ext)
	}

	w, err := a.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return "", fmt.Errorf("add %s to archive: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("write %s to archive: %w", name, err)
	}
	return name, nil
}

func (a *archive) bytes() ([]byte, error) {
	if err := a.zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return a.buf.Bytes(), nil
}
