package payslip

import "errors"

var (
	ErrEmptyBatch        = errors.New("batch contains no rows")
	ErrUnsupportedFormat = errors.New("unsupported page format")
	ErrValidation        = errors.New("row validation failed")
	ErrRender            = errors.New("document render failed")
	ErrDeadline          = errors.New("batch deadline exceeded before row was processed")
	ErrNotFound          = errors.New("payslip not found")
	ErrBatchNotFound     = errors.New("batch not found")
)
