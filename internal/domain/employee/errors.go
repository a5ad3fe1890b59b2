package employee

import "errors"

var (
	ErrNotFound    = errors.New("employee not found")
	ErrDuplicateNo = errors.New("employee number already exists")
	ErrReferenced  = errors.New("employee has payslips and cannot be deleted")
)
