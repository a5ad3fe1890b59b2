package shared

import (
	"net/http"
	"strconv"

	"payslipgen/internal/platform/validate"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset query parameters. Out of range values
// are reported as validation issues; limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) (Pagination, []validate.Issue) {
	p := Pagination{Limit: defaultLimit}
	var issues []validate.Issue
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			issues = append(issues, validate.Issue{Field: "limit", Reason: "must be a positive integer"})
		} else {
			p.Limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			issues = append(issues, validate.Issue{Field: "offset", Reason: "must be zero or a positive integer"})
		} else {
			p.Offset = v
		}
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p, issues
}
