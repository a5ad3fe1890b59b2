package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"payslipgen/internal/platform/validate"
	"payslipgen/internal/transport/http/api"
)

var ErrBodyTooLarge = errors.New("request body too large")

// DecodeJSON reads a single JSON document from the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return ErrBodyTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is empty")
		default:
			return fmt.Errorf("invalid json: %w", err)
		}
	}
	if dec.More() {
		return errors.New("invalid json: unexpected data after document")
	}
	return nil
}

// FailDecode answers a DecodeJSON error.
func FailDecode(w http.ResponseWriter, requestID string, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return
	}
	api.Fail(w, http.StatusBadRequest, "invalid_json", err.Error(), requestID)
}

// RejectInvalid answers with the validation issues carried by err and reports
// whether it did so.
func RejectInvalid(w http.ResponseWriter, requestID string, err error) bool {
	issues := validate.Issues(err)
	if len(issues) == 0 {
		return false
	}
	FailValidation(w, requestID, issues)
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []validate.Issue) {
	out := make([]validate.Issue, len(issues))
	copy(out, issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": out},
		requestID,
	)
}
