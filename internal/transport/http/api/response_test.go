package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": []string{"name"}}, "req-1")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var env struct {
		Success   bool `json:"success"`
		RequestID string
		Error     struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "req-1", env.RequestID)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Contains(t, env.Error.Details, "fields")
}

func TestAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	Attachment(rec, "application/pdf", "payslip-EMP001-Jan 2025.pdf", []byte("%PDF-1.3"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="payslip-EMP001-Jan 2025.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "8", rec.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())
}
