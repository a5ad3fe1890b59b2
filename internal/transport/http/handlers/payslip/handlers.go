package paysliphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"payslipgen/internal/domain/employee"
	"payslipgen/internal/domain/payslip"
	"payslipgen/internal/platform/tabular"
	"payslipgen/internal/transport/http/api"
	"payslipgen/internal/transport/http/middleware"
	"payslipgen/internal/transport/http/shared"
)

// maxErrorsHeader bounds the row errors echoed in X-Errors; the batch record
// keeps the full list.
const maxErrorsHeader = 50

type Generator interface {
	Generate(ctx context.Context, employeeID string, data payslip.RawRow, format payslip.PageFormat) (*payslip.Generated, error)
}

type BatchRunner interface {
	Run(ctx context.Context, req payslip.BatchRequest) (*payslip.BatchResult, error)
}

type History interface {
	List(ctx context.Context, filter payslip.ListFilter) ([]payslip.PayrollRecord, error)
	Get(ctx context.Context, id string) (*payslip.PayrollRecord, error)
	ListBatches(ctx context.Context, limit int) ([]payslip.BatchRun, error)
	GetBatch(ctx context.Context, id string) (*payslip.BatchRun, error)
}

type Handler struct {
	Generator      Generator
	Batches        BatchRunner
	History        History
	MaxUploadBytes int64
	now            func() time.Time
}

func NewHandler(gen Generator, batches BatchRunner, history History, maxUploadBytes int64) *Handler {
	return &Handler{Generator: gen, Batches: batches, History: history, MaxUploadBytes: maxUploadBytes, now: time.Now}
}

// RegisterRoutes mounts the JSON endpoints. renderLimit wraps the endpoints
// that render documents.
func (h *Handler) RegisterRoutes(r chi.Router, renderLimit ...func(http.Handler) http.Handler) {
	r.Get("/payslips", h.handleList)
	r.Get("/payslips/template.csv", h.handleTemplate)
	r.With(renderLimit...).Post("/payslips/generate", h.handleGenerate)
	r.With(renderLimit...).Post("/payslips/bulk-generate", h.handleBulkGenerate)
	r.Get("/payslips/batches", h.handleListBatches)
	r.Get("/payslips/batches/{batchID}", h.handleGetBatch)
	r.Get("/payslips/{payslipID}", h.handleGet)
}

// RegisterUploadRoutes mounts multipart endpoints that need the upload body limit.
func (h *Handler) RegisterUploadRoutes(r chi.Router) {
	r.Post("/payslips/parse-upload", h.handleParseUpload)
}

type generateRequest struct {
	EmployeeID  string         `json:"employeeId"`
	PayslipData payslip.RawRow `json:"payslipData"`
	Format      string         `json:"format"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var req generateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.FailDecode(w, reqID, err)
		return
	}
	if strings.TrimSpace(req.EmployeeID) == "" {
		api.Fail(w, http.StatusBadRequest, "validation_error", "employeeId is required", reqID)
		return
	}

	generated, err := h.Generator.Generate(r.Context(), strings.TrimSpace(req.EmployeeID), req.PayslipData, payslip.PageFormat(req.Format))
	if err != nil {
		h.failGenerate(w, r, err)
		return
	}
	w.Header().Set("X-Payslip-ID", generated.Record.ID)
	api.Attachment(w, "application/pdf", generated.FileName, generated.PDF)
}

type bulkRequest struct {
	Rows    []payslip.RawRow `json:"rows"`
	CSVData string           `json:"csvData"`
	Format  string           `json:"format"`
}

func (h *Handler) handleBulkGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var req bulkRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.FailDecode(w, reqID, err)
		return
	}

	rows := req.Rows
	if len(rows) == 0 && strings.TrimSpace(req.CSVData) != "" {
		parsed, err := tabular.Parse([]byte(req.CSVData))
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_csv", err.Error(), reqID)
			return
		}
		rows = toRawRows(parsed)
	}

	result, err := h.Batches.Run(r.Context(), payslip.BatchRequest{Rows: rows, Format: payslip.PageFormat(req.Format)})
	if err != nil {
		switch {
		case errors.Is(err, payslip.ErrEmptyBatch):
			api.Fail(w, http.StatusBadRequest, "empty_batch", "no payslip rows provided", reqID)
		case errors.Is(err, payslip.ErrUnsupportedFormat):
			api.Fail(w, http.StatusBadRequest, "unsupported_format", err.Error(), reqID)
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("bulk generation failed")
			api.Fail(w, http.StatusInternalServerError, "bulk_generate_failed", "failed to generate payslips", reqID)
		}
		return
	}

	headers := w.Header()
	headers.Set("X-Batch-ID", result.Run.ID)
	headers.Set("X-Success-Count", strconv.Itoa(result.SuccessCount()))
	headers.Set("X-Error-Count", strconv.Itoa(result.ErrorCount()))
	if result.ErrorCount() > 0 {
		errs := result.Errors
		if len(errs) > maxErrorsHeader {
			errs = errs[:maxErrorsHeader]
			headers.Set("X-Errors-Truncated", "true")
		}
		if encoded, err := json.Marshal(errs); err == nil {
			headers.Set("X-Errors", string(encoded))
		}
	}
	api.Attachment(w, "application/zip", fmt.Sprintf("payslips-bulk-%d.zip", h.now().Unix()), result.Archive)
}

func (h *Handler) handleParseUpload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "file too large", reqID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "file_required", "multipart field \"file\" is required", reqID)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "file_unreadable", "failed to read uploaded file", reqID)
		return
	}
	if int64(len(data)) > h.MaxUploadBytes {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "file too large", reqID)
		return
	}

	rows, err := tabular.Parse(data)
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedFormat) {
			api.Fail(w, http.StatusUnsupportedMediaType, "unsupported_file_type", err.Error(), reqID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_upload", err.Error(), reqID)
		return
	}
	api.Success(w, map[string]any{"rows": rows, "rowCount": len(rows)}, reqID)
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := payslip.WriteTemplate(&buf); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("write template failed")
		api.Fail(w, http.StatusInternalServerError, "template_failed", "failed to build template", middleware.GetRequestID(r.Context()))
		return
	}
	api.Attachment(w, "text/csv; charset=utf-8", "payslip-template.csv", buf.Bytes())
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page, issues := shared.ParsePagination(r, 50, 200)
	if len(issues) > 0 {
		shared.FailValidation(w, reqID, issues)
		return
	}
	records, err := h.History.List(r.Context(), payslip.ListFilter{
		EmployeeID: strings.TrimSpace(r.URL.Query().Get("employeeId")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list payslips failed")
		api.Fail(w, http.StatusInternalServerError, "payslip_list_failed", "failed to list payslips", reqID)
		return
	}
	api.Success(w, records, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	record, err := h.History.Get(r.Context(), chi.URLParam(r, "payslipID"))
	if err != nil {
		if errors.Is(err, payslip.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payslip not found", reqID)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("get payslip failed")
		api.Fail(w, http.StatusInternalServerError, "payslip_get_failed", "failed to load payslip", reqID)
		return
	}
	api.Success(w, record, reqID)
}

func (h *Handler) handleListBatches(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page, issues := shared.ParsePagination(r, 20, 100)
	if len(issues) > 0 {
		shared.FailValidation(w, reqID, issues)
		return
	}
	runs, err := h.History.ListBatches(r.Context(), page.Limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list batches failed")
		api.Fail(w, http.StatusInternalServerError, "batch_list_failed", "failed to list batches", reqID)
		return
	}
	api.Success(w, runs, reqID)
}

func (h *Handler) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	run, err := h.History.GetBatch(r.Context(), chi.URLParam(r, "batchID"))
	if err != nil {
		if errors.Is(err, payslip.ErrBatchNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "batch not found", reqID)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("get batch failed")
		api.Fail(w, http.StatusInternalServerError, "batch_get_failed", "failed to load batch", reqID)
		return
	}
	api.Success(w, run, reqID)
}

func (h *Handler) failGenerate(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var verr *payslip.ValidationError
	switch {
	case errors.As(err, &verr):
		shared.FailValidation(w, reqID, verr.Issues)
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, payslip.ErrUnsupportedFormat):
		api.Fail(w, http.StatusBadRequest, "unsupported_format", err.Error(), reqID)
	case errors.Is(err, payslip.ErrRender):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("payslip render failed")
		api.Fail(w, http.StatusInternalServerError, "render_failed", "failed to render payslip", reqID)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("payslip generation failed")
		api.Fail(w, http.StatusInternalServerError, "generate_failed", "failed to generate payslip", reqID)
	}
}

func toRawRows(rows []tabular.Row) []payslip.RawRow {
	out := make([]payslip.RawRow, len(rows))
	for i, row := range rows {
		out[i] = payslip.FromText(row)
	}
	return out
}
