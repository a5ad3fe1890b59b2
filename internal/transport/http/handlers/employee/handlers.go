package employeehandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"payslipgen/internal/domain/audit"
	"payslipgen/internal/domain/employee"
	"payslipgen/internal/platform/validate"
	"payslipgen/internal/transport/http/api"
	"payslipgen/internal/transport/http/middleware"
	"payslipgen/internal/transport/http/shared"
)

type Handler struct {
	Store employee.StoreAPI
	Audit audit.Recorder
}

func NewHandler(store employee.StoreAPI, rec audit.Recorder) *Handler {
	return &Handler{Store: store, Audit: rec}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.Get(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	emp, ok := decodeEmployee(w, r)
	if !ok {
		return
	}
	created, err := h.Store.Create(r.Context(), emp)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		Action: audit.ActionEmployeeCreate, EntityType: audit.EntityEmployee, EntityID: created.ID, After: snapshot(*created),
	})
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	emp, ok := decodeEmployee(w, r)
	if !ok {
		return
	}
	updated, err := h.Store.Update(r.Context(), chi.URLParam(r, "employeeID"), emp)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		Action: audit.ActionEmployeeUpdate, EntityType: audit.EntityEmployee, EntityID: updated.ID, After: snapshot(*updated),
	})
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "employeeID")
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{Action: audit.ActionEmployeeDelete, EntityType: audit.EntityEmployee, EntityID: id})
	w.WriteHeader(http.StatusNoContent)
}

func decodeEmployee(w http.ResponseWriter, r *http.Request) (employee.Employee, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employee.Employee
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailDecode(w, reqID, err)
		return employee.Employee{}, false
	}
	payload = payload.Trimmed()
	if err := validate.Struct(payload); err != nil {
		if !shared.RejectInvalid(w, reqID, err) {
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		}
		return employee.Employee{}, false
	}
	return payload, true
}

// snapshot leaves out bank and tax identifiers so the audit trail never holds
// them in clear text.
func snapshot(e employee.Employee) map[string]string {
	return map[string]string{
		"employeeNo":  e.EmployeeNo,
		"name":        e.Name,
		"joiningDate": e.JoiningDate,
		"designation": e.Designation,
		"department":  e.Department,
		"location":    e.Location,
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, employee.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, employee.ErrDuplicateNo):
		api.Fail(w, http.StatusConflict, "employee_exists", "an employee with this number already exists", reqID)
	case errors.Is(err, employee.ErrReferenced):
		api.Fail(w, http.StatusConflict, "employee_in_use", "employee has payslips and cannot be deleted", reqID)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("employee request failed")
		api.Fail(w, http.StatusInternalServerError, "employee_store_failed", "failed to process employee request", reqID)
	}
}
