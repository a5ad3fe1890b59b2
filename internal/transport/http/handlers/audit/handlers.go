package audithandler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"payslipgen/internal/domain/audit"
	"payslipgen/internal/transport/http/api"
	"payslipgen/internal/transport/http/middleware"
	"payslipgen/internal/transport/http/shared"
)

type Lister interface {
	Count(ctx context.Context, filter audit.Filter) (int, error)
	List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Service Lister
}

func NewHandler(service Lister) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/audit-events", h.handleListEvents)
	r.Get("/audit-events/export", h.handleExportEvents)
}

func filterFrom(r *http.Request) audit.Filter {
	q := r.URL.Query()
	return audit.Filter{Action: q.Get("action"), EntityType: q.Get("entityType"), Actor: q.Get("actor")}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page, issues := shared.ParsePagination(r, 100, 500)
	if len(issues) > 0 {
		shared.FailValidation(w, reqID, issues)
		return
	}
	filter := filterFrom(r)
	includeDetails := r.URL.Query().Get("includeDetails") == "true"

	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("audit count failed")
	}
	events, err := h.Service.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("audit list failed")
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, reqID)
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	events, err := h.Service.List(r.Context(), filterFrom(r), false, 0, 0)
	if err != nil {
		log.Error().Err(err).Msg("audit export failed")
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"}); err != nil {
		log.Warn().Err(err).Msg("audit export header failed")
	}
	for _, evt := range events {
		row := []string{evt.ID, evt.Actor, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.IP, evt.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			log.Warn().Err(err).Msg("audit export row failed")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Warn().Err(err).Msg("audit export flush failed")
	}
}
