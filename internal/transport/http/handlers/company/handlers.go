package companyhandler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"payslipgen/internal/domain/audit"
	"payslipgen/internal/domain/company"
	"payslipgen/internal/platform/validate"
	"payslipgen/internal/render"
	"payslipgen/internal/transport/http/api"
	"payslipgen/internal/transport/http/middleware"
	"payslipgen/internal/transport/http/shared"
)

// Uploader stores branding images and returns their public reference.
type Uploader interface {
	Save(kind, ext string, data []byte) (string, error)
}

var uploadKinds = map[string]bool{"logo": true, "signature": true}

var imageTypes = []string{"image/png", "image/jpeg", "image/gif"}

type Handler struct {
	Store          company.StoreAPI
	Uploads        Uploader
	Audit          audit.Recorder
	MaxUploadBytes int64
}

func NewHandler(store company.StoreAPI, uploads Uploader, rec audit.Recorder, maxUploadBytes int64) *Handler {
	return &Handler{Store: store, Uploads: uploads, Audit: rec, MaxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/company-settings", h.handleGetSettings)
	r.Put("/company-settings", h.handlePutSettings)
}

// RegisterUploadRoutes is separate so the caller can apply a larger body limit.
func (h *Handler) RegisterUploadRoutes(r chi.Router) {
	r.Post("/uploads/{kind}", h.handleUpload)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.Get(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("load company settings failed")
		api.Fail(w, http.StatusInternalServerError, "settings_load_failed", "failed to load company settings", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload company.Settings
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailDecode(w, reqID, err)
		return
	}
	payload.CompanyName = strings.TrimSpace(payload.CompanyName)
	payload.CompanyAddress = strings.TrimSpace(payload.CompanyAddress)
	payload.CompanyGST = strings.TrimSpace(payload.CompanyGST)
	payload.LogoURL = strings.TrimSpace(payload.LogoURL)
	payload.SignatureURL = strings.TrimSpace(payload.SignatureURL)
	if err := validate.Struct(payload); err != nil {
		if !shared.RejectInvalid(w, reqID, err) {
			api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
		}
		return
	}

	saved, err := h.Store.Upsert(r.Context(), payload)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("save company settings failed")
		api.Fail(w, http.StatusInternalServerError, "settings_save_failed", "failed to save company settings", reqID)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		Action: audit.ActionSettingsUpdate, EntityType: audit.EntityCompanySettings, EntityID: "1", After: saved,
	})
	api.Success(w, saved, reqID)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	kind := chi.URLParam(r, "kind")
	if !uploadKinds[kind] {
		api.Fail(w, http.StatusNotFound, "unknown_upload_kind", "upload kind must be logo or signature", reqID)
		return
	}

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
	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), imageTypes...) {
		api.FailWithDetails(w, http.StatusUnsupportedMediaType, "unsupported_file_type", "only PNG, JPEG or GIF images are accepted",
			map[string]any{"detected": detected.String()}, reqID)
		return
	}
	if err := render.ValidateImage(data); err != nil {
		api.FailWithDetails(w, http.StatusUnprocessableEntity, "invalid_image", "image could not be decoded",
			map[string]any{"reason": err.Error()}, reqID)
		return
	}

	ref, err := h.Uploads.Save(kind, detected.Extension(), data)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("kind", kind).Msg("store upload failed")
		api.Fail(w, http.StatusInternalServerError, "upload_failed", "failed to store file", reqID)
		return
	}
	result := map[string]string{"kind": kind, "url": ref}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		Action: audit.ActionBrandingUpload, EntityType: audit.EntityCompanySettings, EntityID: "1", After: result,
	})
	api.Created(w, result, reqID)
}
