package companyhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payslipgen/internal/domain/audit"
	"payslipgen/internal/domain/company"
	"payslipgen/internal/platform/storage"
)

type memSettings struct {
	current *company.Settings
}

func (m *memSettings) Get(context.Context) (*company.Settings, error) {
	return m.current, nil
}

func (m *memSettings) Upsert(_ context.Context, s company.Settings) (*company.Settings, error) {
	m.current = &s
	return &s, nil
}

func newRouter(t *testing.T, store company.StoreAPI, maxUpload int64) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocal(dir)
	require.NoError(t, err)
	h := NewHandler(store, local, nil, maxUpload)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	h.RegisterUploadRoutes(r)
	return r, dir
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestSettingsRoundTrip(t *testing.T) {
	store := &memSettings{}
	h, _ := newRouter(t, store, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/company-settings",
		strings.NewReader(`{"companyName":" Acme Corp ","companyAddress":"1 Main St","companyGst":"29ABCDE1234F1Z5"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, store.current)
	assert.Equal(t, "Acme Corp", store.current.CompanyName)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/company-settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data company.Settings `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "29ABCDE1234F1Z5", env.Data.CompanyGST)
}

type memAudit struct {
	entries []audit.Entry
}

func (m *memAudit) Record(_ context.Context, entry audit.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func TestSettingsAndUploadsAreAudited(t *testing.T) {
	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	trail := &memAudit{}
	r := chi.NewRouter()
	h := NewHandler(&memSettings{}, local, trail, 1<<20)
	h.RegisterRoutes(r)
	h.RegisterUploadRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/company-settings",
		strings.NewReader(`{"companyName":"Acme Corp","companyAddress":"1 Main St"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	body, contentType := multipartBody(t, "file", "sig.png", pngImage(t))
	req := httptest.NewRequest(http.MethodPost, "/uploads/signature", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, trail.entries, 2)
	assert.Equal(t, audit.ActionSettingsUpdate, trail.entries[0].Action)
	assert.Equal(t, audit.ActionBrandingUpload, trail.entries[1].Action)
	assert.Equal(t, "192.0.2.1", trail.entries[1].IP, "forwarding header from an untrusted peer is ignored")
}

func TestSettingsValidation(t *testing.T) {
	h, _ := newRouter(t, &memSettings{}, 1<<20)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/company-settings", strings.NewReader(`{"companyName":"Acme"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "companyAddress")
}

func TestUploadStoresImage(t *testing.T) {
	h, dir := newRouter(t, &memSettings{}, 1<<20)
	body, contentType := multipartBody(t, "file", "logo.png", pngImage(t))

	req := httptest.NewRequest(http.MethodPost, "/uploads/logo", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	url := env.Data["url"]
	require.True(t, strings.HasPrefix(url, storage.PublicPrefix+"logo-"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	_, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(url, storage.PublicPrefix)))
	assert.NoError(t, err)
}

func TestUploadRejections(t *testing.T) {
	h, _ := newRouter(t, &memSettings{}, 64)

	send := func(path string, data []byte) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, "file", "upload.bin", data)
		req := httptest.NewRequest(http.MethodPost, path, body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNotFound, send("/uploads/avatar", pngImage(t)).Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, send("/uploads/logo", []byte("just some text")).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, send("/uploads/signature", bytes.Repeat([]byte{0x89}, 200)).Code)

	req := httptest.NewRequest(http.MethodPost, "/uploads/logo", strings.NewReader("no multipart"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsUndecodableImage(t *testing.T) {
	h, dir := newRouter(t, &memSettings{}, 1<<20)
	truncated := pngImage(t)[:33]

	body, contentType := multipartBody(t, "file", "logo.png", truncated)
	req := httptest.NewRequest(http.MethodPost, "/uploads/logo", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_image")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
