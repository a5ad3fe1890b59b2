package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payslipgen/internal/platform/auth"
	"payslipgen/internal/platform/metrics"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-42")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-42", seen)
}

func TestRequestIDReplacesMalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id\nwith newline")
	rec := httptest.NewRecorder()
	RequestID(okHandler).ServeHTTP(rec, req)

	assert.NotEqual(t, "bad id\nwith newline", rec.Header().Get(RequestIDHeader))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	rec := httptest.NewRecorder()
	Auth("")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequiresBearerToken(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, "ops", "operator", time.Hour)
	require.NoError(t, err)

	var subject string
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaims(r.Context())
		require.True(t, ok)
		subject = claims.Subject
	}))

	tests := map[string]struct {
		header string
		status int
	}{
		"missing":      {"", http.StatusUnauthorized},
		"wrong scheme": {"Basic " + token, http.StatusUnauthorized},
		"invalid":      {"Bearer nope", http.StatusUnauthorized},
		"valid":        {"Bearer " + token, http.StatusOK},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
	assert.Equal(t, "ops", subject)
}

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		_, err := r.Body.Read(buf)
		if err != nil && err.Error() == "http: request body too large" {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "payload_too_large")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovererReturnsEnvelope(t *testing.T) {
	handler := RequestID(Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"internal_error"`)
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(RequestID, Logger(m))
	r.Get("/api/v1/employees/{employeeID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/employees/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	metricsRec := httptest.NewRecorder()
	m.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(),
		`payslipgen_http_requests_total{method="GET",route="/api/v1/employees/{employeeID}",status="404"} 1`)
	count, err := testutil.GatherAndCount(m.Registry(), "payslipgen_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(okHandler)
	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payslips/bulk-generate", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	limited := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

func TestRateLimitIgnoresSpoofedForwardingHeader(t *testing.T) {
	handler := RealIP(nil)(RateLimit(1, time.Minute)(okHandler))
	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payslips/bulk-generate", nil)
		req.RemoteAddr = "198.51.100.9:5000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.2"))
}

func TestClientIPResolution(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		remote    string
		forwarded []string
		want      string
	}{
		{name: "untrusted peer", remote: "198.51.100.9:4000", forwarded: []string{"203.0.113.1"}, want: "198.51.100.9"},
		{name: "trusted peer", remote: "10.1.2.3:4000", forwarded: []string{"203.0.113.1"}, want: "203.0.113.1"},
		{name: "client supplied prefix", remote: "10.1.2.3:4000", forwarded: []string{"1.1.1.1, 203.0.113.1"}, want: "203.0.113.1"},
		{name: "proxy chain", remote: "192.0.2.10:4000", forwarded: []string{"203.0.113.1", "10.0.0.5"}, want: "203.0.113.1"},
		{name: "trusted peer without header", remote: "10.1.2.3:4000", want: "10.1.2.3"},
		{name: "garbage hop", remote: "10.1.2.3:4000", forwarded: []string{"not-an-ip"}, want: "10.1.2.3"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			handler := RealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIP(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for _, f := range tc.forwarded {
				req.Header.Add("X-Forwarded-For", f)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, got)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestRateLimitWindowResets(t *testing.T) {
	rl := newRateLimiter(1, time.Minute, callerKey)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _, _ := rl.take("k")
	assert.True(t, ok)
	ok, _, _ = rl.take("k")
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, remaining, _ := rl.take("k")
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)
}

func TestRateLimitDisabled(t *testing.T) {
	handler := RateLimit(0, time.Minute)(okHandler)
	for range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(true)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Batch-ID")
}
