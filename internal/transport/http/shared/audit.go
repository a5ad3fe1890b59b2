package shared

import (
	"net/http"

	"github.com/rs/zerolog"

	"payslipgen/internal/domain/audit"
	"payslipgen/internal/transport/http/middleware"
)

const anonymousActor = "anonymous"

// RecordAudit fills in the caller identity and writes the entry. Failures are
// logged and never fail the request. A nil recorder disables auditing.
func RecordAudit(r *http.Request, rec audit.Recorder, entry audit.Entry) {
	if rec == nil {
		return
	}
	entry.Actor = anonymousActor
	if claims, ok := middleware.GetClaims(r.Context()); ok && claims.Subject != "" {
		entry.Actor = claims.Subject
	}
	entry.RequestID = middleware.GetRequestID(r.Context())
	entry.IP = middleware.ClientIP(r)
	if err := rec.Record(r.Context(), entry); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("action", entry.Action).Msg("audit record failed")
	}
}
