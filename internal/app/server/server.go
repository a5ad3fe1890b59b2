package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"payslipgen/internal/app/bootstrap"
	"payslipgen/internal/domain/audit"
	"payslipgen/internal/domain/company"
	"payslipgen/internal/domain/employee"
	"payslipgen/internal/platform/config"
	"payslipgen/internal/platform/logger"
	"payslipgen/internal/platform/metrics"
	"payslipgen/internal/platform/storage"
	"payslipgen/internal/transport/http/api"
	audithandler "payslipgen/internal/transport/http/handlers/audit"
	companyhandler "payslipgen/internal/transport/http/handlers/company"
	employeehandler "payslipgen/internal/transport/http/handlers/employee"
	paysliphandler "payslipgen/internal/transport/http/handlers/payslip"
	"payslipgen/internal/transport/http/middleware"
)

// multipartOverhead is added to the upload limit for form boundaries and headers.
const multipartOverhead = 1 << 20

type App struct {
	Config     config.Config
	Components *bootstrap.Components
	Router     http.Handler
	log        zerolog.Logger
}

// AuditTrail records and lists change events.
type AuditTrail interface {
	audit.Recorder
	audithandler.Lister
}

// Deps are the collaborators the router needs; tests supply fakes.
type Deps struct {
	Employees employee.StoreAPI
	Settings  company.StoreAPI
	Uploads   *storage.Local
	Generator paysliphandler.Generator
	Batches   paysliphandler.BatchRunner
	History   paysliphandler.History
	Audit     AuditTrail
	Metrics   *metrics.Collector
	Ready     func(ctx context.Context) error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	components, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	router := NewRouter(cfg, Deps{
		Employees: components.Employees,
		Settings:  components.Settings,
		Uploads:   components.Uploads,
		Generator: components.Service,
		Batches:   components.Orchestrator,
		History:   components.Records,
		Audit:     components.Audit,
		Metrics:   components.Metrics,
		Ready:     components.Ready,
	})
	return &App{Config: cfg, Components: components, Router: router, log: logger.WithComponent("server")}, nil
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log := logger.WithComponent("server")
		log.Warn().Err(err).Msg("TRUSTED_PROXIES ignored")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP(trusted))
	router.Use(middleware.Logger(d.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if d.Ready != nil {
			if err := d.Ready(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if d.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	if d.Uploads != nil {
		router.Handle(storage.PublicPrefix+"*", http.StripPrefix(storage.PublicPrefix, http.FileServer(http.Dir(d.Uploads.Dir))))
	}

	var recorder audit.Recorder
	if d.Audit != nil {
		recorder = d.Audit
	}
	companyHandler := companyhandler.NewHandler(d.Settings, d.Uploads, recorder, cfg.MaxUploadBytes)
	payslipHandler := paysliphandler.NewHandler(d.Generator, d.Batches, d.History, cfg.MaxUploadBytes)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
			employeehandler.NewHandler(d.Employees, recorder).RegisterRoutes(r)
			companyHandler.RegisterRoutes(r)
			if d.Audit != nil {
				audithandler.NewHandler(d.Audit).RegisterRoutes(r)
			}
			payslipHandler.RegisterRoutes(r, middleware.RateLimit(cfg.RenderRateLimit, time.Minute))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(cfg.MaxUploadBytes + multipartOverhead))
			companyHandler.RegisterUploadRoutes(r)
			payslipHandler.RegisterUploadRoutes(r)
		})
	})

	return router
}

// Run serves until ctx is cancelled and then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      a.Config.BatchTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	if a.Components != nil && a.Components.Jobs != nil {
		a.Components.Jobs.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.Config.Addr).Msg("payslip server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() {
	a.Components.Close()
}
