package http

import (
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
	LogLevel       slog.Level
}

func NewRouter(JWTService jwt.Service, payrollHandler PayrollHandler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/payroll", func(r chi.Router) {
				r.Route("/my", func(r chi.Router) {
					r.Get("/", payrollHandler.GetMyRecord)
					r.Get("/history", payrollHandler.GetMyHistory)
				})

				r.Get("/records", payrollHandler.ListRecords)
				r.Get("/records/export", payrollHandler.ExportRecords)
				r.Get("/summary", payrollHandler.GetSummary)

				r.Route("/employees/{employeeId}", func(r chi.Router) {
					r.Post("/compensation", payrollHandler.SetCompensation)
					r.Get("/rates", payrollHandler.GetRateHistory)
				})

				// Top tier only
				r.With(middleware.RequirePermission(user.PermissionPayrollRecalculate)).
					Post("/recalculate", payrollHandler.Recalculate)
				r.With(middleware.RequirePermission(user.PermissionPayrollFinalize)).
					Patch("/records/{id}/status", payrollHandler.UpdateRecordStatus)
			})
		})
	})
	return r
}
