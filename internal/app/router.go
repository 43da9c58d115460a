package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/samudra-erp/samudra-erp/internal/agents"
	"github.com/samudra-erp/samudra-erp/internal/archive"
	"github.com/samudra-erp/samudra-erp/internal/bookings"
	"github.com/samudra-erp/samudra-erp/internal/commissions"
	"github.com/samudra-erp/samudra-erp/internal/observability"
	"github.com/samudra-erp/samudra-erp/internal/payments"
	"github.com/samudra-erp/samudra-erp/internal/schedules"
	"github.com/samudra-erp/samudra-erp/internal/shared"
	"github.com/samudra-erp/samudra-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics

	ScheduleHandler   *schedules.Handler
	BookingHandler    *bookings.Handler
	PaymentHandler    *payments.Handler
	CommissionHandler *commissions.Handler
	AgentHandler      *agents.Handler
	ArchiveHandler    *archive.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with Samudra defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(RequireIdentity(params.Logger, params.SessionManager))

		params.ScheduleHandler.MountRoutes(api)
		params.BookingHandler.MountRoutes(api)
		params.PaymentHandler.MountRoutes(api)
		params.CommissionHandler.MountRoutes(api)
		params.AgentHandler.MountRoutes(api)
		params.ArchiveHandler.MountRoutes(api)
	})

	return r
}
