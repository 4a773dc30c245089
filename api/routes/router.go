package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storekart/storekart-backend/api/controllers"
	"github.com/storekart/storekart-backend/api/middleware"
	"github.com/storekart/storekart-backend/internal/assignments"
	"github.com/storekart/storekart-backend/internal/payouts"
	"github.com/storekart/storekart-backend/internal/wallet"
	"github.com/storekart/storekart-backend/pkg/config"
	"github.com/storekart/storekart-backend/pkg/db"
	"github.com/storekart/storekart-backend/pkg/logger"
	"github.com/storekart/storekart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	metricsHandler http.Handler,
	assignmentsService assignments.Service,
	walletService wallet.Service,
	payoutsService payouts.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/agent", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("agent", logg))

		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", controllers.AgentAssignments(assignmentsService, logg))
			r.Get("/queue", controllers.AgentAssignmentQueue(assignmentsService, logg))
			r.Post("/{assignmentId}/claim", controllers.AgentClaimAssignment(assignmentsService, logg))
			r.Post("/{assignmentId}/status", controllers.AgentUpdateAssignmentStatus(assignmentsService, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.AgentWalletBalance(walletService, logg))
			r.Get("/earnings", controllers.AgentWalletEarnings(walletService, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", controllers.AgentRequestPayout(payoutsService, logg))
			r.Get("/", controllers.AgentPayoutRequests(payoutsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Post("/assignments", controllers.AdminCreateAssignment(assignmentsService, logg))

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.AdminPayoutRequests(payoutsService, logg))
			r.Post("/{requestId}/approve", controllers.AdminApprovePayout(payoutsService, logg))
			r.Post("/{requestId}/reject", controllers.AdminRejectPayout(payoutsService, logg))
			r.Post("/{requestId}/mark-paid", controllers.AdminMarkPayoutPaid(payoutsService, logg))
		})
	})

	return r
}
