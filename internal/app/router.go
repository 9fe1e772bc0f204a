package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gescom-app/gescom/internal/auth"
	"github.com/gescom-app/gescom/internal/billing"
	"github.com/gescom-app/gescom/internal/catalog"
	"github.com/gescom-app/gescom/internal/clients"
	"github.com/gescom-app/gescom/internal/masterdata/channels"
	"github.com/gescom-app/gescom/internal/masterdata/registers"
	"github.com/gescom-app/gescom/internal/observability"
	"github.com/gescom-app/gescom/internal/orders"
	"github.com/gescom-app/gescom/internal/settlement"
	"github.com/gescom-app/gescom/internal/shared"
	"github.com/gescom-app/gescom/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Pool           *pgxpool.Pool
	Metrics        *observability.Metrics

	// MasterdataGuard gates channel and register mutations, typically
	// auth.RequireRole for admin and manager accounts.
	MasterdataGuard func(http.Handler) http.Handler

	AuthHandler       *auth.Handler
	ClientsHandler    *clients.Handler
	CatalogHandler    *catalog.Handler
	ChannelsHandler   *channels.Handler
	RegistersHandler  *registers.Handler
	OrdersHandler     *orders.Handler
	SettlementHandler *settlement.Handler
	BillingHandler    *billing.Handler
	JobsHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
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

	params.AuthHandler.MountRoutes(r)

	// Everything below requires a logged-in account.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		params.ClientsHandler.MountRoutes(r)
		params.CatalogHandler.MountRoutes(r)
		params.ChannelsHandler.MountRoutes(r, params.MasterdataGuard)
		params.RegistersHandler.MountRoutes(r, params.MasterdataGuard)
		params.OrdersHandler.MountRoutes(r)
		params.SettlementHandler.MountRoutes(r)
		params.BillingHandler.MountRoutes(r)
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
