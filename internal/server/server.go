// Package server assembles the HTTP router from the domain modules.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/georgemunganga/bikeshop-backend/internal/modules/auth"
	"github.com/georgemunganga/bikeshop-backend/internal/modules/dispatch"
	"github.com/georgemunganga/bikeshop-backend/internal/modules/inventory"
	"github.com/georgemunganga/bikeshop-backend/internal/modules/purchase"
	"github.com/georgemunganga/bikeshop-backend/internal/modules/rental"
	"github.com/georgemunganga/bikeshop-backend/internal/modules/repair"
	"github.com/georgemunganga/bikeshop-backend/internal/modules/user"
	"github.com/georgemunganga/bikeshop-backend/internal/platform/cache"
	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
	"github.com/georgemunganga/bikeshop-backend/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the shared collaborators every module is built from.
type Deps struct {
	Store     docstore.Store
	Cache     cache.Cache // nil disables item caching
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	TxTimeout time.Duration
}

// NewRouter wires all modules onto one chi router.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(d.Metrics.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	// ── Staff accounts ──────────────────────────────────────
	userRepo := user.NewRepository(d.Store)
	user.NewHandler(user.NewService(userRepo)).RegisterRoutes(router)
	auth.NewHandler(auth.NewService(userRepo, d.Logger)).RegisterRoutes(router)

	// ── Inventory ───────────────────────────────────────────
	inventoryService := inventory.NewService(inventory.NewRepository(d.Store), d.Cache, d.Logger)
	inventory.NewHandler(inventoryService).RegisterRoutes(router)

	// ── Rentals & repairs ───────────────────────────────────
	rental.NewHandler(rental.NewService(rental.NewRepository(d.Store), inventoryService)).RegisterRoutes(router)
	repair.NewHandler(repair.NewService(repair.NewRepository(d.Store))).RegisterRoutes(router)

	// ── Purchase & dispatch ─────────────────────────────────
	processor := purchase.NewProcessor(d.Store,
		purchase.WithTxTimeout(d.TxTimeout),
		purchase.WithInvalidator(inventoryService),
		purchase.WithRecorder(d.Metrics),
		purchase.WithLogger(d.Logger),
	)
	purchase.NewHandler(processor).RegisterRoutes(router)
	dispatch.NewHandler(dispatch.NewService(dispatch.NewRepository(d.Store))).RegisterRoutes(router)

	return router
}
