package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusfreestore/freestore-backend/api/controllers"
	"github.com/campusfreestore/freestore-backend/api/middleware"
	authsvc "github.com/campusfreestore/freestore-backend/internal/auth"
	checkoutsvc "github.com/campusfreestore/freestore-backend/internal/checkout"
	enrollsvc "github.com/campusfreestore/freestore-backend/internal/enroll"
	inventorysvc "github.com/campusfreestore/freestore-backend/internal/inventory"
	orderssvc "github.com/campusfreestore/freestore-backend/internal/orders"
	"github.com/campusfreestore/freestore-backend/pkg/auth/session"
	"github.com/campusfreestore/freestore-backend/pkg/config"
	"github.com/campusfreestore/freestore-backend/pkg/db"
	"github.com/campusfreestore/freestore-backend/pkg/db/models"
	"github.com/campusfreestore/freestore-backend/pkg/logger"
	"github.com/campusfreestore/freestore-backend/pkg/metrics"
	"github.com/campusfreestore/freestore-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *db.Client
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics

	Auth      authsvc.Service
	Inventory inventorysvc.Service
	Orders    orderssvc.Service
	Enroll    enrollsvc.Service
	Checkout  checkoutsvc.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).
			Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	// Staff surface. Employees manage stock; catalog and location lifecycle
	// plus order reports are manager-only.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", controllers.InventoryList(deps.Inventory, logg))
			r.Get("/stock-check", controllers.InventoryStockCheck(deps.Inventory, logg))
			r.Post("/stock-update", controllers.InventoryStockUpdate(deps.Inventory, logg))
			r.Put("/{inventoryID}", controllers.InventoryEditQuantity(deps.Inventory, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.Inventory, logg))
			r.Get("/lookup", controllers.ProductsLookup(deps.Inventory, logg))
			r.Post("/", controllers.ProductsAdd(deps.Inventory, logg))
			r.With(middleware.RequireRole(models.RoleManager, logg)).
				Post("/{productID}/deactivate", controllers.ProductsDeactivate(deps.Inventory, logg))
			r.With(middleware.RequireRole(models.RoleManager, logg)).
				Post("/{productID}/reactivate", controllers.ProductsReactivate(deps.Inventory, logg))
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", controllers.LocationsList(deps.Inventory, logg))
			r.With(middleware.RequireRole(models.RoleManager, logg)).
				Post("/", controllers.LocationsAdd(deps.Inventory, logg))
			r.With(middleware.RequireRole(models.RoleManager, logg)).
				Post("/{locationID}/deactivate", controllers.LocationsDeactivate(deps.Inventory, logg))
			r.With(middleware.RequireRole(models.RoleManager, logg)).
				Post("/{locationID}/reactivate", controllers.LocationsReactivate(deps.Inventory, logg))
		})

		r.With(middleware.RequireRole(models.RoleManager, logg)).
			Get("/orders/recent", controllers.OrdersRecent(deps.Orders, logg))

		// The wizard runs on a staff device but keys its state off the
		// browser session, so the cookie middleware stacks on top of JWT.
		r.Route("/enroll", func(r chi.Router) {
			r.Use(middleware.Session(cfg.Session, logg))
			r.Get("/", controllers.EnrollState(deps.Enroll, logg))
			r.Post("/location", controllers.EnrollSelectLocation(deps.Enroll, logg))
			r.Post("/scan", controllers.EnrollScan(deps.Enroll, logg))
			r.Post("/product", controllers.EnrollNewProduct(deps.Enroll, logg))
			r.Post("/quantity", controllers.EnrollQuantity(deps.Enroll, logg))
			r.Post("/cancel", controllers.EnrollCancel(deps.Enroll, logg))
		})
	})

	// Customer surface. No accounts; the cart rides the session cookie.
	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/", controllers.CheckoutShopfloor(deps.Checkout, logg))
		r.Get("/cart", controllers.CheckoutGetCart(deps.Checkout, logg))
		r.Post("/cart", controllers.CheckoutAddToCart(deps.Checkout, logg))
		r.Delete("/cart/{inventoryID}", controllers.CheckoutRemoveFromCart(deps.Checkout, logg))
		r.Post("/orders", controllers.CheckoutCommitOrder(deps.Checkout, logg))
	})

	return r
}
