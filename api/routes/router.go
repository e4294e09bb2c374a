package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitbite/splitbite-backend/api/controllers"
	"github.com/splitbite/splitbite-backend/api/middleware"
	authsvc "github.com/splitbite/splitbite-backend/internal/auth"
	cartsvc "github.com/splitbite/splitbite-backend/internal/cart"
	checkoutsvc "github.com/splitbite/splitbite-backend/internal/checkout"
	groupsvc "github.com/splitbite/splitbite-backend/internal/groups"
	ordersvc "github.com/splitbite/splitbite-backend/internal/orders"
	restaurantsvc "github.com/splitbite/splitbite-backend/internal/restaurants"
	settlementsvc "github.com/splitbite/splitbite-backend/internal/settlement"
	usersvc "github.com/splitbite/splitbite-backend/internal/users"
	"github.com/splitbite/splitbite-backend/pkg/auth/session"
	"github.com/splitbite/splitbite-backend/pkg/config"
	"github.com/splitbite/splitbite-backend/pkg/logger"
	"github.com/splitbite/splitbite-backend/pkg/metrics"
	pkgredis "github.com/splitbite/splitbite-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	Sessions        session.AccessSessionChecker
	Idempotency     pkgredis.IdempotencyStore
	HTTPMetrics     *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer

	HealthDeps map[string]controllers.Pinger

	Auth        authsvc.Service
	Users       usersvc.Service
	Restaurants restaurantsvc.Service
	Groups      groupsvc.Service
	Cart        cartsvc.Service
	Checkout    checkoutsvc.Service
	Orders      ordersvc.Service
	Settlement  settlementsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthDeps))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	authGate := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Idempotency, logg))
		r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(authGate).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authGate)
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.GetProfile(deps.Users, logg))
			r.Get("/payment-methods", controllers.ListPaymentMethods(deps.Users, logg))
			r.Post("/payment-methods", controllers.AddPaymentMethod(deps.Users, logg))
		})

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", controllers.ListRestaurants(deps.Restaurants, logg))
			r.Post("/", controllers.CreateRestaurant(deps.Restaurants, logg))
			r.Route("/{restaurantID}", func(r chi.Router) {
				r.Get("/", controllers.GetRestaurant(deps.Restaurants, logg))
				r.Post("/menu-items", controllers.AddMenuItem(deps.Restaurants, logg))
				r.Patch("/menu-items/{itemID}", controllers.SetMenuItemAvailability(deps.Restaurants, logg))
				r.Get("/orders", controllers.ListRestaurantOrders(deps.Orders, logg))
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", controllers.ListMyGroups(deps.Groups, logg))
			r.Post("/", controllers.CreateGroup(deps.Groups, logg))
			r.Route("/{groupID}", func(r chi.Router) {
				r.Get("/", controllers.GetGroup(deps.Groups, logg))
				r.Post("/join", controllers.JoinGroup(deps.Groups, logg))
				r.Post("/leave", controllers.LeaveGroup(deps.Groups, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
			r.Delete("/items/{itemID}", controllers.RemoveCartItem(deps.Cart, logg))
			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
			r.Patch("/{orderID}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
		})

		r.Route("/reimbursements", func(r chi.Router) {
			r.Get("/ledger", controllers.GetLedger(deps.Settlement, logg))
			r.Get("/{reimbursementID}", controllers.GetReimbursement(deps.Settlement, logg))
			r.Patch("/{reimbursementID}", controllers.SettleReimbursement(deps.Settlement, logg))
		})
	})

	return r
}
