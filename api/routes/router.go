package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	svix "github.com/svix/svix-webhooks/go"

	"github.com/usxc/classroom-library-backend/api/controllers"
	webhookcontrollers "github.com/usxc/classroom-library-backend/api/controllers/webhooks"
	"github.com/usxc/classroom-library-backend/api/middleware"
	"github.com/usxc/classroom-library-backend/internal/inventory"
	"github.com/usxc/classroom-library-backend/internal/loans"
	"github.com/usxc/classroom-library-backend/internal/users"
	identitywebhook "github.com/usxc/classroom-library-backend/internal/webhooks/identity"
	"github.com/usxc/classroom-library-backend/pkg/config"
	"github.com/usxc/classroom-library-backend/pkg/db"
	"github.com/usxc/classroom-library-backend/pkg/logger"
	"github.com/usxc/classroom-library-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers. Redis, webhook
// and metrics members are optional; the corresponding routes degrade or
// disappear when they are nil.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Users    users.Service
	Invent   inventory.Service
	Loans    loans.Service
	Registry *prometheus.Registry

	IdentityWebhook  *identitywebhook.Service
	IdentityGuard    *identitywebhook.ReplayGuard
	IdentityVerifier *svix.Webhook
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		var redisP controllers.Pinger
		if deps.Redis != nil {
			redisP = deps.Redis
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisP))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	if deps.IdentityWebhook != nil && deps.IdentityVerifier != nil && deps.IdentityGuard != nil {
		r.Route("/api/v1/webhooks", func(r chi.Router) {
			r.Post("/identity", webhookcontrollers.IdentityWebhook(deps.IdentityWebhook, deps.IdentityVerifier, deps.IdentityGuard, logg))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Users, logg))

		r.Get("/books", controllers.ListCatalog(deps.Invent, logg))
		r.Get("/copies/available", controllers.ListAvailableCopies(deps.Invent, logg))

		r.Route("/loans", func(r chi.Router) {
			r.Get("/mine", controllers.MyLoans(deps.Loans, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Classroom(cfg.Classroom.AllowedIPs, logg))
				r.Post("/checkout", controllers.Checkout(deps.Loans, logg))
				r.Post("/{loanID}/return", controllers.Return(deps.Loans, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Post("/books", controllers.CreateBook(deps.Invent, logg))
			r.Delete("/books/{bookID}", controllers.WithdrawBook(deps.Invent, logg))
			r.Post("/books/{bookID}/copies", controllers.AddCopies(deps.Invent, logg))
			r.Post("/copies/{copyID}/retire", controllers.RetireCopy(deps.Invent, logg))
		})
	})

	return r
}
