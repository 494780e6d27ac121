package rest

import (
	"net/http"

	"cosmos-backend/application/loaders"
	"cosmos-backend/application/ports"
	"cosmos-backend/application/resolution"
	"cosmos-backend/infrastructure/config"
	"cosmos-backend/interfaces/http/rest/handlers"
	"cosmos-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg      *config.Config
	resolver *resolution.Resolver
	loader   *loaders.CardLoader
	cards    ports.CardStore
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	resolver *resolution.Resolver,
	loader *loaders.CardLoader,
	cards ports.CardStore,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:      cfg,
		resolver: resolver,
		loader:   loader,
		cards:    cards,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCircuitBreaker {
		router.Use(middleware.CircuitBreaker(middleware.DefaultCircuitBreakerConfig("rest-api"), rt.logger))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		nodeHandler := handlers.NewNodeHandler(rt.resolver, rt.logger)
		r.Post("/nodes/resolve", nodeHandler.ResolveNode)

		cardHandler := handlers.NewCardHandler(rt.loader, rt.cards, rt.logger)
		feedHandler := handlers.NewFeedHandler(rt.cards, rt.cfg.Feed.PageSize, rt.logger)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", feedHandler.ListCards)
			r.Post("/batch", cardHandler.BatchCards)
			r.Get("/{cardID}", cardHandler.GetCard)
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
