package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/kb-assistant/app"
	"github.com/upb/kb-assistant/handlers"
	"github.com/upb/kb-assistant/middleware"
	"github.com/upb/kb-assistant/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config.Server

	// Core middleware
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(deps.Logger.Named("http")))
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.MaxBodyBytes(cfg.MaxBodyBytes))

	// CORS middleware
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	// Health check endpoints
	health := handlers.NewHealthHandler(map[string]handlers.Check{
		"provider": deps.CheckProvider,
	}, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.MetricsRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	kb := handlers.NewKnowledgeHandler(deps.Knowledge, deps.Logger.Named("kb"))
	r.Route("/kb", func(r chi.Router) {
		r.Post("/set-instructions", kb.HandleSetInstructions)
		r.Post("/add-text", kb.HandleAddText)
		r.Post("/add-url", kb.HandleAddURL)
		r.Get("/{botId}", kb.HandleGetBot)
	})

	chat := handlers.NewChatHandler(deps.Knowledge, deps.Logger.Named("chat"))
	r.Post("/chat", chat.HandleChat)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
