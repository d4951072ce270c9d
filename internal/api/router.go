package api

import (
	"net/http"

	"github.com/dom/socialpedia/internal/api/handlers"
	"github.com/dom/socialpedia/internal/api/middleware"
	"github.com/dom/socialpedia/internal/config"
	"github.com/dom/socialpedia/internal/logging"
	"github.com/dom/socialpedia/internal/media"
	"github.com/dom/socialpedia/internal/metrics"
	"github.com/dom/socialpedia/internal/service"
	"github.com/dom/socialpedia/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Services *service.Services
	Hub      *websocket.Hub
	Media    media.Store
	Metrics  *metrics.Metrics
	Log      logrus.FieldLogger
	Config   *config.Config
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	log := deps.Log
	maxUpload := int64(cfg.MaxUploadMB) << 20

	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(logging.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(deps.Metrics.InstrumentHandler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", deps.Metrics.Handler())
	r.Get("/assets/*", media.Handler(deps.Media))

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Media, deps.Metrics, maxUpload, log)
	userHandler := handlers.NewUserHandler(deps.Services.Auth, deps.Services.Social, log)
	postHandler := handlers.NewPostHandler(deps.Services.Feed, deps.Media, maxUpload, log)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Services.Auth, cfg.CORSOrigins, log)

	r.Get("/ws", wsHandler.Handle)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Services.Auth, log))

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}", userHandler.Get)
			r.Get("/{id}/friends", userHandler.Friends)
			r.Patch("/{id}/{friendId}", userHandler.ToggleFriend)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", postHandler.Create)
			r.Get("/", postHandler.List)
			r.Get("/{userId}/posts", postHandler.ListByUser)
			r.Patch("/{id}/like", postHandler.Like)
		})
	})

	return r
}
