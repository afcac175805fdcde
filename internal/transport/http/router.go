package http

import (
	"net/http"
	"time"

	"brainbuzz/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterConfig carries the transport settings taken from config.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// allowCredentials is false for a wildcard origin list; browsers must not send
// cookies or auth headers cross-origin to any site.
func allowCredentials(origins []string) bool {
	if len(origins) == 0 {
		return false
	}
	for _, o := range origins {
		if o == "*" {
			return false
		}
	}
	return true
}

// NewRouter wires the REST API and the results websocket.
func NewRouter(service *app.QuizService, auth *Authenticator, log zerolog.Logger, cfg RouterConfig) http.Handler {
	quizzes := NewQuizHandler(service, log)
	results := NewResultsHandler(service, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: allowCredentials(cfg.AllowedOrigins),
		MaxAge:           300,
	}))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "BrainBuzz API is running"})
	})

	r.Route("/api/quizzes", func(api chi.Router) {
		if cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		api.Use(auth.Middleware)

		api.Get("/available", quizzes.Available)
		api.Get("/my-quizzes/list", quizzes.MyQuizzes)
		api.Get("/attempts/my", quizzes.MyAttempts)
		api.Get("/attempts/{attemptId}", quizzes.Attempt)
		api.Post("/", quizzes.Create)
		api.Get("/{id}", quizzes.Get)
		api.Delete("/{id}", quizzes.Delete)
		api.Post("/{id}/submit", quizzes.Submit)
		api.Get("/{id}/attempts", quizzes.Results)
	})

	r.With(auth.Middleware).Get("/ws/quizzes/{id}/results", results.ServeWS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return r
}
