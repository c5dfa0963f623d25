package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"quizzer-backend/internal/handlers"
	"quizzer-backend/internal/middleware"
)

type Deps struct {
	JWTAuth           *middleware.JWTAuth
	AuthLimitCounter  middleware.WindowCounter
	AuthHandler       *handlers.AuthHandler
	QuizHandler       *handlers.QuizHandler
	SubmissionHandler *handlers.SubmissionHandler
	WebSocket         http.HandlerFunc
	FrontendURL       string
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.FrontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(d.AuthLimitCounter, "auth", 10, time.Minute)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(d.JWTAuth.Middleware)
				r.Post("/logout", d.AuthHandler.Logout)
			})
		})

		// ──── Authenticated Routes ────
		r.Group(func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)

			r.Get("/users/me", d.AuthHandler.Me)

			r.Route("/quizzes", func(r chi.Router) {
				r.Post("/", d.QuizHandler.Create)
				r.Get("/", d.QuizHandler.List)
				r.Get("/{id}", d.QuizHandler.Get)
				r.Delete("/{id}", d.QuizHandler.Delete)
				r.Post("/{id}/hint", d.QuizHandler.Hint)
				r.Post("/{id}/submit", d.SubmissionHandler.Submit)
				r.Post("/{id}/retry", d.SubmissionHandler.Retry)
			})

			r.Get("/submissions/history", d.SubmissionHandler.History)
			r.Get("/leaderboard", d.SubmissionHandler.Leaderboard)
		})

		// ──── WebSocket (token in query) ────
		r.Get("/ws", d.WebSocket)
	})

	return r
}
