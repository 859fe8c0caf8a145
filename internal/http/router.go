package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/expensight/internal/http/auth"
	"github.com/MrJamesThe3rd/expensight/internal/http/dashboard"
	"github.com/MrJamesThe3rd/expensight/internal/http/expense"
	"github.com/MrJamesThe3rd/expensight/internal/http/receipt"
	"github.com/MrJamesThe3rd/expensight/internal/http/reconcile"
	"github.com/MrJamesThe3rd/expensight/internal/http/user"
)

type Handlers struct {
	Auth      *auth.Handler
	User      *user.Handler
	Expense   *expense.Handler
	Reconcile *reconcile.Handler
	Dashboard *dashboard.Handler
	// Receipt is nil when receipt OCR is not configured.
	Receipt *receipt.Handler
}

type Options struct {
	AllowedOrigins []string
	// Authenticate guards every route except registration and login.
	Authenticate func(http.Handler) http.Handler
}

func New(h Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Auth.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(opts.Authenticate)

			r.Route("/user/profile", h.User.Routes)
			r.Route("/expense", h.Expense.Routes)
			r.Route("/reconcile", h.Reconcile.Routes)
			r.Route("/dashboard", h.Dashboard.Routes)

			if h.Receipt != nil {
				r.Route("/receipt", h.Receipt.Routes)
			}
		})
	})

	return router
}
