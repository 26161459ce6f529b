package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-product-api/internal/config"
	"go-product-api/internal/handler"
	"go-product-api/internal/middleware"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	accountHandler *handler.AccountHandler,
	productHandler *handler.ProductHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Post("/register", accountHandler.Register)
		api.Post("/login", accountHandler.Login)

		api.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)

			protected.Get("/logout", accountHandler.Logout)
			protected.Get("/user", accountHandler.CurrentUser)

			protected.Get("/products", productHandler.List)
			protected.Post("/products", productHandler.Create)
			protected.Get("/products/{id}", productHandler.Get)
			protected.Patch("/products/{id}", productHandler.Update)
			protected.Delete("/products/{id}", productHandler.Delete)
		})
	})

	return r
}
