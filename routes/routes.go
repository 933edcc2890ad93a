package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/mirokatsu/osu-streak-tracker/handlers"
	"github.com/mirokatsu/osu-streak-tracker/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	streakersHandler *handlers.StreakersHandler,
	manageHandler *handlers.ManageHandler,
	authHandler *handlers.AuthHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/daily-streakers", streakersHandler.ListDailyStreakers)

		r.Post("/manage/login", authHandler.Login)
		r.Post("/manage/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate([]byte(jwtSecret)))

			r.Post("/manage/add-tracked-players", manageHandler.AddTrackedPlayers)
			r.Delete("/manage/tracked-players", manageHandler.RemoveTrackedPlayers)
			r.Get("/manage/queue-status", manageHandler.QueueStatus)
		})
	})
}
