package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/handler"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/httputil"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/identity"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	authmw "github.com/ferdaws-ahmed/WisdomVault-server-side/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	UserHandler    *handler.UserHandler
	LessonHandler  *handler.LessonHandler
	ReportHandler  *handler.ReportHandler
	PostHandler    *handler.PostHandler
	MediaHandler   *handler.MediaHandler
	PaymentHandler *handler.PaymentHandler

	Verifier       identity.Verifier
	Accounts       authmw.AccountLookup
	Logger         *logger.Logger
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(authmw.AccessLog(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Get("/lessons", cfg.LessonHandler.ListPublic)
	r.With(authmw.OptionalAuthMiddleware(cfg.Verifier)).Get("/lessons/{id}", cfg.LessonHandler.Get)
	r.Get("/top-contributors", cfg.ReportHandler.TopContributors)
	r.Get("/community-stats", cfg.ReportHandler.CommunityStats)
	r.Get("/posts", cfg.PostHandler.List)
	r.Get("/posts/{id}", cfg.PostHandler.GetByID)

	// Authenticated by the gateway signature, not a bearer token
	r.Post("/webhook", cfg.PaymentHandler.Webhook)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.Verifier))

		r.Post("/users", cfg.UserHandler.Sync)
		r.Get("/users/status/{email}", cfg.UserHandler.Status)
		r.Put("/users/update-profile", cfg.UserHandler.UpdateProfile)

		r.Route("/dashboard", func(r chi.Router) {
			r.Post("/add-lesson", cfg.LessonHandler.Create)
			r.Get("/my-lessons", cfg.LessonHandler.ListMine)
			r.Put("/my-lessons/{id}", cfg.LessonHandler.Update)
			r.Delete("/my-lessons/{id}", cfg.LessonHandler.Delete)
			r.Patch("/my-lessons/{id}/access-level", cfg.LessonHandler.SetAccessLevel)
			r.Get("/overview", cfg.ReportHandler.Overview)
			r.Get("/my-favorites", cfg.LessonHandler.ListFavorites)
		})

		r.Post("/lessons/{id}/like", cfg.LessonHandler.ToggleLike)
		r.Post("/lessons/{id}/favorite", cfg.LessonHandler.ToggleFavorite)
		r.Post("/lessons/{id}/comments", cfg.LessonHandler.AddComment)
		r.Post("/lessons/{id}/report", cfg.LessonHandler.Report)

		r.Post("/posts", cfg.PostHandler.Create)
		r.Get("/posts/mine", cfg.PostHandler.ListMine)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)

		r.Post("/upload/image", cfg.MediaHandler.UploadImage)
		r.Post("/upload/avatar", cfg.MediaHandler.UploadAvatar)

		r.Post("/create-payment-intent", cfg.PaymentHandler.CreateIntent)

		// Every admin route inherits the role check from this sub-router
		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.RequireAdmin(cfg.Accounts))

			r.Get("/stats", cfg.ReportHandler.AdminStats)
			r.Get("/category-stats", cfg.ReportHandler.CategoryStats)

			r.Get("/users", cfg.UserHandler.List)
			r.Patch("/users/{email}", cfg.UserHandler.Patch)
			r.Delete("/users/{email}", cfg.UserHandler.Delete)

			r.Get("/lessons", cfg.LessonHandler.ListAll)
			r.Get("/reported-lessons", cfg.LessonHandler.ListReported)
			r.Get("/lessons/{id}/reports", cfg.LessonHandler.ListReports)
			r.Delete("/lessons/{id}", cfg.LessonHandler.Delete)
			r.Patch("/lessons/{id}/clear-report", cfg.LessonHandler.ClearReport)
		})
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}
