package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/skillmarket/api/internal/application/auth"
	"github.com/skillmarket/api/internal/application/course"
	"github.com/skillmarket/api/internal/application/review"
	"github.com/skillmarket/api/internal/application/user"
	"github.com/skillmarket/api/internal/config"
	"github.com/skillmarket/api/internal/transport/http/handler"
	appmiddleware "github.com/skillmarket/api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.UserRepo)

	// 5 requests/second, burst of 10 — applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:    deps.UserRepo,
		OTPRepo:     deps.OTPRepo,
		Mailer:      deps.Mailer,
		JWTProvider: deps.JWTProvider,
		OTPTTL:      cfg.OTPTTL,
	})
	courseSvc := course.NewService(deps.CourseRepo, deps.ObjectStore)
	reviewSvc := review.NewService(deps.ReviewRepo, deps.CourseRepo)
	userSvc := user.NewService(deps.UserRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	courseH := handler.NewCourseHandler(courseSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)
	userH := handler.NewUserHandler(userSvc, courseSvc)

	r.Get("/", healthH.Root)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/register", authH.Register)
			r.Post("/verify-otp", authH.VerifyOTP)
			r.Post("/login", authH.Login)
			r.Post("/resend-otp", authH.ResendOTP)
		})

		r.Route("/courses", func(r chi.Router) {
			// Public catalog routes.
			r.Get("/", courseH.List)
			r.Get("/{id}", courseH.Get)
			r.Get("/{id}/reviews", reviewH.List)

			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Post("/", courseH.Create)
				r.Put("/{id}/enroll", courseH.Enroll)
				r.Post("/{id}/lessons", courseH.AddLesson)
				r.Delete("/{id}", courseH.Delete)
				r.Post("/{id}/reviews", reviewH.Create)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMw)
			r.Get("/dashboard", userH.Dashboard)
			r.Get("/profile", userH.GetProfile)
			r.Put("/profile", userH.UpdateProfile)
		})
	})

	return r
}
