package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"teachers_portal/backend/internal/gateway/handlers"
	"teachers_portal/backend/internal/gateway/util"
	"teachers_portal/backend/internal/observability"
	"teachers_portal/backend/internal/shared"
)

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(svc *Services) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(observability.Middleware(svc.Logger.With().Str("component", "http").Logger()))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   svc.CORS.AllowedOrigins,
		AllowedMethods:   svc.CORS.AllowedMethods,
		AllowedHeaders:   svc.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: svc.CORS.AllowCredentials,
		MaxAge:           svc.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	authHandler := &handlers.AuthHandler{Auth: svc.Auth, Workspaces: svc.Workspaces, Validate: svc.Validate}
	teacherHandler := &handlers.TeacherHandler{Workspaces: svc.Workspaces, Validate: svc.Validate}
	coordinatorHandler := &handlers.CoordinatorHandler{Reports: svc.Reports}
	maestraHandler := &handlers.MaestraHandler{Students: svc.Students}

	// 3. Operational endpoints
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())
	r.Get("/healthz", healthHandler(svc.Ping))

	// 4. Define Routes (grouped by prefix)
	r.Route("/api", func(r chi.Router) {

		// --- Public Routes ---
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// --- Protected Routes (Require Valid Token) ---
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(svc.Auth))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Route("/teacher", func(r chi.Router) {
				r.Use(RequireRole(shared.DashboardTeacher))

				r.Get("/dashboard", teacherHandler.Dashboard)
				r.Put("/selection/subject", teacherHandler.SelectSubject)
				r.Put("/selection/section", teacherHandler.SelectSection)

				r.Route("/gradebook", func(r chi.Router) {
					r.Get("/", teacherHandler.Gradebook)
					r.Post("/load", teacherHandler.LoadStudents)
					r.Post("/activities", teacherHandler.AddActivity)
					r.Put("/grades", teacherHandler.SetGrade)
					r.Post("/grades/save", teacherHandler.SaveGrade)
					r.Post("/reorder", teacherHandler.Reorder)
				})
			})

			r.Route("/coordinator", func(r chi.Router) {
				r.Use(RequireRole(shared.DashboardCoordinator))

				r.Get("/options", coordinatorHandler.Options)
				r.Get("/report", coordinatorHandler.Report)
			})

			r.Route("/maestra", func(r chi.Router) {
				r.Use(RequireRole(shared.DashboardMaestra))

				r.Get("/students", maestraHandler.ListStudents)
				r.Put("/students/{id}", maestraHandler.UpdateProfile)
			})
		})
	})

	return r
}

// AuthMiddleware validates the bearer token and injects the caller's identity.
func AuthMiddleware(authService handlers.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract Token
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			// 2. Validate signature, session and account
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			identity, err := authService.ValidateToken(ctx, tokenStr)
			if err != nil {
				util.HandleServiceError(w, err)
				return
			}

			// 3. Inject Identity into Context
			next.ServeHTTP(w, r.WithContext(util.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole lets through callers whose dashboard role is one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := util.IdentityFrom(r)
			if identity == nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			util.WriteJSONError(w, http.StatusForbidden, "Access denied for role "+identity.Role)
		})
	}
}

func healthHandler(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				util.WriteJSONError(w, http.StatusServiceUnavailable, "database unreachable")
				return
			}
		}
		util.WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	}
}
