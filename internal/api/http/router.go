package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gram-portal/internal/api/http/handlers"
	"github.com/spec-kit/gram-portal/internal/auth"
	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/observability"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health              *handlers.HealthHandler
	Auth                *handlers.AuthHandler
	Users               *handlers.UsersHandler
	Services            *handlers.ServicesHandler
	Applications        *handlers.ApplicationsHandler
	Dashboards          *handlers.DashboardHandler
	Authenticator       *auth.Authenticator
	Metrics             *observability.Metrics
	AuthRateLimitPerMin int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Handler())

	services := app.Group("/services")
	services.Get("/", cfg.Services.List)
	services.Get("/categories", cfg.Services.Categories)
	services.Get("/:id", cfg.Services.Get)

	limited := authRateLimiter(cfg.AuthRateLimitPerMin)
	authGroup := app.Group("/auth")
	authGroup.Post("/register", limited, cfg.Auth.Register)
	authGroup.Post("/login", limited, cfg.Auth.Login)
	authGroup.Post("/password/reset/request", limited, cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", limited, cfg.Auth.ConfirmPasswordReset)

	signedIn := []fiber.Handler{cfg.Authenticator.Handle, auth.RequireRoles()}
	authGroup.Get("/session", append(signedIn, cfg.Auth.Session)...)
	authGroup.Post("/logout", append(signedIn, cfg.Auth.Logout)...)
	authGroup.Post("/password/change", append(signedIn, cfg.Auth.ChangePassword)...)

	profile := app.Group("/profile", signedIn...)
	profile.Get("/", cfg.Auth.Profile)
	profile.Put("/", cfg.Auth.UpdateProfile)

	user := app.Group("/user", cfg.Authenticator.Handle, auth.RequireRoles(domain.RoleCitizen))
	user.Get("/dashboard", cfg.Dashboards.User)
	user.Get("/applications", cfg.Applications.ListOwn)
	user.Post("/applications", cfg.Applications.Submit)
	user.Get("/applications/:id", cfg.Applications.GetOwn)

	staff := app.Group("/staff", cfg.Authenticator.Handle, auth.RequireRoles(domain.RoleStaff))
	staff.Get("/dashboard", cfg.Dashboards.Staff)
	staff.Get("/applications", cfg.Applications.List)
	staff.Get("/applications/:id", cfg.Applications.Get)
	staff.Patch("/applications/:id/status", cfg.Applications.UpdateStatus)

	admin := app.Group("/admin", cfg.Authenticator.Handle, auth.RequireRoles(domain.RoleAdmin))
	admin.Get("/dashboard", cfg.Dashboards.Admin)
	admin.Get("/services", cfg.Services.AdminList)
	admin.Post("/services", cfg.Services.Create)
	admin.Get("/services/:id", cfg.Services.AdminGet)
	admin.Put("/services/:id", cfg.Services.Update)
	admin.Delete("/services/:id", cfg.Services.Delete)
	admin.Patch("/services/:id/active", cfg.Services.SetActive)
	admin.Get("/applications", cfg.Applications.List)
	admin.Get("/applications/:id", cfg.Applications.Get)
	admin.Patch("/applications/:id/status", cfg.Applications.UpdateStatus)
	admin.Get("/users", cfg.Users.List)
	admin.Post("/users", cfg.Users.Create)
	admin.Get("/users/:id", cfg.Users.Get)
	admin.Put("/users/:id", cfg.Users.Update)

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("route", map[string]any{"path": c.Path()})
	})
}
