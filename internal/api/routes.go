package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contacts-service/internal/model"
	"contacts-service/internal/service"
)

// RegisterRoutes wires the full HTTP surface onto the app. The confirmation
// endpoints live under /authorize; search and birthdays are top-level.
func RegisterRoutes(app *fiber.App, auth *AuthHandler, contacts *ContactHandler, authService service.AuthService) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "contacts-service"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/register", auth.Register)
	app.Post("/authorize/register", auth.ConfirmRegistration)
	app.Post("/login", auth.Login)
	app.Post("/resetPassword", auth.RequestPasswordReset)
	app.Post("/authorize/reset", auth.ConfirmPasswordReset)

	app.Use(AuthMiddleware(authService))
	app.Get("/me", MeRateLimiter(), auth.Me)
	app.Post("/updateAvatar", RequireRole(model.RoleAdmin), auth.UpdateAvatar)

	app.Get("/search", contacts.Search)
	app.Get("/birthdays", contacts.Birthdays)

	group := app.Group("/contacts")
	group.Post("/", contacts.Create)
	group.Get("/", contacts.List)
	group.Get("/:id", contacts.Get)
	group.Put("/:id", contacts.Update)
	group.Delete("/:id", contacts.Delete)
}
