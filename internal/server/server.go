// Package server assembles the Fiber application: global middleware, the central error
// handler and the route table. cmd/server runs it; the HTTP tests drive it in-process
// with app.Test.
package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/trentd187/hockey-league/internal/auth"
	"github.com/trentd187/hockey-league/internal/handlers"
	"github.com/trentd187/hockey-league/internal/middleware"
)

// Deps are the collaborators the routes need.
type Deps struct {
	DB     *gorm.DB
	Tokens *auth.Service
	Log    *zap.SugaredLogger
}

// New builds the app with every route registered.
func New(deps Deps) *fiber.App {
	httpLog := deps.Log.Named("http")

	app := fiber.New(fiber.Config{
		AppName:      "Hockey League API",
		ErrorHandler: handlers.ErrorHandler(httpLog),
	})

	// --- Global middleware ---
	// Order matters: the request id must exist before the logger runs, and recover sits
	// inside the logger so a panic is logged as the 500 the client receives.
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(httpLog))
	app.Use(recover.New())
	// Allows requests from any origin; front ends are served from other hosts.
	app.Use(cors.New())

	// --- Public routes (no auth required) ---
	app.Get("/health", handlers.HealthCheck(deps.DB))
	app.Post("/api/register", handlers.Register(deps.DB, deps.Tokens))
	app.Post("/api/login", handlers.Login(deps.DB, deps.Tokens))

	// --- Authenticated API routes ---
	// Everything else under /api requires a valid bearer token. The group applies
	// middleware.Auth to every route registered on it.
	api := app.Group("/api", middleware.Auth(deps.Tokens, deps.DB, deps.Log.Named("auth")))

	// Session
	api.Post("/logout", handlers.Logout(deps.Tokens))
	api.Get("/me", handlers.Me)
	api.Put("/update-profile", handlers.UpdateProfile(deps.DB))

	// Divisions
	api.Get("/divisions", handlers.ListDivisions(deps.DB))
	api.Post("/divisions", handlers.CreateDivision(deps.DB))
	api.Get("/divisions/:id", handlers.GetDivision(deps.DB))
	api.Put("/divisions/:id", handlers.UpdateDivision(deps.DB))
	api.Delete("/divisions/:id", handlers.DeleteDivision(deps.DB))

	// Clubs
	api.Get("/clubs", handlers.ListClubs(deps.DB))
	api.Post("/clubs", handlers.CreateClub(deps.DB))
	api.Get("/clubs/:id", handlers.GetClub(deps.DB))
	api.Put("/clubs/:id", handlers.UpdateClub(deps.DB))
	api.Delete("/clubs/:id", handlers.DeleteClub(deps.DB))
	api.Get("/clubs/:id/forwards", handlers.ClubForwards(deps.DB))

	// Forwards
	api.Get("/forwards", handlers.ListForwards(deps.DB))
	api.Post("/forwards", handlers.CreateForward(deps.DB))
	api.Get("/forwards/:id", handlers.GetForward(deps.DB))
	api.Put("/forwards/:id", handlers.UpdateForward(deps.DB))
	api.Delete("/forwards/:id", handlers.DeleteForward(deps.DB))

	// Line partners
	api.Get("/forwards/:id/partners", handlers.ListPartners(deps.DB))
	api.Post("/forwards/:id/partners", handlers.AddPartner(deps.DB))
	api.Delete("/forwards/:id/partners/:partnerId", handlers.RemovePartner(deps.DB))

	return app
}
