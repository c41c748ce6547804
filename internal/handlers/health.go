package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/hockey-league/internal/database"
	"gorm.io/gorm"
)

// pingTimeout bounds the store check so a hung database cannot hang the probe.
const pingTimeout = 2 * time.Second

// HealthCheck handles GET /health.
// It answers 200 {"status": "ok"} when the database responds to a ping and
// 503 {"status": "unavailable"} when it does not. No authentication.
// It's used by:
//   - Docker/Kubernetes readiness and liveness probes
//   - Load balancers deciding whether to send traffic to this instance
func HealthCheck(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
