package controller

import (
	"jeezy-monetization-be/internal/pkg/serverutils"
	"jeezy-monetization-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	service service.IHealthService
}

func NewHealthController(service service.IHealthService) IHealthController {
	return &healthController{service: service}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	if err := c.service.Ping(ctx.UserContext()); err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).
			JSON(serverutils.ErrorResponse(fiber.StatusServiceUnavailable, "unhealthy"))
	}
	return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{"status": "healthy"}))
}
