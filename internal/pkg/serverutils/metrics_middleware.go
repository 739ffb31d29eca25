package serverutils

import (
	"strconv"

	"jeezy-monetization-be/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware counts requests by route template, not raw path, so
// order ids do not explode label cardinality.
func MetricsMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		route := ctx.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.
			WithLabelValues(ctx.Method(), route, strconv.Itoa(ctx.Response().StatusCode())).
			Inc()
		return err
	}
}
