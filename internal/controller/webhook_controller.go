package controller

import (
	"jeezy-monetization-be/internal/pkg/serverutils"
	"jeezy-monetization-be/internal/service"
	"jeezy-monetization-be/pkg/paypal"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	PayPal(ctx *fiber.Ctx) error
}

type webhookController struct {
	service service.IWebhookService
}

func NewWebhookController(service service.IWebhookService) IWebhookController {
	return &webhookController{service: service}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/webhooks")
	h.Post("/paypal", c.PayPal)
}

// PayPal verifies the signature over the exact bytes received, so the body
// is copied out of fasthttp's reusable buffer and never re-encoded.
func (c *webhookController) PayPal(ctx *fiber.Ctx) error {
	raw := append([]byte(nil), ctx.Body()...)
	headers := paypal.HeadersFrom(func(key string) string { return ctx.Get(key) })

	res, err := c.service.HandlePayPal(ctx.UserContext(), raw, headers)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Webhook "+res.Status, res))
}
