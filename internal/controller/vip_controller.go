package controller

import (
	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/pkg/serverutils"
	"jeezy-monetization-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IVipController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetStatus(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	SetAutoRenew(ctx *fiber.Ctx) error
}

type vipController struct {
	service service.IVipService
}

func NewVipController(service service.IVipService) IVipController {
	return &vipController{service: service}
}

func (c *vipController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/vip", auth)
	h.Get("/status", c.GetStatus)
	h.Post("/cancel", c.Cancel)
	h.Post("/auto-renew", c.SetAutoRenew)
}

func (c *vipController) GetStatus(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}

	status, err := c.service.GetStatus(ctx.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get VIP status", service.ToVipStatusResponse(status)))
}

func (c *vipController) Cancel(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Deactivate(ctx.UserContext(), p.UserID); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription cancelled", nil))
}

func (c *vipController) SetAutoRenew(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}
	var req dto.AutoRenewRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	status, err := c.service.SetAutoRenew(ctx.UserContext(), p.UserID, *req.AutoRenew)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Auto-renew updated", service.ToVipStatusResponse(status)))
}
