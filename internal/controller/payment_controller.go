package controller

import (
	"strings"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/serverutils"
	"jeezy-monetization-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler, admin fiber.Handler)
	Products(ctx *fiber.Ctx) error
	CreateOrder(ctx *fiber.Ctx) error
	CaptureOrder(ctx *fiber.Ctx) error
	CreateSubscription(ctx *fiber.Ctx) error
	ApproveSubscription(ctx *fiber.Ctx) error
	VerifyPlans(ctx *fiber.Ctx) error
}

type paymentController struct {
	service       service.ICheckoutService
	subscriptions service.ISubscriptionCheckoutService
}

func NewPaymentController(service service.ICheckoutService, subscriptions service.ISubscriptionCheckoutService) IPaymentController {
	return &paymentController{service: service, subscriptions: subscriptions}
}

func (c *paymentController) RegisterRoutes(r fiber.Router, auth fiber.Handler, admin fiber.Handler) {
	h := r.Group("/payment")
	h.Get("/products", c.Products)

	// Protected Routes
	h.Post("/create-order", auth, c.CreateOrder)
	h.Post("/capture/:orderId", auth, c.CaptureOrder)
	h.Post("/create-vip-subscription", auth, c.CreateSubscription)
	h.Post("/approve-vip-subscription", auth, c.ApproveSubscription)

	// Admin Routes
	h.Get("/verify-plans", auth, admin, c.VerifyPlans)
}

func (c *paymentController) Products(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success fetching products", c.service.Products(ctx.UserContext())))
}

func (c *paymentController) CreateOrder(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}
	var req dto.CreateOrderRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.CreateOrder(ctx.UserContext(), p.UserID, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Order created", res))
}

func (c *paymentController) CaptureOrder(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}
	orderId := strings.TrimSpace(ctx.Params("orderId"))
	if orderId == "" {
		return apperror.Validation(apperror.CodeValidation, "orderId is required")
	}

	res, err := c.service.CaptureOrder(ctx.UserContext(), p.UserID, orderId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Order captured", res))
}

func (c *paymentController) CreateSubscription(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}
	var req dto.CreateSubscriptionRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.subscriptions.CreateSubscription(ctx.UserContext(), p.UserID, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Subscription created", res))
}

func (c *paymentController) ApproveSubscription(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}
	var req dto.ApproveSubscriptionRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.subscriptions.ApproveSubscription(ctx.UserContext(), p.UserID, req.SubscriptionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription "+res.Status, res))
}

func (c *paymentController) VerifyPlans(ctx *fiber.Ctx) error {
	res, err := c.subscriptions.VerifyPlans(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success verifying plans", res))
}
