package controller

import (
	"strings"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/logger"
	"jeezy-monetization-be/internal/pkg/serverutils"
	"jeezy-monetization-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler, admin fiber.Handler)
	CreditJeez(ctx *fiber.Ctx) error
	ActivateVip(ctx *fiber.Ctx) error
	CompleteTransaction(ctx *fiber.Ctx) error
	FailTransaction(ctx *fiber.Ctx) error
	PaymentAudit(ctx *fiber.Ctx) error
}

type adminController struct {
	jeez   service.IJeezService
	vip    service.IVipService
	ledger service.ILedgerService
	audit  logger.ILogReader
}

func NewAdminController(jeez service.IJeezService, vip service.IVipService, ledger service.ILedgerService, audit logger.ILogReader) IAdminController {
	return &adminController{jeez: jeez, vip: vip, ledger: ledger, audit: audit}
}

func (c *adminController) RegisterRoutes(r fiber.Router, auth fiber.Handler, admin fiber.Handler) {
	h := r.Group("/admin", auth, admin)
	h.Post("/jeez/credit", c.CreditJeez)
	h.Post("/vip/activate", c.ActivateVip)
	h.Post("/transactions/:transactionId/complete", c.CompleteTransaction)
	h.Post("/transactions/:transactionId/fail", c.FailTransaction)
	h.Get("/payment-audit", c.PaymentAudit)
}

func (c *adminController) CreditJeez(ctx *fiber.Ctx) error {
	var req dto.CreditRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.jeez.Credit(ctx.UserContext(), service.WalletMutation{
		UserId:        req.UserId,
		Amount:        req.Amount,
		Token:         tokenFor(ctx, req.TransactionId, c.jeez.GenerateToken),
		Description:   req.Description,
		Type:          entity.TransactionTypeAdjustment,
		PaymentMethod: entity.PaymentMethodInternal,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Credit processed", dto.WalletMutationResponse{
		NewBalance:    res.NewBalance,
		TransactionId: res.Token,
		Applied:       res.Applied,
	}))
}

func (c *adminController) ActivateVip(ctx *fiber.Ctx) error {
	var req dto.ActivateVipRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.vip.Activate(ctx.UserContext(), service.VipActivation{
		UserId:        req.UserId,
		Plan:          entity.PlanType(req.Plan),
		Token:         tokenFor(ctx, req.TransactionId, c.vip.GenerateToken),
		OrderRef:      req.ProviderOrderRef,
		PaymentMethod: entity.PaymentMethodInternal,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("VIP activated", dto.VipActivationResponse{
		UserId:        res.UserId,
		ExpiresAt:     res.ExpiresAt,
		PlanType:      string(res.PlanType),
		TransactionId: res.Token,
		Applied:       res.Applied,
	}))
}

func (c *adminController) CompleteTransaction(ctx *fiber.Ctx) error {
	res, err := c.ledger.Complete(ctx.UserContext(), ctx.Params("transactionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Transaction completed", res))
}

func (c *adminController) FailTransaction(ctx *fiber.Ctx) error {
	var req dto.FailTransactionRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.ledger.Fail(ctx.UserContext(), ctx.Params("transactionId"), strings.TrimSpace(req.Reason))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Transaction failed", res))
}

func (c *adminController) PaymentAudit(ctx *fiber.Ctx) error {
	level := ctx.Query("level")
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := c.audit.GetLogs(level, limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get payment audit log", entries))
}
