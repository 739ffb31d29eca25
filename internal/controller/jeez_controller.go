package controller

import (
	"strings"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"
	"jeezy-monetization-be/internal/pkg/serverutils"
	"jeezy-monetization-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader lets clients pin the token of a retried mutation.
const IdempotencyKeyHeader = "Idempotency-Key"

type IJeezController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	GetBalance(ctx *fiber.Ctx) error
	Debit(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type jeezController struct {
	jeez   service.IJeezService
	ledger service.ILedgerService
}

func NewJeezController(jeez service.IJeezService, ledger service.ILedgerService) IJeezController {
	return &jeezController{jeez: jeez, ledger: ledger}
}

func (c *jeezController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/jeez", auth)
	h.Get("/balance", c.GetBalance)
	h.Post("/debit", c.Debit)
	h.Get("/transactions", c.History)
}

// tokenFor picks the idempotency token: header, then body, then a fresh one.
func tokenFor(ctx *fiber.Ctx, fromBody string, generate func() string) string {
	if key := strings.TrimSpace(ctx.Get(IdempotencyKeyHeader)); key != "" {
		return key
	}
	if fromBody = strings.TrimSpace(fromBody); fromBody != "" {
		return fromBody
	}
	return generate()
}

func (c *jeezController) GetBalance(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}

	balance, err := c.jeez.GetBalance(ctx.UserContext(), p.UserID)
	if apperror.Is(err, apperror.CodeBalanceNotFound) {
		balance, err = decimal.Zero, nil
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get balance", dto.BalanceResponse{Balance: balance}))
}

func (c *jeezController) Debit(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}
	var req dto.DebitRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.jeez.Debit(ctx.UserContext(), service.WalletMutation{
		UserId:      p.UserID,
		Amount:      req.Amount,
		Token:       tokenFor(ctx, req.TransactionId, c.jeez.GenerateToken),
		Description: req.Description,
		Type:        entity.TransactionTypeJeezPurchase,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Debit processed", dto.WalletMutationResponse{
		NewBalance:    res.NewBalance,
		TransactionId: res.Token,
		Applied:       res.Applied,
	}))
}

func (c *jeezController) History(ctx *fiber.Ctx) error {
	p, err := serverutils.Principal(ctx)
	if err != nil {
		return err
	}

	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", service.DefaultHistoryLimit)
	res, err := c.ledger.History(ctx.UserContext(), p.UserID, page, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get transactions", res))
}
