package controller

import (
	"time"

	"jeezy-monetization-be/internal/dto"
	"jeezy-monetization-be/internal/pkg/serverutils"
	"jeezy-monetization-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Signup(ctx *fiber.Ctx) error
	Signin(ctx *fiber.Ctx) error
	Signout(ctx *fiber.Ctx) error
}

type authController struct {
	service      service.IAuthService
	cookieName   string
	secureCookie bool
}

func NewAuthController(service service.IAuthService, cookieName string, secureCookie bool) IAuthController {
	if cookieName == "" {
		cookieName = serverutils.DefaultAuthCookie
	}
	return &authController{service: service, cookieName: cookieName, secureCookie: secureCookie}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/signup", c.Signup)
	h.Post("/signin", c.Signin)
	h.Post("/signout", c.Signout)
}

func (c *authController) Signup(ctx *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Signup(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("User registered successfully", res))
}

func (c *authController) Signin(ctx *fiber.Ctx) error {
	var req dto.SigninRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Signin(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     c.cookieName,
		Value:    res.AccessToken,
		Expires:  res.ExpiresAt,
		HTTPOnly: true,
		Secure:   c.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return ctx.JSON(serverutils.SuccessResponse("Signed in", res))
}

func (c *authController) Signout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   c.secureCookie,
		Path:     "/",
	})
	return ctx.JSON(serverutils.SuccessResponse("Signed out", nil))
}
