// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"context"
	"strings"

	"jeezy-monetization-be/internal/entity"
	"jeezy-monetization-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const principalKey = "principal"

// DefaultAuthCookie is the cookie the web client stores its token in.
const DefaultAuthCookie = "backendToken"

// userIDClaims are read in order; issuers disagree on the claim name.
var userIDClaims = []string{"sub", "user_id", "userId", "id"}

func bearerOrCookie(ctx *fiber.Ctx, cookieName string) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ctx.Cookies(cookieName)
}

// PrincipalFromClaims normalizes a decoded token into a principal.
func PrincipalFromClaims(claims jwt.MapClaims) (entity.AuthenticatedPrincipal, bool) {
	for _, key := range userIDClaims {
		raw, ok := claims[key].(string)
		if !ok || raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		return entity.AuthenticatedPrincipal{UserID: id}, true
	}
	return entity.AuthenticatedPrincipal{}, false
}

// NewJwtMiddleware accepts an HS256 token from the Authorization header
// or the auth cookie and stores the principal in ctx.Locals.
func NewJwtMiddleware(secret, cookieName string) fiber.Handler {
	if cookieName == "" {
		cookieName = DefaultAuthCookie
	}
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}
	return func(ctx *fiber.Ctx) error {
		tokenStr := bearerOrCookie(ctx, cookieName)
		if tokenStr == "" {
			return apperror.Unauthenticated(apperror.CodeUnauthorized, "missing token")
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return apperror.Unauthenticated(apperror.CodeUnauthorized, "invalid token")
		}

		principal, ok := PrincipalFromClaims(claims)
		if !ok {
			return apperror.Unauthenticated(apperror.CodeUnauthorized, "invalid claims")
		}

		ctx.Locals(principalKey, principal)
		ctx.Locals("user_id", principal.UserID.String())
		return ctx.Next()
	}
}

// Principal returns the principal set by the JWT middleware.
func Principal(ctx *fiber.Ctx) (entity.AuthenticatedPrincipal, error) {
	p, ok := ctx.Locals(principalKey).(entity.AuthenticatedPrincipal)
	if !ok {
		return entity.AuthenticatedPrincipal{}, apperror.Unauthenticated(apperror.CodeUnauthorized, "not authenticated")
	}
	return p, nil
}

// RoleLookup resolves a user's current role from storage.
type RoleLookup interface {
	RoleOf(ctx context.Context, userId uuid.UUID) (entity.UserRole, error)
}

// RequireRole must run after the JWT middleware. The role is loaded
// fresh, so a token minted before a role change grants nothing extra.
func RequireRole(users RoleLookup, role entity.UserRole) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		p, err := Principal(ctx)
		if err != nil {
			return err
		}
		current, err := users.RoleOf(ctx.UserContext(), p.UserID)
		if err != nil {
			return err
		}
		if current != role {
			return apperror.Forbidden("requires role " + string(role))
		}
		return ctx.Next()
	}
}
