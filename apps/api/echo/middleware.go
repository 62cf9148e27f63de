package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/role"
	"github.com/trezcool/campus/core/user"
)

// activeTokenMiddleware rejects refresh tokens and revoked access tokens.
func activeTokenMiddleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.Type != tokenTypeAccess || issuer.IsRevoked(claims) {
				return errInvalidToken
			}
			return next(ctx)
		}
	}
}

// roleMiddleware only lets users holding one of roles through.
// The role is read from the stored user, not from the token.
func roleMiddleware(svc *user.Service, roles ...role.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsActive && usr.Role.In(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
