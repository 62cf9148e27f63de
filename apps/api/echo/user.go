package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/role"
	"github.com/trezcool/campus/core/user"
)

type authApi struct {
	svc        *user.Service
	issuer     *TokenIssuer
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

func registerAuthAPI(g *echo.Group, api *authApi) {
	jwt := middleware.JWTWithConfig(api.issuer.jwtConfig())

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/register", api.register)
	ag.POST("/refresh-token", api.refreshToken)

	// authed endpoints
	tg := ag.Group("", jwt, activeTokenMiddleware(api.issuer))
	tg.GET("/me", api.me)
	tg.POST("/logout", api.logout)

	ug := g.Group("/users", jwt, activeTokenMiddleware(api.issuer), roleMiddleware(api.svc, role.Admin))
	ug.GET("", api.queryUsers)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(data.Email, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials:
			return errAuthenticationFailed
		case user.ErrInactive:
			return errAccountDeactivated
		}
		return errors.Wrap(err, "authenticating")
	}

	resp, err := api.authResponse(usr)
	if err != nil {
		return err
	}
	api.logger.Info("user logged in", usr.Person())
	return ctx.JSON(http.StatusOK, ok("Login successful", resp))
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.svc.Register(data)
	if err != nil {
		return err
	}

	resp, err := api.authResponse(usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ok("Registration successful", resp))
}

func (api *authApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}
	return ctx.JSON(http.StatusOK, ok("", AuthResponse{User: usr, Profile: usr.Profile()}))
}

func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	api.issuer.Revoke(claims)

	// the refresh token is optional; a bad one does not fail the logout
	var data LogoutRequest
	if err := ctx.Bind(&data); err == nil && data.RefreshToken != "" {
		if rc, err := api.issuer.Parse(data.RefreshToken); err == nil && rc.Subject == claims.Subject {
			api.issuer.Revoke(rc)
		}
	}
	return ctx.JSON(http.StatusOK, ok("Logged out", nil))
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	_, access, refresh, err := api.issuer.refresh(data.RefreshToken, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ok("Token refreshed", TokenResponse{Token: access, RefreshToken: refresh}))
}

func (api *authApi) queryUsers(ctx echo.Context) error {
	users, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, ok("", users))
}

func (api *authApi) authResponse(usr user.User) (AuthResponse, error) {
	access, refresh, err := api.issuer.IssuePair(usr)
	if err != nil {
		return AuthResponse{}, errors.Wrap(err, "generating tokens")
	}
	return AuthResponse{User: usr, Profile: usr.Profile(), Token: access, RefreshToken: refresh}, nil
}
