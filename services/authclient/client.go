// Package authclient talks to the ERP identity API.
package authclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/session"
)

// API paths, relative to the base URL.
const (
	PathMe       = "/auth/me"
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
	PathLogout   = "/auth/logout"
	PathRefresh  = "/auth/refresh-token"
)

// noRefresh lists the calls whose 401 is an answer, not an expired token.
var noRefresh = map[string]bool{
	PathLogin:    true,
	PathRegister: true,
	PathLogout:   true,
	PathRefresh:  true,
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     session.TokenStore
	Logger     core.Logger

	// OnSessionExpired runs after the tokens were dropped because they could not be refreshed.
	OnSessionExpired func()
}

type Client struct {
	baseURL   string
	rest      *rest.Client
	tokens    session.TokenStore
	logger    core.Logger
	onExpired func()
	refreshes singleflight.Group
}

var _ session.AuthClient = (*Client)(nil)

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		rest:      &rest.Client{HTTPClient: httpClient},
		tokens:    opts.Tokens,
		logger:    logger,
		onExpired: opts.OnSessionExpired,
	}
}

// NewFromConfig points a Client at conf.API.
func NewFromConfig(conf *core.Config, tokens session.TokenStore, logger core.Logger, onExpired func()) *Client {
	return New(Options{
		BaseURL:          conf.API.BaseURL,
		HTTPClient:       &http.Client{Timeout: conf.API.Timeout},
		Tokens:           tokens,
		Logger:           logger,
		OnSessionExpired: onExpired,
	})
}

type (
	envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}

	authData struct {
		User         *session.Identity `json:"user"`
		Profile      session.Profile   `json:"profile"`
		Token        string            `json:"token"`
		RefreshToken string            `json:"refreshToken"`
	}

	refreshData struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
)

func (d authData) result(msg string) *session.AuthResult {
	return &session.AuthResult{
		User:         d.User,
		Profile:      d.Profile,
		Token:        d.Token,
		RefreshToken: d.RefreshToken,
		Message:      msg,
	}
}

func (c *Client) Me(ctx context.Context) (*session.AuthResult, error) {
	var data authData
	msg, err := c.do(ctx, rest.Get, PathMe, nil, &data)
	if err != nil {
		return nil, err
	}
	if data.User == nil {
		return nil, errors.Wrap(session.ErrMalformedResponse, "missing user")
	}
	return data.result(msg), nil
}

func (c *Client) Login(ctx context.Context, creds session.Credentials) (*session.AuthResult, error) {
	var data authData
	msg, err := c.do(ctx, rest.Post, PathLogin, creds, &data)
	if err != nil {
		return nil, err
	}
	return data.result(msg), nil
}

func (c *Client) Register(ctx context.Context, reg session.Registration) (*session.AuthResult, error) {
	var data authData
	msg, err := c.do(ctx, rest.Post, PathRegister, reg, &data)
	if err != nil {
		return nil, err
	}
	return data.result(msg), nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, rest.Post, PathLogout, nil, nil)
	return err
}

// Refresh trades the stored refresh token for a new access token.
// Concurrent callers share one request.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	v, err, _ := c.refreshes.Do("refresh", func() (interface{}, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken, err := c.tokens.Get(ctx, session.TokenRefresh)
	if err != nil {
		return "", errors.Wrap(err, "reading refresh token")
	}
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	var data refreshData
	body := map[string]string{"refreshToken": refreshToken}
	if _, err := c.do(ctx, rest.Post, PathRefresh, body, &data); err != nil {
		return "", err
	}
	if data.Token == "" {
		return "", errors.Wrap(session.ErrMalformedResponse, "missing token")
	}
	if err := c.tokens.Set(ctx, session.TokenAccess, data.Token); err != nil {
		return "", errors.Wrap(err, "storing token")
	}
	if data.RefreshToken != "" {
		if err := c.tokens.Set(ctx, session.TokenRefresh, data.RefreshToken); err != nil {
			return "", errors.Wrap(err, "storing refresh token")
		}
	}
	return data.Token, nil
}

// expire drops both tokens and tells the view layer to go back to the login view.
func (c *Client) expire(ctx context.Context, cause error) error {
	c.logger.Info("session expired: " + cause.Error())
	if err := c.tokens.Remove(ctx, session.TokenAccess, session.TokenRefresh); err != nil {
		c.logger.Error("removing stored tokens: "+err.Error(), errors.Wrap(err, "removing stored tokens"))
	}
	if c.onExpired != nil {
		c.onExpired()
	}
	return ErrSessionExpired
}
