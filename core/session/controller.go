package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/role"
)

var (
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
	msgStoreFailed    = "could not store credentials"
	msgLoggedOut      = "You have been logged out"

	// ErrMalformedResponse is reported when the identity API answers without a usable user.
	ErrMalformedResponse = errors.New("malformed response from identity API")
)

type Options struct {
	Client     AuthClient
	Tokens     TokenStore
	Notifier   core.Notifier
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
}

// Controller owns every Session transition.
// Mutating operations are serialized; concurrent session checks share one request.
type Controller struct {
	store      *Store
	client     AuthClient
	tokens     TokenStore
	notifier   core.Notifier
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator

	mu     sync.Mutex
	checks singleflight.Group
}

func NewController(store *Store, opts Options) *Controller {
	c := &Controller{
		store:      store,
		client:     opts.Client,
		tokens:     opts.Tokens,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
		validate:   opts.Validate,
		translator: opts.Translator,
	}
	if c.store == nil {
		c.store = NewStore()
	}
	if c.notifier == nil {
		c.notifier = core.NopNotifier
	}
	if c.logger == nil {
		c.logger = core.NopLogger
	}
	if c.validate == nil || c.translator == nil {
		c.validate, c.translator = core.NewValidator()
	}
	return c
}

func (c *Controller) Store() *Store { return c.store }

func (c *Controller) Session() Session { return c.store.Snapshot() }

// Start validates the stored credential at application start.
func (c *Controller) Start(ctx context.Context) Session {
	return c.CheckSession(ctx)
}

// CheckSession resolves the session from the stored access token.
// It never fails: every error settles the session as unauthenticated and
// discards the stored tokens.
func (c *Controller) CheckSession(ctx context.Context) Session {
	v, _, _ := c.checks.Do("check", func() (interface{}, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.checkSession(ctx), nil
	})
	return v.(Session)
}

func (c *Controller) checkSession(ctx context.Context) Session {
	c.store.dispatch(checkStarted{})

	token, err := c.tokens.Get(ctx, TokenAccess)
	if err != nil {
		c.logger.Error(fmt.Sprintf("reading stored token: %v", err), errors.Wrap(err, "reading stored token"))
		c.clearTokens(ctx)
		return c.store.dispatch(checkFailed{})
	}
	if token == "" {
		return c.store.dispatch(checkFailed{})
	}

	res, err := c.client.Me(ctx)
	if err == nil && (res == nil || res.User == nil) {
		err = ErrMalformedResponse
	}
	if err != nil {
		c.logger.Info(fmt.Sprintf("session check failed: %v", err))
		c.clearTokens(ctx)
		return c.store.dispatch(checkFailed{})
	}

	s := c.store.dispatch(checkSucceeded{identity: *res.User, profile: res.Profile})
	c.logger.Debug("session restored", personOf(s))
	return s
}

// Login authenticates with creds and persists the returned tokens.
// A refresh token is only kept when creds.RememberMe is set.
func (c *Controller) Login(ctx context.Context, creds Credentials) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.dispatch(authStarted{})

	creds.Email = core.CleanString(creds.Email, true /* lower */)
	if err := c.validate.Struct(creds); err != nil {
		return c.authFailure(ctx, core.ErrorMessage(err, c.translator))
	}

	res, err := c.client.Login(ctx, creds)
	if err != nil {
		return c.authFailure(ctx, MessageOf(err, msgLoginFailed))
	}
	return c.authSuccess(ctx, res, creds.RememberMe, "Welcome back")
}

// Register creates an account; the returned identity is authenticated right away.
func (c *Controller) Register(ctx context.Context, reg Registration) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.dispatch(authStarted{})

	reg.Name = strings.Join(strings.Fields(reg.Name), " ")
	reg.Email = core.CleanString(reg.Email, true /* lower */)
	if err := c.validate.Struct(reg); err != nil {
		return c.authFailure(ctx, core.ErrorMessage(err, c.translator))
	}

	res, err := c.client.Register(ctx, reg)
	if err != nil {
		return c.authFailure(ctx, MessageOf(err, msgRegisterFailed))
	}
	return c.authSuccess(ctx, res, true, "Welcome")
}

func (c *Controller) authSuccess(ctx context.Context, res *AuthResult, keepRefresh bool, greeting string) Outcome {
	if res == nil || res.User == nil || res.Token == "" {
		return c.authFailure(ctx, ErrMalformedResponse.Error())
	}

	if err := c.tokens.Set(ctx, TokenAccess, res.Token); err != nil {
		c.logger.Error(fmt.Sprintf("storing token: %v", err), errors.Wrap(err, "storing token"))
		return c.authFailure(ctx, msgStoreFailed)
	}
	if keepRefresh && res.RefreshToken != "" {
		if err := c.tokens.Set(ctx, TokenRefresh, res.RefreshToken); err != nil {
			c.logger.Warn(fmt.Sprintf("storing refresh token: %v", err), errors.Wrap(err, "storing refresh token"))
		}
	} else if err := c.tokens.Remove(ctx, TokenRefresh); err != nil {
		c.logger.Warn(fmt.Sprintf("removing stale refresh token: %v", err), err)
	}

	s := c.store.dispatch(authSucceeded{identity: *res.User, profile: res.Profile})
	msg := core.FirstNonEmpty(res.Message, greeting+", "+core.FirstNonEmpty(res.User.DisplayName, res.User.Email)+"!")
	c.notifier.Success(msg)
	c.logger.Info("user logged in", personOf(s))
	return Outcome{OK: true, Message: msg, Session: s}
}

// authFailure drops any stored tokens so storage agrees with the unauthenticated session.
func (c *Controller) authFailure(ctx context.Context, msg string) Outcome {
	c.clearTokens(ctx)
	s := c.store.dispatch(authFailed{message: msg})
	c.notifier.Error(msg)
	return Outcome{OK: false, Message: msg, Session: s}
}

// Logout always leaves the client logged out, whatever the identity API answers.
func (c *Controller) Logout(ctx context.Context) Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	person := personOf(c.store.Snapshot())
	token, err := c.tokens.Get(ctx, TokenAccess)
	if err != nil {
		c.logger.Error(fmt.Sprintf("reading stored token: %v", err), errors.Wrap(err, "reading stored token"), person)
	}
	if token != "" {
		if err := c.client.Logout(ctx); err != nil {
			c.logger.Warn(fmt.Sprintf("remote logout failed: %v", err), err, person)
		}
	}
	c.clearTokens(ctx)

	s := c.store.dispatch(loggedOut{})
	c.notifier.Info(msgLoggedOut)
	c.logger.Info("user logged out", person)
	return s
}

// HasRole is false unless the session is authenticated with exactly r.
func (c *Controller) HasRole(r role.Role) bool {
	return c.HasAnyRole(r)
}

// HasAnyRole is false unless the session is authenticated with one of roles.
func (c *Controller) HasAnyRole(roles ...role.Role) bool {
	s := c.store.Snapshot()
	if !s.IsAuthenticated() {
		return false
	}
	return s.Identity.Role.In(roles...)
}

// clearTokens removes both tokens together.
func (c *Controller) clearTokens(ctx context.Context) {
	if err := c.tokens.Remove(ctx, TokenAccess, TokenRefresh); err != nil {
		c.logger.Error(fmt.Sprintf("removing stored tokens: %v", err), errors.Wrap(err, "removing stored tokens"))
	}
}

// MessageOf prefers the server-supplied message, then the transport's, then fallback.
func MessageOf(err error, fallback string) string {
	var srv interface{ ServerMessage() string }
	if errors.As(err, &srv) {
		if msg := srv.ServerMessage(); msg != "" {
			return msg
		}
	}
	if err != nil {
		return core.FirstNonEmpty(err.Error(), fallback)
	}
	return fallback
}

func personOf(s Session) core.Person {
	if s.Identity == nil {
		return core.Person{}
	}
	return core.Person{ID: s.Identity.ID, Username: s.Identity.DisplayName, Email: s.Identity.Email}
}
