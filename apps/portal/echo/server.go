package echoportal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/guard"
	"github.com/trezcool/campus/core/session"
	notifysvc "github.com/trezcool/campus/services/notify"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Controller     *session.Controller
		Flash          *notifysvc.Flash
		Routes         guard.Routes // zero: from Conf
		DisableReqLogs bool
	}

	// Server hosts the portal views for the session held by its Controller.
	Server struct {
		deps     ServerDeps
		ctrl     *session.Controller
		routes   guard.Routes
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = core.NopLogger
	}
	if deps.Flash == nil {
		deps.Flash = notifysvc.NewFlash(0)
	}
	routes := deps.Routes
	if routes == (guard.Routes{}) {
		routes = guard.RoutesFromConfig(deps.Conf)
	}

	s := &Server{
		deps:     deps,
		ctrl:     deps.Controller,
		routes:   routes,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	debug := s.deps.Conf.Debug

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.deps.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.render, s.SignalShutdown)
	s.app.Debug = debug

	// never guarded: guards redirect here
	s.app.GET("/", s.home)
	s.app.GET(s.routes.Login, s.loginView)
	s.app.POST(s.routes.Login, s.login)
	s.app.POST("/register", s.register)
	s.app.POST("/logout", s.logout)
	s.app.GET(s.routes.Unauthorized, s.unauthorized)

	authed := s.guarded(guard.RequireAuth(s.routes))
	s.app.GET(s.routes.Dashboard, s.dashboard, authed)
	s.app.GET("/me", s.me, authed)

	for prefix, roles := range guard.Areas {
		views, ok := areaViews[prefix]
		if !ok {
			continue
		}
		g := s.app.Group(prefix, s.guarded(guard.RequireRole(s.routes, roles...)))
		registerDashboards(g, s, prefix, views)
	}
}

// Start blocks until the server stops; failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Portal.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the process owning the server to shut it down.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}
