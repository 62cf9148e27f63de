package echoportal

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/guard"
	"github.com/trezcool/campus/core/session"
	notifysvc "github.com/trezcool/campus/services/notify"
)

type (
	// view is what every portal page renders: its name, the session it was
	// rendered for and the notifications raised since the previous page.
	view struct {
		Name          string                   `json:"view"`
		Session       session.Session          `json:"session"`
		Data          interface{}              `json:"data,omitempty"`
		Error         string                   `json:"error,omitempty"`
		Notifications []notifysvc.Notification `json:"notifications,omitempty"`
	}

	loginData struct {
		Next string `json:"next,omitempty"`
	}

	loginForm struct {
		Email      string `json:"email" form:"email"`
		Password   string `json:"password" form:"password"`
		RememberMe bool   `json:"rememberMe" form:"rememberMe"`
		Next       string `json:"next" form:"next"`
	}
)

func (f loginForm) credentials() session.Credentials {
	return session.Credentials{Email: f.Email, Password: f.Password, RememberMe: f.RememberMe}
}

func (s *Server) render(ctx echo.Context, code int, v view) error {
	v.Session = s.ctrl.Session()
	v.Notifications = s.deps.Flash.Drain()
	return ctx.JSON(code, v)
}

// afterLogin is where a fresh session lands: the requested page, or the role's dashboard.
func (s *Server) afterLogin(sess session.Session, next string) string {
	return s.routes.SafeReturnPath(next, s.routes.DashboardFor(sess.Role()))
}

// Handlers

func (s *Server) home(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, view{Name: "home", Data: echo.Map{"app": s.deps.Conf.AppName}})
}

func (s *Server) loginView(ctx echo.Context) error {
	next := ctx.QueryParam("next")
	sess := s.ctrl.Session()
	if sess.Status == session.StatusUnknown {
		sess = s.ctrl.CheckSession(ctx.Request().Context())
	}
	if sess.IsAuthenticated() {
		return ctx.Redirect(http.StatusFound, s.afterLogin(sess, next))
	}
	return s.render(ctx, http.StatusOK, view{Name: "login", Data: loginData{Next: s.routes.SafeReturnPath(next, "")}})
}

func (s *Server) login(ctx echo.Context) error {
	var form loginForm
	if err := ctx.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid login form").SetInternal(err)
	}
	next := core.FirstNonEmpty(form.Next, ctx.QueryParam("next"))

	out := s.ctrl.Login(ctx.Request().Context(), form.credentials())
	if !out.OK {
		return s.render(ctx, http.StatusUnauthorized, view{
			Name:  "login",
			Error: out.Message,
			Data:  loginData{Next: s.routes.SafeReturnPath(next, "")},
		})
	}
	return ctx.Redirect(http.StatusFound, s.afterLogin(out.Session, next))
}

func (s *Server) register(ctx echo.Context) error {
	var reg session.Registration
	if err := ctx.Bind(&reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid registration form").SetInternal(err)
	}

	out := s.ctrl.Register(ctx.Request().Context(), reg)
	if !out.OK {
		return s.render(ctx, http.StatusBadRequest, view{Name: "register", Error: out.Message})
	}
	return ctx.Redirect(http.StatusFound, s.routes.DashboardFor(out.Session.Role()))
}

func (s *Server) logout(ctx echo.Context) error {
	s.ctrl.Logout(ctx.Request().Context())
	return ctx.Redirect(http.StatusFound, s.routes.Login)
}

func (s *Server) unauthorized(ctx echo.Context) error {
	return s.render(ctx, http.StatusForbidden, view{
		Name:  "unauthorized",
		Error: "You do not have access to this page",
		Data:  echo.Map{"dashboard": s.routes.DashboardFor(s.ctrl.Session().Role())},
	})
}

func (s *Server) dashboard(ctx echo.Context) error {
	return ctx.Redirect(http.StatusFound, s.routes.DashboardFor(contextSession(ctx).Role()))
}

// me re-validates the session so a token revoked elsewhere is noticed.
func (s *Server) me(ctx echo.Context) error {
	sess := s.ctrl.CheckSession(ctx.Request().Context())
	if d := guard.RequireAuth(s.routes).Evaluate(sess, ctx.Request().URL.RequestURI()); d.Kind == guard.KindRedirect {
		return ctx.Redirect(http.StatusFound, d.Location())
	}
	return s.render(ctx, http.StatusOK, view{Name: "me", Data: sess.Profile})
}

func personOf(sess session.Session) core.Person {
	if sess.Identity == nil {
		return core.Person{}
	}
	return core.Person{ID: sess.Identity.ID, Username: sess.Identity.DisplayName, Email: sess.Identity.Email}
}
