package echoportal

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/campus/core/guard"
	"github.com/trezcool/campus/core/session"
)

const contextSessionKey = "session"

// guarded turns g's decision into a response: a loading placeholder, a redirect
// or the next handler. An unresolved session is checked first.
func (s *Server) guarded(g guard.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := s.ctrl.Session()
			if sess.Status == session.StatusUnknown {
				sess = s.ctrl.CheckSession(ctx.Request().Context())
			}

			d := g.Evaluate(sess, ctx.Request().URL.RequestURI())
			switch d.Kind {
			case guard.KindAllow:
				ctx.Set(contextSessionKey, sess)
				return next(ctx)
			case guard.KindRedirect:
				return ctx.Redirect(http.StatusFound, d.Location())
			}
			ctx.Response().Header().Set("Retry-After", "1")
			return ctx.JSON(http.StatusAccepted, echo.Map{"status": session.StatusLoading.String()})
		}
	}
}

func contextSession(ctx echo.Context) session.Session {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess
	}
	return session.Session{}
}
