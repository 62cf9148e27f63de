package guard

import (
	"net/url"
	"strings"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/role"
)

const (
	DefaultLogin        = "/login"
	DefaultUnauthorized = "/unauthorized"
	DefaultDashboard    = "/dashboard"
)

// dashboards maps each role to its home view.
var dashboards = map[role.Role]string{
	role.Student:   "/student/dashboard",
	role.Faculty:   "/faculty/dashboard",
	role.Admin:     "/admin/dashboard",
	role.Librarian: "/library/dashboard",
}

// Areas maps each role-scoped path prefix to the roles allowed in it.
var Areas = map[string][]role.Role{
	"/student": {role.Student},
	"/faculty": {role.Faculty},
	"/admin":   {role.Admin},
	"/library": {role.Librarian, role.Admin},
}

// public pages are reachable without a session.
var public = []string{"/", "/register", "/logout"}

// Routes names the views guards redirect to.
type Routes struct {
	Login        string
	Unauthorized string
	Dashboard    string
}

// DefaultRoutes are used for any route left empty.
func DefaultRoutes() Routes {
	return Routes{Login: DefaultLogin, Unauthorized: DefaultUnauthorized, Dashboard: DefaultDashboard}
}

func RoutesFromConfig(conf *core.Config) Routes {
	return Routes{
		Login:        conf.Routes.Login,
		Unauthorized: conf.Routes.Unauthorized,
		Dashboard:    conf.Routes.Dashboard,
	}.withDefaults()
}

func (r Routes) withDefaults() Routes {
	def := DefaultRoutes()
	r.Login = core.FirstNonEmpty(r.Login, def.Login)
	r.Unauthorized = core.FirstNonEmpty(r.Unauthorized, def.Unauthorized)
	r.Dashboard = core.FirstNonEmpty(r.Dashboard, def.Dashboard)
	return r
}

func (r Routes) toLogin(requested string) Decision {
	if samePath(requested, r.Login) {
		return RedirectTo(r.Login, "")
	}
	return RedirectTo(r.Login, r.SafeReturnPath(requested, ""))
}

// GuardFor returns the guard protecting path, or nil for a public page.
// Role areas get RequireRole with the area's roles; every other page needs a session.
func (r Routes) GuardFor(path string) Guard {
	r = r.withDefaults()
	if samePath(path, r.Login) || samePath(path, r.Unauthorized) {
		return nil
	}
	for _, p := range public {
		if samePath(path, p) {
			return nil
		}
	}
	for prefix, roles := range Areas {
		if inArea(path, prefix) {
			return RequireRole(r, roles...)
		}
	}
	return RequireAuth(r)
}

// DashboardFor returns the home view of rl, or the unauthorized view for unknown roles.
func (r Routes) DashboardFor(rl role.Role) string {
	if path, ok := dashboards[rl]; ok {
		return path
	}
	return r.withDefaults().Unauthorized
}

// SafeReturnPath returns next when it is a local absolute path, fallback otherwise.
// The login and unauthorized views are never valid return targets.
func (r Routes) SafeReturnPath(next, fallback string) string {
	r = r.withDefaults()
	next = strings.TrimSpace(next)
	if !isLocalPath(next) || samePath(next, r.Login) || samePath(next, r.Unauthorized) {
		return fallback
	}
	return next
}

func isLocalPath(p string) bool {
	if p == "" || p[0] != '/' || strings.HasPrefix(p, "//") || strings.ContainsAny(p, "\\\r\n") {
		return false
	}
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && u.User == nil
}

func inArea(p, prefix string) bool {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func samePath(p, route string) bool {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.TrimRight(p, "/") == strings.TrimRight(route, "/")
}
