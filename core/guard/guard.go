// Package guard decides whether a session may enter a route.
// Guards are pure: they never perform I/O and never change the session.
package guard

import (
	"net/url"

	"github.com/trezcool/campus/core/role"
	"github.com/trezcool/campus/core/session"
)

type Kind int

const (
	// KindWait means the session is not settled yet; render a placeholder.
	KindWait Kind = iota
	KindAllow
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindAllow:
		return "allow"
	case KindRedirect:
		return "redirect"
	}
	return "wait"
}

// Decision is what a guard wants the view layer to do.
// The zero Decision waits.
type Decision struct {
	Kind     Kind
	Target   string
	ReturnTo string // where to go once Target has been dealt with
}

func Wait() Decision  { return Decision{Kind: KindWait} }
func Allow() Decision { return Decision{Kind: KindAllow} }

func RedirectTo(target, returnTo string) Decision {
	return Decision{Kind: KindRedirect, Target: target, ReturnTo: returnTo}
}

// Location renders a redirect as a URL; it is empty for other kinds.
func (d Decision) Location() string {
	if d.Kind != KindRedirect {
		return ""
	}
	if d.ReturnTo == "" {
		return d.Target
	}
	return d.Target + "?" + url.Values{"next": {d.ReturnTo}}.Encode()
}

func (d Decision) String() string {
	if d.Kind == KindRedirect {
		return d.Kind.String() + " " + d.Location()
	}
	return d.Kind.String()
}

// Guard evaluates a session against the requested route.
type Guard interface {
	Evaluate(s session.Session, requested string) Decision
}

type AuthGuard struct {
	routes Routes
}

// RequireAuth only lets authenticated sessions through.
func RequireAuth(routes Routes) AuthGuard {
	return AuthGuard{routes: routes.withDefaults()}
}

func (g AuthGuard) Evaluate(s session.Session, requested string) Decision {
	switch s.Status {
	case session.StatusAuthenticated:
		if s.Identity != nil {
			return Allow()
		}
	case session.StatusUnauthenticated:
		return g.routes.toLogin(requested)
	}
	return Wait()
}

type RoleGuard struct {
	routes  Routes
	allowed []role.Role
}

// RequireRole only lets authenticated sessions holding one of allowed through.
// An empty allow-list admits nobody.
func RequireRole(routes Routes, allowed ...role.Role) RoleGuard {
	return RoleGuard{routes: routes.withDefaults(), allowed: append([]role.Role(nil), allowed...)}
}

func (g RoleGuard) Allowed() []role.Role {
	return append([]role.Role(nil), g.allowed...)
}

func (g RoleGuard) Evaluate(s session.Session, requested string) Decision {
	switch s.Status {
	case session.StatusAuthenticated:
		if s.Identity == nil {
			return Wait()
		}
		if s.Identity.Role.In(g.allowed...) {
			return Allow()
		}
		return RedirectTo(g.routes.Unauthorized, "")
	case session.StatusUnauthenticated:
		return g.routes.toLogin(requested)
	}
	return Wait()
}

// Chain evaluates guards in order and returns the first decision that is not Allow.
func Chain(guards ...Guard) Guard {
	return chain(guards)
}

type chain []Guard

func (c chain) Evaluate(s session.Session, requested string) Decision {
	for _, g := range c {
		if d := g.Evaluate(s, requested); d.Kind != KindAllow {
			return d
		}
	}
	return Allow()
}
