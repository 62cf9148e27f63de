package session

import "fmt"

// action is a sealed set of session events; only this package can add members.
type action interface {
	isAction()
}

type (
	checkStarted   struct{}
	checkSucceeded struct {
		identity Identity
		profile  Profile
	}
	checkFailed struct{}

	authStarted   struct{}
	authSucceeded struct {
		identity Identity
		profile  Profile
	}
	authFailed struct {
		message string
	}

	loggedOut struct{}
)

func (checkStarted) isAction()   {}
func (checkSucceeded) isAction() {}
func (checkFailed) isAction()    {}
func (authStarted) isAction()    {}
func (authSucceeded) isAction()  {}
func (authFailed) isAction()     {}
func (loggedOut) isAction()      {}

// reduce returns the session that follows prev once a is applied.
// Every result is built from scratch so that LastError is cleared on every
// transition and an identity is only ever present alongside StatusAuthenticated.
func reduce(prev Session, a action) Session {
	switch a := a.(type) {
	case checkStarted, authStarted:
		return Session{Status: StatusLoading}
	case checkSucceeded:
		return authenticated(a.identity, a.profile)
	case authSucceeded:
		return authenticated(a.identity, a.profile)
	case checkFailed, loggedOut:
		return Session{Status: StatusUnauthenticated}
	case authFailed:
		return Session{Status: StatusUnauthenticated, LastError: a.message}
	}
	panic(fmt.Sprintf("session: unhandled action %T (from %s)", a, prev.Status))
}

func authenticated(id Identity, profile Profile) Session {
	s := Session{Status: StatusAuthenticated, Identity: &id}
	if profile != nil {
		s.Profile = make(Profile, len(profile))
		for k, v := range profile {
			s.Profile[k] = v
		}
	}
	return s
}
