package session

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/role"
)

// Token names in the scoped token storage.
const (
	TokenAccess  = "token"
	TokenRefresh = "refreshToken"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusLoading
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// Settled reports whether no session operation is pending.
func (s Status) Settled() bool {
	return s == StatusAuthenticated || s == StatusUnauthenticated
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{StatusUnknown, StatusLoading, StatusAuthenticated, StatusUnauthenticated} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return errors.Errorf("invalid session status %q", text)
}

// Identity is the authenticated user's core attributes.
type Identity struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"name"`
	Role        role.Role `json:"role"`
	Email       string    `json:"email"`
}

// Profile is role-specific extended data; opaque to the session.
type Profile map[string]interface{}

// Session is a point-in-time view of the authentication state.
// Identity is set iff Status is StatusAuthenticated.
type Session struct {
	Status    Status    `json:"status"`
	Identity  *Identity `json:"user,omitempty"`
	Profile   Profile   `json:"profile,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.Identity != nil
}

// Role is empty unless authenticated.
func (s Session) Role() role.Role {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.Identity.Role
}

func (s Session) clone() Session {
	c := s
	if s.Identity != nil {
		id := *s.Identity
		c.Identity = &id
	}
	if s.Profile != nil {
		c.Profile = make(Profile, len(s.Profile))
		for k, v := range s.Profile {
			c.Profile[k] = v
		}
	}
	return c
}

type Credentials struct {
	Email      string `json:"email" form:"email" validate:"required,email"`
	Password   string `json:"password" form:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe" form:"rememberMe"`
}

type Registration struct {
	Name            string    `json:"name" form:"name" validate:"required"`
	Email           string    `json:"email" form:"email" validate:"required,email"`
	Password        string    `json:"password" form:"password" validate:"required"`
	PasswordConfirm string    `json:"passwordConfirm" form:"passwordConfirm" validate:"required,eqfield=Password"`
	Role            role.Role `json:"role" form:"role" validate:"required,campusrole"`
	Phone           string    `json:"phone,omitempty" form:"phone"`
	Department      string    `json:"department,omitempty" form:"department"`
}

// AuthResult is what the identity API returns for a session check, login or registration.
type AuthResult struct {
	User         *Identity
	Profile      Profile
	Token        string
	RefreshToken string
	Message      string
}

// Outcome reports how a login or registration ended.
type Outcome struct {
	OK      bool
	Message string
	Session Session
}
