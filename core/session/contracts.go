package session

import "context"

// AuthClient performs the remote identity calls the Controller depends on.
type AuthClient interface {
	Me(ctx context.Context) (*AuthResult, error)
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, reg Registration) (*AuthResult, error)
	Logout(ctx context.Context) error
}

// TokenStore is the scoped credential storage.
// Get returns an empty string and no error for a missing token.
type TokenStore interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Remove(ctx context.Context, names ...string) error
}
