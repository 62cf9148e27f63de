package echoapi

import (
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/role"
	"github.com/trezcool/campus/core/user"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Type         string    `json:"typ"`
	OrigIssuedAt int64     `json:"oriat,omitempty"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Role         role.Role `json:"role,omitempty"`
}

func (c Claims) person() core.Person {
	return core.Person{ID: c.Subject, Username: c.Name, Email: c.Email}
}

// TokenIssuer signs and checks the API's access and refresh tokens.
type TokenIssuer struct {
	conf    *core.Config
	key     []byte
	method  jwt.SigningMethod
	revoked *revocations
}

func NewTokenIssuer(conf *core.Config) *TokenIssuer {
	return &TokenIssuer{
		conf:    conf,
		key:     []byte(conf.SecretKey),
		method:  jwt.GetSigningMethod(middleware.AlgorithmHS256),
		revoked: newRevocations(),
	}
}

func (ti *TokenIssuer) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    ti.key,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// UserClaims returns the claims of a typ token for usr.
// Refresh tokens keep the original issue time of the session they extend.
func (ti *TokenIssuer) UserClaims(usr user.User, typ string, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 && origIat[0] > 0 {
		oriat = origIat[0]
	}
	delta := ti.conf.Server.JWTExpirationDelta
	if typ == tokenTypeRefresh {
		delta = ti.conf.Server.JWTRefreshExpirationDelta
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    ti.conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(delta).Unix(),
			IssuedAt:  nownix,
		},
		Type:         typ,
		OrigIssuedAt: oriat,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (ti *TokenIssuer) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(ti.method, claims)
	ss, err := token.SignedString(ti.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// IssuePair returns a fresh access token and a refresh token for usr.
func (ti *TokenIssuer) IssuePair(usr user.User, origIat ...int64) (access, refresh string, err error) {
	if access, err = ti.GenerateToken(ti.UserClaims(usr, tokenTypeAccess, origIat...)); err != nil {
		return "", "", err
	}
	if refresh, err = ti.GenerateToken(ti.UserClaims(usr, tokenTypeRefresh, origIat...)); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Parse verifies tokenStr and returns its claims.
func (ti *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != ti.method.Alg() {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.key, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Revoke makes the token identified by claims unusable until it expires.
func (ti *TokenIssuer) Revoke(claims *Claims) {
	ti.revoked.add(claims.Id, time.Unix(claims.ExpiresAt, 0))
}

func (ti *TokenIssuer) IsRevoked(claims *Claims) bool {
	return ti.revoked.has(claims.Id)
}

// revocations is the set of revoked token ids; expired entries are purged on write.
type revocations struct {
	mu  sync.RWMutex
	ids map[string]time.Time // {jti: expiresAt}
}

func newRevocations() *revocations {
	return &revocations{ids: make(map[string]time.Time)}
}

func (r *revocations) add(jti string, exp time.Time) {
	if jti == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, e := range r.ids {
		if e.Before(now) {
			delete(r.ids, id)
		}
	}
	r.ids[jti] = exp
}

func (r *revocations) has(jti string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[jti]
	return ok
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.GetByID(claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUserNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

// refresh trades a refresh token for a new pair; the old refresh token is revoked.
func (ti *TokenIssuer) refresh(refreshToken string, svc *user.Service) (user.User, string, string, error) {
	claims, err := ti.Parse(refreshToken)
	if err != nil {
		return user.User{}, "", "", err
	}
	if claims.Type != tokenTypeRefresh || ti.IsRevoked(claims) {
		return user.User{}, "", "", errInvalidToken
	}

	usr, err := svc.GetByID(claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, "", "", errInvalidToken
		}
		return user.User{}, "", "", errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return user.User{}, "", "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(ti.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return user.User{}, "", "", errRefreshExpired
	}

	access, refresh, err := ti.IssuePair(usr, claims.OrigIssuedAt)
	if err != nil {
		return user.User{}, "", "", errors.Wrap(err, "generating tokens")
	}
	ti.Revoke(claims)
	return usr, access, refresh, nil
}
