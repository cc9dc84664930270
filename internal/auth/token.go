package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"lpotracker/internal/apperr"
	"lpotracker/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL matches the access token lifetime of the browser client
const DefaultTokenTTL = time.Hour

// Identity is the payload of the "sub" claim. The browser decodes it for
// routing only; the server always verifies the signature first.
type Identity struct {
	ID   uint   `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// Claims is the JWT body. It implements jwt.Claims by hand because "sub"
// is an object rather than the registered string form.
type Claims struct {
	Subject   Identity         `json:"sub"`
	TokenID   string           `json:"jti,omitempty"`
	IssuedAt  *jwt.NumericDate `json:"iat,omitempty"`
	ExpiresAt *jwt.NumericDate `json:"exp,omitempty"`
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return "", nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }
func (c Claims) GetSubject() (string, error) {
	return strconv.FormatUint(uint64(c.Subject.ID), 10), nil
}

// TokenManager signs and verifies HS256 bearer tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of m that reads time from now.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	cp := *m
	cp.now = now
	return &cp
}

// Issue returns a signed access token for user.
func (m *TokenManager) Issue(user *model.User) (string, error) {
	issued := m.now()
	claims := Claims{
		Subject:   Identity{ID: user.ID, Role: user.Role, Name: user.Name},
		TokenID:   uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the session the
// token was issued for.
func (m *TokenManager) Verify(tokenString string) (Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, apperr.Unauthenticated("token has expired")
		}
		return Session{}, apperr.Unauthenticated("invalid token")
	}
	if !token.Valid {
		return Session{}, apperr.Unauthenticated("invalid token")
	}

	if claims.Subject.ID == 0 || !model.ValidRole(claims.Subject.Role) {
		return Session{}, apperr.Unauthenticated("invalid token subject")
	}

	return Session{
		UserID: claims.Subject.ID,
		Role:   claims.Subject.Role,
		Name:   claims.Subject.Name,
	}, nil
}
