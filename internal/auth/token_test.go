package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"lpotracker/internal/apperr"
	"lpotracker/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-for-tokens")

func TestIssueAndVerify(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, err := tm.Issue(&model.User{ID: 12, Name: "Wanjiru", Role: model.RoleAdmin})
	require.NoError(t, err)

	session, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(12), session.UserID)
	assert.Equal(t, model.RoleAdmin, session.Role)
	assert.Equal(t, "Wanjiru", session.Name)
	assert.True(t, session.IsAdmin())
}

func TestPayloadIsDecodableWithoutSecret(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	token, err := tm.Issue(&model.User{ID: 3, Name: "Otieno", Role: model.RoleUser})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var payload struct {
		Sub Identity `json:"sub"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, Identity{ID: 3, Role: model.RoleUser, Name: "Otieno"}, payload.Sub)
}

func TestVerifyExpired(t *testing.T) {
	issuedAt := time.Date(2025, 4, 28, 9, 0, 0, 0, time.UTC)
	tm := NewTokenManager(testSecret, time.Hour).WithClock(func() time.Time { return issuedAt })

	token, err := tm.Issue(&model.User{ID: 1, Role: model.RoleUser})
	require.NoError(t, err)

	later := tm.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	_, err = later.Verify(token)
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, "token has expired", apperr.Message(err))
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	token, err := NewTokenManager([]byte("another-secret"), time.Hour).Issue(&model.User{ID: 1, Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Verify(token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	claims := Claims{
		Subject:   Identity{ID: 1, Role: model.RoleAdmin},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Verify(token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	claims := Claims{
		Subject:   Identity{ID: 1, Role: "superuser"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Verify(token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	claims := Claims{Subject: Identity{ID: 1, Role: model.RoleUser}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Verify(token)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := NewTokenManager(testSecret, time.Hour).Verify("not-a-token")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, "password123", hash)
	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "password124"))
}

func TestSessionOwns(t *testing.T) {
	s := Session{UserID: 5, Role: model.RoleUser}
	assert.True(t, s.Owns(5))
	assert.False(t, s.Owns(6))
	assert.False(t, Session{}.Owns(0))
	assert.False(t, s.IsAdmin())
}
