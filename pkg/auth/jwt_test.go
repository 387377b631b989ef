package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/cardio-api/internal/model"
)

func newSession(ttl time.Duration) *model.Session {
	now := time.Now()
	return &model.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Username:  "drhouse",
		Role:      model.RoleClinician,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", "cardio-api")
	session := newSession(time.Hour)

	token, err := svc.GenerateAccessToken(session)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, claims.SessionID)
	assert.Equal(t, session.UserID, claims.UserID)
	assert.Equal(t, model.RoleClinician, claims.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret", "cardio-api").GenerateAccessToken(newSession(time.Hour))
	require.NoError(t, err)

	_, err = NewJWTService("other", "cardio-api").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := NewJWTService("secret", "cardio-api")
	session := newSession(-time.Minute)

	token, err := svc.GenerateAccessToken(session)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignIssuer(t *testing.T) {
	token, err := NewJWTService("secret", "someone-else").GenerateAccessToken(newSession(time.Hour))
	require.NoError(t, err)

	_, err = NewJWTService("secret", "cardio-api").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
