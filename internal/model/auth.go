package model

import (
	"time"

	"github.com/google/uuid"
)

// Session is created at login and carried explicitly through each request
// until logout deletes it.
type Session struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Username    string     `json:"username"`
	Role        Role       `json:"role"`
	ClinicianID *uuid.UUID `json:"clinician_id,omitempty"`
	IssuedAt    time.Time  `json:"issued_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

func (s *Session) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Session   *Session  `json:"session"`
}

// TokenClaims is what a signed access token asserts.
type TokenClaims struct {
	SessionID uuid.UUID
	UserID    uuid.UUID
	Role      Role
}
