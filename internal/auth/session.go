package auth

import (
	"time"

	"github.com/google/uuid"
)

// SessionTTL is the fixed lifetime of a session, measured from login.
const SessionTTL = 24 * time.Hour

// Claim is the identity snapshot taken at login. It is not refreshed when
// the user record changes; a new login picks up the change.
type Claim struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}

// Session is a server-side login.
type Session struct {
	ID        string    `json:"id"`
	Claim     Claim     `json:"claim"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewSession starts a session for claim at now.
func NewSession(claim Claim, now time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Claim:     claim,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
}

// Expired reports whether the session is past its lifetime at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
