package session

import (
	"time"

	"certflow/pkg/domain"
)

// Challenge is a single-use login nonce bound to one identity.
type Challenge struct {
	Identity  domain.Identity `json:"identity"`
	Nonce     string          `json:"nonce"`
	Message   string          `json:"message"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Session is the result of a successful wallet login.
type Session struct {
	Identity    domain.Identity
	AccessToken string
	TokenID     string
	ExpiresAt   time.Time
}
