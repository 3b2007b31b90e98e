package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken stores the verifier of a refresh secret, never the secret itself.
// TokenFingerprint is nil on rows written while the column did not exist.
type RefreshToken struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID  `json:"userId" gorm:"type:uuid;not null;index"`
	SessionID        *uuid.UUID `json:"sessionId" gorm:"type:uuid"`
	TokenHash        string     `json:"-" gorm:"not null"`
	TokenFingerprint *string    `json:"-" gorm:"index"`
	ExpiresAt        time.Time  `json:"expiresAt" gorm:"not null;index"`
	RevokedAt        *time.Time `json:"revokedAt" gorm:"index"`
	RotatedFromID    *uuid.UUID `json:"rotatedFromId" gorm:"type:uuid"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type TokenState int

const (
	TokenLive TokenState = iota
	TokenExpired
	TokenRevoked
)

func (s TokenState) String() string {
	switch s {
	case TokenLive:
		return "live"
	case TokenExpired:
		return "expired"
	case TokenRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

// State evaluates expiry before revocation; both are terminal.
func (t *RefreshToken) State(now time.Time) TokenState {
	if !t.ExpiresAt.After(now) {
		return TokenExpired
	}
	if t.RevokedAt != nil {
		return TokenRevoked
	}
	return TokenLive
}
