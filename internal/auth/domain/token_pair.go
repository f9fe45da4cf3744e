package domain

import (
	"time"

	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

type TokenPairID int64

// TokenPair is one live session: the access token it authorizes and the
// refresh token that may replace it exactly once.
type TokenPair struct {
	ID           TokenPairID
	UserID       userdomain.ID
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the access token is past its expiry at now.
func (p TokenPair) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}
