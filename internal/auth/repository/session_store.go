package repository

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/Yaroher2442/FORTIFIED/internal/auth/domain"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

var (
	ErrTokenPairNotFound = errors.New("token pair not found")
	ErrTokenPairConflict = errors.New("token pair already exists")
)

// SessionTx is one atomic unit of work over users and token pairs. Every read
// and write made through it commits or rolls back together.
type SessionTx interface {
	CreateTokenPair(ctx context.Context, pair authdomain.TokenPair) (authdomain.TokenPairID, error)
	// FindTokenPair locks the matching row until the unit of work ends.
	FindTokenPair(ctx context.Context, accessToken, refreshToken string) (authdomain.TokenPair, error)
	FindTokenPairWithUser(ctx context.Context, accessToken string, userID userdomain.ID) (authdomain.TokenPair, userdomain.User, error)
	DeleteTokenPair(ctx context.Context, id authdomain.TokenPairID) error
	FindUserByEmail(ctx context.Context, email string) (userdomain.User, error)
	TouchLastActive(ctx context.Context, userID userdomain.ID, at time.Time) error
	TouchLastLogin(ctx context.Context, userID userdomain.ID, at time.Time) error
}

type SessionStore interface {
	WithTx(ctx context.Context, fn func(context.Context, SessionTx) error) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
