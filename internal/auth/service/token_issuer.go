package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	authdomain "github.com/Yaroher2442/FORTIFIED/internal/auth/domain"
	authrepo "github.com/Yaroher2442/FORTIFIED/internal/auth/repository"
	"github.com/Yaroher2442/FORTIFIED/internal/auth/tokencodec"
	"github.com/Yaroher2442/FORTIFIED/internal/common/clock"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
	userrepo "github.com/Yaroher2442/FORTIFIED/internal/user/repository"
)

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenIssuer mints access/refresh pairs and records them as sessions.
type TokenIssuer struct {
	store          authrepo.SessionStore
	codec          *tokencodec.Codec
	clock          clock.Clock
	accessTokenTTL time.Duration
	log            *logger.Logger

	mu         sync.Mutex
	lastExpiry int64
}

func NewTokenIssuer(
	store authrepo.SessionStore,
	codec *tokencodec.Codec,
	accessTokenTTL time.Duration,
	clock clock.Clock,
	log *logger.Logger,
) *TokenIssuer {
	return &TokenIssuer{
		store:          store,
		codec:          codec,
		clock:          clock,
		accessTokenTTL: accessTokenTTL,
		log:            log,
	}
}

// Issue creates a new session for user in its own unit of work.
func (ti *TokenIssuer) Issue(ctx context.Context, user userdomain.User) (AuthResult, error) {
	var result AuthResult
	err := ti.store.WithTx(ctx, func(ctx context.Context, tx authrepo.SessionTx) error {
		var err error
		result, err = ti.IssueTx(ctx, tx, user)
		return err
	})
	if err != nil {
		return AuthResult{}, handleCircuitBreakerError(err)
	}
	return result, nil
}

// IssueTx creates a new session inside an existing unit of work.
func (ti *TokenIssuer) IssueTx(ctx context.Context, tx authrepo.SessionTx, user userdomain.User) (AuthResult, error) {
	expiresAtMs := ti.nextExpiry(ti.clock.Now().Add(ti.accessTokenTTL).UnixMilli())

	accessToken, err := ti.codec.EncodeAccess(tokencodec.AccessPayload{
		UserID:    int64(user.ID),
		ExpiresAt: expiresAtMs,
	})
	if err != nil {
		return AuthResult{}, err
	}

	refreshToken, err := ti.codec.EncodeRefresh(tokencodec.RefreshPayload{
		UserID:      int64(user.ID),
		AccessToken: accessToken,
	})
	if err != nil {
		return AuthResult{}, err
	}

	expiresAt := time.UnixMilli(expiresAtMs).UTC()
	pairID, err := tx.CreateTokenPair(ctx, authdomain.TokenPair{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return AuthResult{}, fmt.Errorf("failed to store token pair: %w", err)
	}

	incrementTokenPairsIssued()
	ti.log.WithFields(ctx, logger.Fields{
		"action":        "token_pair_issued",
		"user_id":       int64(user.ID),
		"token_pair_id": int64(pairID),
	}).Debug("token pair issued")

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// Authenticate resolves the login identity for email.
func (ti *TokenIssuer) Authenticate(ctx context.Context, email string) (userdomain.User, error) {
	var user userdomain.User
	err := ti.store.WithTx(ctx, func(ctx context.Context, tx authrepo.SessionTx) error {
		var err error
		user, err = tx.FindUserByEmail(ctx, email)
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	})
	if err != nil {
		return userdomain.User{}, handleCircuitBreakerError(err)
	}
	return user, nil
}

// nextExpiry returns candidate, bumped past the previous value when needed.
// Access tokens are a pure function of (user, expiry), so two pairs issued in
// the same millisecond would otherwise be identical.
func (ti *TokenIssuer) nextExpiry(candidate int64) int64 {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	if candidate <= ti.lastExpiry {
		candidate = ti.lastExpiry + 1
	}
	ti.lastExpiry = candidate
	return candidate
}
