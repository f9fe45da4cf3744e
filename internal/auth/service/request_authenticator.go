package service

import (
	"context"
	"errors"

	authrepo "github.com/Yaroher2442/FORTIFIED/internal/auth/repository"
	"github.com/Yaroher2442/FORTIFIED/internal/auth/tokencodec"
	"github.com/Yaroher2442/FORTIFIED/internal/common/clock"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

// Policy relaxes the checks of Validate for specific operations.
type Policy struct {
	// PassNotVerified admits accounts that have not been verified yet.
	PassNotVerified bool
	// PassExpired admits access tokens past their expiry, as refresh must.
	PassExpired bool
}

// RequestAuthenticator resolves the user behind a presented access token.
type RequestAuthenticator struct {
	store authrepo.SessionStore
	codec *tokencodec.Codec
	clock clock.Clock
	log   *logger.Logger
}

func NewRequestAuthenticator(store authrepo.SessionStore, codec *tokencodec.Codec, clock clock.Clock, log *logger.Logger) *RequestAuthenticator {
	return &RequestAuthenticator{
		store: store,
		codec: codec,
		clock: clock,
		log:   log,
	}
}

func (ra *RequestAuthenticator) Validate(ctx context.Context, token string, policy Policy) (userdomain.User, error) {
	incrementValidation()

	if token == "" {
		return userdomain.User{}, ra.fail(ctx, "missing", ErrInvalidHeader)
	}

	payload, err := ra.codec.DecodeAccess(token)
	if err != nil {
		return userdomain.User{}, ra.fail(ctx, "malformed", ErrInvalidToken)
	}

	now := ra.clock.Now()
	if payload.ExpiresAt < now.UnixMilli() && !policy.PassExpired {
		return userdomain.User{}, ra.fail(ctx, "expired", ErrTokenExpired)
	}

	var user userdomain.User
	err = ra.store.WithTx(ctx, func(ctx context.Context, tx authrepo.SessionTx) error {
		pair, owner, err := tx.FindTokenPairWithUser(ctx, token, userdomain.ID(payload.UserID))
		if errors.Is(err, authrepo.ErrTokenPairNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if pair.ExpiresAt.UnixMilli() != payload.ExpiresAt {
			return ErrInvalidToken
		}

		if !owner.Verified && !policy.PassNotVerified {
			return ErrNotVerified
		}

		at := now.UTC()
		if err := tx.TouchLastActive(ctx, owner.ID, at); err != nil {
			return err
		}
		owner.LastActiveAt = &at
		user = owner
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			return userdomain.User{}, ra.fail(ctx, "unknown_session", ErrInvalidToken)
		case errors.Is(err, ErrNotVerified):
			return userdomain.User{}, ra.fail(ctx, "not_verified", ErrNotVerified)
		}
		return userdomain.User{}, handleCircuitBreakerError(err)
	}

	return user, nil
}

func (ra *RequestAuthenticator) fail(ctx context.Context, reason string, err error) error {
	incrementValidationFailed(reason)
	if ra.log.ShouldLog(logger.DEBUG) {
		ra.log.WithFields(ctx, logger.Fields{
			"action": "access_validation_failed",
			"reason": reason,
		}).Debug("access token rejected")
	}
	return err
}
