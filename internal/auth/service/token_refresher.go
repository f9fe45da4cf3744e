package service

import (
	"context"
	"errors"

	authrepo "github.com/Yaroher2442/FORTIFIED/internal/auth/repository"
	"github.com/Yaroher2442/FORTIFIED/internal/auth/tokencodec"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

// TokenRefresher exchanges a refresh token for a new pair. A refresh token is
// single use: its pair is deleted in the same unit of work that issues the
// replacement, and the row lock taken by FindTokenPair makes concurrent
// attempts on the same token see it gone.
type TokenRefresher struct {
	store  authrepo.SessionStore
	codec  *tokencodec.Codec
	issuer *TokenIssuer
	log    *logger.Logger
}

func NewTokenRefresher(store authrepo.SessionStore, codec *tokencodec.Codec, issuer *TokenIssuer, log *logger.Logger) *TokenRefresher {
	return &TokenRefresher{
		store:  store,
		codec:  codec,
		issuer: issuer,
		log:    log,
	}
}

func (tr *TokenRefresher) Rotate(ctx context.Context, caller userdomain.User, refreshToken string) (AuthResult, error) {
	payload, err := tr.codec.DecodeRefresh(refreshToken)
	if err != nil {
		tr.reject(ctx, caller, "malformed")
		return AuthResult{}, ErrIncorrectToken
	}

	if payload.UserID != int64(caller.ID) {
		tr.reject(ctx, caller, "user_mismatch")
		return AuthResult{}, ErrIncorrectToken
	}

	var result AuthResult
	err = tr.store.WithTx(ctx, func(ctx context.Context, tx authrepo.SessionTx) error {
		pair, err := tx.FindTokenPair(ctx, payload.AccessToken, refreshToken)
		if errors.Is(err, authrepo.ErrTokenPairNotFound) {
			return ErrIncorrectToken
		}
		if err != nil {
			return err
		}

		if err := tx.DeleteTokenPair(ctx, pair.ID); err != nil {
			if errors.Is(err, authrepo.ErrTokenPairNotFound) {
				return ErrIncorrectToken
			}
			return err
		}

		result, err = tr.issuer.IssueTx(ctx, tx, caller)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrIncorrectToken) {
			tr.reject(ctx, caller, "not_found")
			return AuthResult{}, ErrIncorrectToken
		}
		tr.log.WithFields(ctx, logger.Fields{
			"action":  "token_rotation_failed",
			"user_id": int64(caller.ID),
		}).Errorf("token rotation failed: %v", err)
		return AuthResult{}, handleCircuitBreakerError(err)
	}

	incrementTokenPairsRotated()
	tr.log.WithFields(ctx, logger.Fields{
		"action":  "token_rotated",
		"user_id": int64(caller.ID),
	}).Info("refresh token rotated")

	return result, nil
}

func (tr *TokenRefresher) reject(ctx context.Context, caller userdomain.User, reason string) {
	incrementRotationRejected(reason)
	tr.log.WithFields(ctx, logger.Fields{
		"action":  "token_rotation_rejected",
		"user_id": int64(caller.ID),
		"reason":  reason,
	}).Warn("refresh token rejected")
}
