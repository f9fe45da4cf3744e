package service

import (
	"context"
	"errors"

	authrepo "github.com/Yaroher2442/FORTIFIED/internal/auth/repository"
	"github.com/Yaroher2442/FORTIFIED/internal/common/clock"
	commoncrypto "github.com/Yaroher2442/FORTIFIED/internal/common/crypto"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
	userrepo "github.com/Yaroher2442/FORTIFIED/internal/user/repository"
)

type Options struct {
	// AutoVerify marks new accounts verified at registration.
	AutoVerify bool
}

// AuthService is the entry point used by transports.
type AuthService struct {
	users         userrepo.Repository
	store         authrepo.SessionStore
	hasher        commoncrypto.PasswordHasher
	verifier      *CredentialVerifier
	issuer        *TokenIssuer
	refresher     *TokenRefresher
	authenticator *RequestAuthenticator
	clock         clock.Clock
	opts          Options
	log           *logger.Logger
}

func NewAuthService(
	users userrepo.Repository,
	store authrepo.SessionStore,
	hasher commoncrypto.PasswordHasher,
	issuer *TokenIssuer,
	refresher *TokenRefresher,
	authenticator *RequestAuthenticator,
	clock clock.Clock,
	opts Options,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		store:         store,
		hasher:        hasher,
		verifier:      NewCredentialVerifier(hasher),
		issuer:        issuer,
		refresher:     refresher,
		authenticator: authenticator,
		clock:         clock,
		opts:          opts,
		log:           log,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (userdomain.User, error) {
	s.log.WithFields(ctx, logger.Fields{
		"email":  email,
		"action": "register_attempt",
	}).Info("register attempt")

	if err := validateCredentials(email, password); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"email":  email,
			"action": "register_validation_failed",
		}).Warn("register validation failed")
		return userdomain.User{}, err
	}

	digest, salt, err := s.hasher.Hash(password)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return userdomain.User{}, err
	}

	user, err := s.users.Create(ctx, userdomain.User{
		Email:        email,
		PasswordHash: digest,
		Salt:         salt,
		Verified:     s.opts.AutoVerify,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			s.log.WithFields(ctx, logger.Fields{
				"email":  email,
				"action": "register_email_exists",
			}).Warn("register failed: email already exists")
			return userdomain.User{}, ErrEmailTaken
		}
		s.log.WithFields(ctx, logger.Fields{
			"email":  email,
			"action": "register_create_failed",
		}).Errorf("register failed: %v", err)
		return userdomain.User{}, err
	}

	incrementUsersRegistered()
	s.log.WithFields(ctx, logger.Fields{
		"user_id":  int64(user.ID),
		"verified": user.Verified,
		"action":   "register_success",
	}).Info("user registered")

	return user, nil
}

// Login checks the password and, in one unit of work, records the login and
// issues a new session.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.issuer.Authenticate(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			incrementLoginAttempt("unknown_email")
			s.log.WithFields(ctx, logger.Fields{
				"email":  email,
				"action": "login_user_not_found",
			}).Warn("login failed: user not found")
		}
		return AuthResult{}, err
	}

	if !s.verifier.Verify(user, password) {
		incrementLoginAttempt("bad_password")
		s.log.WithFields(ctx, logger.Fields{
			"user_id": int64(user.ID),
			"action":  "login_invalid_password",
		}).Warn("login failed: invalid password")
		return AuthResult{}, ErrInvalidCredentials
	}

	var result AuthResult
	err = s.store.WithTx(ctx, func(ctx context.Context, tx authrepo.SessionTx) error {
		if err := tx.TouchLastLogin(ctx, user.ID, s.clock.Now().UTC()); err != nil {
			return err
		}
		var err error
		result, err = s.issuer.IssueTx(ctx, tx, user)
		return err
	})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": int64(user.ID),
			"action":  "login_issue_failed",
		}).Errorf("login failed: %v", err)
		return AuthResult{}, handleCircuitBreakerError(err)
	}

	incrementLoginAttempt("success")
	s.log.WithFields(ctx, logger.Fields{
		"user_id": int64(user.ID),
		"action":  "login_success",
	}).Info("login successful")

	return result, nil
}

func (s *AuthService) Refresh(ctx context.Context, caller userdomain.User, refreshToken string) (AuthResult, error) {
	return s.refresher.Rotate(ctx, caller, refreshToken)
}

func (s *AuthService) Validate(ctx context.Context, token string, policy Policy) (userdomain.User, error) {
	return s.authenticator.Validate(ctx, token, policy)
}

// Logout ends the session that accessToken belongs to. The refresh token of
// that pair stops working with it.
func (s *AuthService) Logout(ctx context.Context, caller userdomain.User, accessToken string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx authrepo.SessionTx) error {
		pair, _, err := tx.FindTokenPairWithUser(ctx, accessToken, caller.ID)
		if errors.Is(err, authrepo.ErrTokenPairNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if err := tx.DeleteTokenPair(ctx, pair.ID); err != nil {
			if errors.Is(err, authrepo.ErrTokenPairNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return handleCircuitBreakerError(err)
	}

	incrementTokenPairsRevoked()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": int64(caller.ID),
		"action":  "logout_success",
	}).Info("session revoked")
	return nil
}

// VerifyUser marks the account for email as verified.
func (s *AuthService) VerifyUser(ctx context.Context, email string) (userdomain.User, error) {
	user, err := s.users.SetVerified(ctx, email, true)
	if errors.Is(err, userrepo.ErrUserNotFound) {
		return userdomain.User{}, ErrUserNotFound
	}
	if err != nil {
		return userdomain.User{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": int64(user.ID),
		"action":  "user_verified",
	}).Info("user verified")
	return user, nil
}
