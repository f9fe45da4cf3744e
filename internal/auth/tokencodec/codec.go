// Package tokencodec signs and parses the access and refresh tokens.
//
// Both kinds are HS256 JWTs whose claim sets are fixed:
//
//	access:  {"user_id": int, "expire_at": int}      expire_at in Unix ms
//	refresh: {"user_id": int, "access_token": string}
//
// The codec checks signatures and claim shapes only. Whether an access token
// is expired is decided by the caller.
package tokencodec

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Yaroher2442/FORTIFIED/internal/common/constants"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWeakSecret   = fmt.Errorf("token secret must be at least %d bytes", constants.JWTSecretMinLength)
)

type AccessPayload struct {
	UserID    int64
	ExpiresAt int64
}

type RefreshPayload struct {
	UserID      int64
	AccessToken string
}

// noRegisteredClaims satisfies jwt.Claims without exposing exp/nbf/iat, so the
// parser never applies time-based validation of its own.
type noRegisteredClaims struct{}

func (noRegisteredClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (noRegisteredClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (noRegisteredClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (noRegisteredClaims) GetIssuer() (string, error)                   { return "", nil }
func (noRegisteredClaims) GetSubject() (string, error)                  { return "", nil }
func (noRegisteredClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

type accessClaims struct {
	noRegisteredClaims
	UserID   *int64 `json:"user_id"`
	ExpireAt *int64 `json:"expire_at"`
}

type refreshClaims struct {
	noRegisteredClaims
	UserID      *int64  `json:"user_id"`
	AccessToken *string `json:"access_token"`
}

type Codec struct {
	secret []byte
	parser *jwt.Parser
}

func New(secret string) (*Codec, error) {
	if len(secret) < constants.JWTSecretMinLength {
		return nil, ErrWeakSecret
	}
	return &Codec{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

func (c *Codec) EncodeAccess(p AccessPayload) (string, error) {
	userID, expireAt := p.UserID, p.ExpiresAt
	return c.sign(accessClaims{UserID: &userID, ExpireAt: &expireAt})
}

func (c *Codec) EncodeRefresh(p RefreshPayload) (string, error) {
	userID, accessToken := p.UserID, p.AccessToken
	return c.sign(refreshClaims{UserID: &userID, AccessToken: &accessToken})
}

func (c *Codec) DecodeAccess(token string) (AccessPayload, error) {
	var claims accessClaims
	if err := c.parse(token, &claims); err != nil {
		return AccessPayload{}, err
	}
	if claims.UserID == nil || *claims.UserID <= 0 || claims.ExpireAt == nil || *claims.ExpireAt <= 0 {
		return AccessPayload{}, ErrInvalidToken
	}
	return AccessPayload{UserID: *claims.UserID, ExpiresAt: *claims.ExpireAt}, nil
}

func (c *Codec) DecodeRefresh(token string) (RefreshPayload, error) {
	var claims refreshClaims
	if err := c.parse(token, &claims); err != nil {
		return RefreshPayload{}, err
	}
	if claims.UserID == nil || *claims.UserID <= 0 || claims.AccessToken == nil || *claims.AccessToken == "" {
		return RefreshPayload{}, ErrInvalidToken
	}
	return RefreshPayload{UserID: *claims.UserID, AccessToken: *claims.AccessToken}, nil
}

func (c *Codec) sign(claims jwt.Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (c *Codec) parse(token string, claims jwt.Claims) error {
	if token == "" {
		return ErrInvalidToken
	}

	parsed, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
