package http

import (
	"time"

	"github.com/Yaroher2442/FORTIFIED/internal/auth/service"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// userResponse is the public view of a user; the digest and salt are never
// serialized.
type userResponse struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Verified     bool       `json:"verified"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

func toUserResponse(u userdomain.User) userResponse {
	return userResponse{
		ID:           int64(u.ID),
		Email:        u.Email,
		Verified:     u.Verified,
		CreatedAt:    u.CreatedAt,
		LastLoginAt:  u.LastLoginAt,
		LastActiveAt: u.LastActiveAt,
	}
}

// toTokenResponse reports the expiry in Unix milliseconds, the same unit the
// access token carries.
func toTokenResponse(r service.AuthResult) tokenResponse {
	return tokenResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt.UnixMilli(),
	}
}
