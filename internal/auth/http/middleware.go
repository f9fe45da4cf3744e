package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/Yaroher2442/FORTIFIED/internal/auth/service"
	commonhttp "github.com/Yaroher2442/FORTIFIED/internal/common/http"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

type contextKey string

const (
	userKey        contextKey = "auth_user"
	accessTokenKey contextKey = "auth_access_token"
)

// Validator is the part of the auth service the guard needs.
type Validator interface {
	Validate(ctx context.Context, token string, policy service.Policy) (userdomain.User, error)
}

// Protect admits the request only when its access token passes Validate
// under policy; the resolved user is available via UserFromContext.
func Protect(auth Validator, errs *commonhttp.ErrorHandler, policy service.Policy, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)

		user, err := auth.Validate(r.Context(), token, policy)
		if err != nil {
			errs.HandleError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, accessTokenKey, token)
		next(w, r.WithContext(ctx))
	}
}

func UserFromContext(ctx context.Context) (userdomain.User, bool) {
	user, ok := ctx.Value(userKey).(userdomain.User)
	return user, ok
}

func accessTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey).(string)
	return token
}

// tokenFromRequest accepts "Bearer <t>" and "Token <t>" schemes.
func tokenFromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(raw, " ")
	if !ok {
		return ""
	}
	if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
		return ""
	}
	return strings.TrimSpace(token)
}
