package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Yaroher2442/FORTIFIED/internal/auth/service"
	commonhttp "github.com/Yaroher2442/FORTIFIED/internal/common/http"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

// AuthService is what the handlers call into.
type AuthService interface {
	Validator
	Register(ctx context.Context, email, password string) (userdomain.User, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Refresh(ctx context.Context, caller userdomain.User, refreshToken string) (service.AuthResult, error)
	Logout(ctx context.Context, caller userdomain.User, accessToken string) error
}

type Config struct {
	RequestTimeout time.Duration
	HealthChecks   map[string]commonhttp.HealthCheck
	RateLimiter    *commonhttp.StrictRateLimiter
}

type Handler struct {
	auth AuthService
	errs *commonhttp.ErrorHandler
	log  *logger.Logger
}

func NewHandler(auth AuthService, cfg Config, log *logger.Logger) http.Handler {
	h := &Handler{
		auth: auth,
		errs: commonhttp.NewErrorHandler(log),
		log:  log,
	}

	post := commonhttp.RequireMethod(http.MethodPost)
	get := commonhttp.RequireMethod(http.MethodGet)
	timeout := withTimeout(cfg.RequestTimeout)

	route := func(path string, handler http.HandlerFunc) (string, http.Handler) {
		var wrapped http.Handler = timeout(handler)
		if cfg.RateLimiter != nil {
			wrapped = cfg.RateLimiter.MiddlewareForPath(path)(wrapped)
		}
		return path, wrapped
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log, cfg.HealthChecks))
	mux.Handle(route("/user/auth/reg", post(h.register)))
	mux.Handle(route("/user/auth", post(h.login)))
	mux.Handle(route("/user/auth/refresh", post(
		Protect(auth, h.errs, service.Policy{PassExpired: true}, h.refresh),
	)))
	mux.Handle(route("/user/auth/logout", post(
		Protect(auth, h.errs, service.Policy{PassExpired: true, PassNotVerified: true}, h.logout),
	)))
	mux.Handle(route("/user/me", get(
		Protect(auth, h.errs, service.Policy{}, h.me),
	)))
	return mux
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toTokenResponse(result))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	caller, _ := UserFromContext(r.Context())
	result, err := h.auth.Refresh(r.Context(), caller, req.RefreshToken)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toTokenResponse(result))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())
	if err := h.auth.Logout(r.Context(), caller, accessTokenFromContext(r.Context())); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	commonhttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// decode reads a JSON body into dst and validates it. On failure it writes
// the InvalidInput response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := commonhttp.DecodeJSON(r, dst); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "decode_body_failed",
			"path":   r.URL.Path,
		}).Warnf("invalid json body: %v", err)
		h.errs.HandleError(w, r, service.ErrInvalidInput)
		return false
	}

	details, err := commonhttp.ValidateStruct(dst)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return false
	}
	if details != nil {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, service.ErrInvalidInput.Code(), service.ErrInvalidInput.Message(), details, commonhttp.TraceIDFromContext(r.Context()))
		return false
	}
	return true
}

func withTimeout(timeout time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next(w, r.WithContext(ctx))
		}
	}
}
