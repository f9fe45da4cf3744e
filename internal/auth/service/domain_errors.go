package service

import (
	"net/http"

	commonerrors "github.com/Yaroher2442/FORTIFIED/internal/common/errors"
)

var (
	ErrInvalidInput = commonerrors.NewDomainError(
		"INVALID_INPUT",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"passed body not correct",
	)

	ErrUserNotFound = commonerrors.NewDomainError(
		"USER_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"user with this email not found",
	)

	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid email or password",
	)

	ErrInvalidHeader = commonerrors.NewDomainError(
		"INVALID_HEADER",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"token not found",
	)

	ErrEmailTaken = commonerrors.NewDomainError(
		"EMAIL_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"email already registered",
	)

	ErrIncorrectToken = commonerrors.NewDomainError(
		"INCORRECT_TOKEN",
		commonerrors.CategoryForbidden,
		http.StatusForbidden,
		"incorrect token",
	)

	ErrInvalidToken = commonerrors.NewDomainError(
		"INVALID_TOKEN",
		commonerrors.CategoryForbidden,
		http.StatusForbidden,
		"invalid token",
	)

	ErrTokenExpired = commonerrors.NewDomainError(
		"TOKEN_EXPIRED",
		commonerrors.CategoryForbidden,
		http.StatusForbidden,
		"token expired",
	)

	ErrNotVerified = commonerrors.NewDomainError(
		"NOT_VERIFIED",
		commonerrors.CategoryForbidden,
		http.StatusForbidden,
		"not verified user",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"service temporarily unavailable",
	)
)
