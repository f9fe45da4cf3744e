package service

import (
	"errors"

	commonerrors "github.com/Yaroher2442/FORTIFIED/internal/common/errors"
)

// IsForbidden reports whether err belongs to the forbidden family: bad,
// expired, mismatched or consumed tokens and unverified accounts.
func IsForbidden(err error) bool {
	return commonerrors.HasCategory(err, commonerrors.CategoryForbidden)
}

func handleCircuitBreakerError(err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	return err
}
