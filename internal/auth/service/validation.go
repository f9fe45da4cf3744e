package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Yaroher2442/FORTIFIED/internal/common/constants"
)

// validateCredentials is the last line of input checking; transports are
// expected to have validated already, so failures here are plain InvalidInput.
func validateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > constants.EmailMaxLength {
		return ErrInvalidInput
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return ErrInvalidInput
	}

	if utf8.RuneCountInString(password) < constants.PasswordMinLength || len(password) > constants.PasswordMaxLength {
		return ErrInvalidInput
	}
	return nil
}
