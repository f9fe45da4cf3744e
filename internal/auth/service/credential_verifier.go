package service

import (
	commoncrypto "github.com/Yaroher2442/FORTIFIED/internal/common/crypto"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

// CredentialVerifier checks a plaintext password against a stored user.
type CredentialVerifier struct {
	hasher commoncrypto.PasswordHasher
}

func NewCredentialVerifier(hasher commoncrypto.PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{hasher: hasher}
}

func (v *CredentialVerifier) Verify(user userdomain.User, password string) bool {
	if user.PasswordHash == "" || user.Salt == "" {
		return false
	}
	return v.hasher.Verify(password, user.PasswordHash, user.Salt)
}
