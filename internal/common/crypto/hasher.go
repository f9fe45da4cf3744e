package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/Yaroher2442/FORTIFIED/internal/common/constants"
)

type PasswordHasher interface {
	Hash(password string) (digest, salt string, err error)
	Verify(password, digest, salt string) bool
}

type Argon2idParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLength uint32
	SaltSize  int
}

func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:      constants.PasswordArgonTime,
		MemoryKiB: constants.PasswordArgonMemoryKiB,
		Threads:   constants.PasswordArgonThreads,
		KeyLength: constants.PasswordKeyLength,
		SaltSize:  constants.PasswordSaltSize,
	}
}

// Argon2idHasher stores digest and salt as separate raw base64 strings.
type Argon2idHasher struct {
	params Argon2idParams
}

func NewArgon2idHasher(params Argon2idParams) *Argon2idHasher {
	return &Argon2idHasher{params: params}
}

func (h *Argon2idHasher) Hash(password string) (string, string, error) {
	salt := make([]byte, h.params.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := h.derive(password, salt)
	return base64.RawStdEncoding.EncodeToString(key), base64.RawStdEncoding.EncodeToString(salt), nil
}

func (h *Argon2idHasher) Verify(password, digest, salt string) bool {
	want, err := base64.RawStdEncoding.DecodeString(digest)
	if err != nil || len(want) == 0 {
		return false
	}
	saltBytes, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil || len(saltBytes) == 0 {
		return false
	}

	got := h.derive(password, saltBytes)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func (h *Argon2idHasher) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLength)
}
