package tokencodec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New(testSecret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func signMap(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestNew_RejectsShortSecret(t *testing.T) {
	if _, err := New("short"); !errors.Is(err, ErrWeakSecret) {
		t.Fatalf("expected ErrWeakSecret, got %v", err)
	}
}

func TestAccessRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.EncodeAccess(AccessPayload{UserID: 7, ExpiresAt: 1700000000123})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := c.DecodeAccess(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != 7 || got.ExpiresAt != 1700000000123 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestAccessClaimsAreExact(t *testing.T) {
	c := newTestCodec(t)
	token, _ := c.EncodeAccess(AccessPayload{UserID: 7, ExpiresAt: 42})

	parts := strings.Split(token, ".")
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(claims) != 2 || claims["user_id"] != float64(7) || claims["expire_at"] != float64(42) {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	token, err := c.EncodeRefresh(RefreshPayload{UserID: 3, AccessToken: "a.b.c"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := c.DecodeRefresh(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UserID != 3 || got.AccessToken != "a.b.c" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	c := newTestCodec(t)
	other, err := New("fedcba9876543210fedcba9876543210")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, _ := other.EncodeAccess(AccessPayload{UserID: 1, ExpiresAt: 1})
	if _, err := c.DecodeAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecode_RejectsOtherAlgorithms(t *testing.T) {
	c := newTestCodec(t)
	claims := jwt.MapClaims{"user_id": 1, "expire_at": 1}

	hs512 := signMap(t, jwt.SigningMethodHS512, []byte(testSecret), claims)
	none := signMap(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claims)

	for name, token := range map[string]string{"HS512": hs512, "none": none} {
		if _, err := c.DecodeAccess(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestDecodeAccess_RejectsBadClaims(t *testing.T) {
	c := newTestCodec(t)

	cases := map[string]jwt.MapClaims{
		"missing user":    {"expire_at": 10},
		"missing expiry":  {"user_id": 1},
		"string user":     {"user_id": "1", "expire_at": 10},
		"fractional user": {"user_id": 1.5, "expire_at": 10},
		"zero user":       {"user_id": 0, "expire_at": 10},
		"negative expiry": {"user_id": 1, "expire_at": -5},
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			token := signMap(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
			if _, err := c.DecodeAccess(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestDecodeRefresh_RejectsBadClaims(t *testing.T) {
	c := newTestCodec(t)

	cases := map[string]jwt.MapClaims{
		"missing access": {"user_id": 1},
		"empty access":   {"user_id": 1, "access_token": ""},
		"missing user":   {"access_token": "a.b.c"},
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			token := signMap(t, jwt.SigningMethodHS256, []byte(testSecret), claims)
			if _, err := c.DecodeRefresh(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	c := newTestCodec(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := c.DecodeAccess(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%q: expected ErrInvalidToken, got %v", token, err)
		}
	}

	victim, _ := c.EncodeAccess(AccessPayload{UserID: 1, ExpiresAt: 1})
	forged, _ := c.EncodeAccess(AccessPayload{UserID: 2, ExpiresAt: 1})
	v, f := strings.Split(victim, "."), strings.Split(forged, ".")
	tampered := strings.Join([]string{v[0], f[1], v[2]}, ".")
	if _, err := c.DecodeAccess(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered: expected ErrInvalidToken, got %v", err)
	}
}

func TestAccessTokenIsNotARefreshToken(t *testing.T) {
	c := newTestCodec(t)
	access, _ := c.EncodeAccess(AccessPayload{UserID: 1, ExpiresAt: 1})

	if _, err := c.DecodeRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
