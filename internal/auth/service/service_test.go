package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	authrepo "github.com/Yaroher2442/FORTIFIED/internal/auth/repository"
	"github.com/Yaroher2442/FORTIFIED/internal/auth/tokencodec"
	"github.com/Yaroher2442/FORTIFIED/internal/common/clock"
	commonerrors "github.com/Yaroher2442/FORTIFIED/internal/common/errors"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, string, error) {
	return "digest:" + password, "salt", nil
}

func (fakeHasher) Verify(password, digest, salt string) bool {
	return salt == "salt" && digest == "digest:"+password
}

type testEnv struct {
	svc   *AuthService
	store *authrepo.MemoryStore
	clock *clock.MockClock
	codec *tokencodec.Codec
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	log := logger.NewWithWriter(io.Discard, "test", "error")
	clk := clock.NewMockClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	store := authrepo.NewMemoryStore()
	codec, err := tokencodec.New(testSecret)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	issuer := NewTokenIssuer(store, codec, 30*time.Minute, clk, log)
	refresher := NewTokenRefresher(store, codec, issuer, log)
	authenticator := NewRequestAuthenticator(store, codec, clk, log)
	svc := NewAuthService(store, store, fakeHasher{}, issuer, refresher, authenticator, clk, opts, log)

	return &testEnv{svc: svc, store: store, clock: clk, codec: codec}
}

func (e *testEnv) verifiedUser(t *testing.T, email, password string) userdomain.User {
	t.Helper()
	ctx := context.Background()
	if _, err := e.svc.Register(ctx, email, password); err != nil {
		t.Fatalf("register: %v", err)
	}
	user, err := e.svc.VerifyUser(ctx, email)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	return user
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID == 0 || user.Verified {
		t.Fatalf("expected new unverified user, got %+v", user)
	}
	if user.PasswordHash == "secret" || user.Salt == "" {
		t.Fatal("password must be stored hashed with a salt")
	}

	if _, err := env.svc.Register(ctx, "alice@example.com", "other"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := env.svc.Register(ctx, "not-an-email", "secret"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegister_AutoVerify(t *testing.T) {
	env := newTestEnv(t, Options{AutoVerify: true})

	user, err := env.svc.Register(context.Background(), "bob@example.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !user.Verified {
		t.Fatal("expected auto-verified user")
	}
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.verifiedUser(t, "alice@example.com", "secret")
	ctx := context.Background()

	if _, err := env.svc.Login(ctx, "nobody@example.com", "secret"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := env.svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if env.store.TokenPairCount() != 0 {
		t.Fatal("failed logins must not create sessions")
	}
}

func TestLoginThenValidate(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.verifiedUser(t, "alice@example.com", "secret")
	ctx := context.Background()

	res, err := env.svc.Login(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if want := env.clock.Now().Add(30 * time.Minute); !res.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, res.ExpiresAt)
	}

	user, err := env.svc.Validate(ctx, res.AccessToken, Policy{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user.ID != alice.ID {
		t.Fatalf("expected user %d, got %d", alice.ID, user.ID)
	}
	if user.LastActiveAt == nil || !user.LastActiveAt.Equal(env.clock.Now()) {
		t.Fatalf("expected last active to be touched, got %v", user.LastActiveAt)
	}

	stored, _ := env.store.FindByID(ctx, alice.ID)
	if stored.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestAliceScenario(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.verifiedUser(t, "alice@example.com", "secret")
	ctx := context.Background()

	first, err := env.svc.Login(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := env.svc.Validate(ctx, first.AccessToken, Policy{}); err != nil {
		t.Fatalf("validate fresh token: %v", err)
	}

	env.clock.Advance(31 * time.Minute)

	if _, err := env.svc.Validate(ctx, first.AccessToken, Policy{}); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	caller, err := env.svc.Validate(ctx, first.AccessToken, Policy{PassExpired: true})
	if err != nil {
		t.Fatalf("validate expired with PassExpired: %v", err)
	}

	second, err := env.svc.Refresh(ctx, caller, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.AccessToken == first.AccessToken || second.RefreshToken == first.RefreshToken {
		t.Fatal("rotation must produce a new pair")
	}

	if _, err := env.svc.Refresh(ctx, caller, first.RefreshToken); !errors.Is(err, ErrIncorrectToken) {
		t.Fatalf("expected reused refresh token to fail, got %v", err)
	}

	user, err := env.svc.Validate(ctx, second.AccessToken, Policy{})
	if err != nil {
		t.Fatalf("validate rotated token: %v", err)
	}
	if user.ID != alice.ID {
		t.Fatalf("expected alice, got %d", user.ID)
	}

	if _, err := env.svc.Validate(ctx, first.AccessToken, Policy{PassExpired: true}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected consumed access token to be invalid, got %v", err)
	}
	if env.store.TokenPairCount() != 1 {
		t.Fatalf("expected exactly one live pair, got %d", env.store.TokenPairCount())
	}
}

func TestRefresh_ConcurrentRotationSucceedsOnce(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.verifiedUser(t, "alice@example.com", "secret")
	ctx := context.Background()

	res, err := env.svc.Login(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		forbidden int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Refresh(ctx, alice, res.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case IsForbidden(err):
				forbidden++
			}
		}()
	}
	wg.Wait()

	if successes != 1 || forbidden != attempts-1 {
		t.Fatalf("expected 1 success and %d forbidden, got %d and %d", attempts-1, successes, forbidden)
	}
}

func TestRefresh_CrossUserRejected(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.verifiedUser(t, "alice@example.com", "secret")
	bob := env.verifiedUser(t, "bob@example.com", "secret")
	ctx := context.Background()

	aliceTokens, err := env.svc.Login(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = env.svc.Refresh(ctx, bob, aliceTokens.RefreshToken)
	if !errors.Is(err, ErrIncorrectToken) || !IsForbidden(err) {
		t.Fatalf("expected forbidden ErrIncorrectToken, got %v", err)
	}

	if env.store.TokenPairCount() != 1 {
		t.Fatal("rejected refresh must not consume alice's pair")
	}
}

func TestRefresh_MalformedToken(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.verifiedUser(t, "alice@example.com", "secret")

	if _, err := env.svc.Refresh(context.Background(), alice, "garbage"); !errors.Is(err, ErrIncorrectToken) {
		t.Fatalf("expected ErrIncorrectToken, got %v", err)
	}
}

func TestValidate_VerificationGate(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, "carol@example.com", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := env.svc.Login(ctx, "carol@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := env.svc.Validate(ctx, res.AccessToken, Policy{}); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}
	if _, err := env.svc.Validate(ctx, res.AccessToken, Policy{PassNotVerified: true}); err != nil {
		t.Fatalf("expected PassNotVerified to admit user, got %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.verifiedUser(t, "alice@example.com", "secret")
	ctx := context.Background()

	res, err := env.svc.Login(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	payload, _ := env.codec.DecodeAccess(res.AccessToken)

	unknown, _ := env.codec.EncodeAccess(tokencodec.AccessPayload{UserID: int64(alice.ID), ExpiresAt: payload.ExpiresAt + 5})
	otherSecret, _ := tokencodec.New("fedcba9876543210fedcba9876543210")
	forged, _ := otherSecret.EncodeAccess(payload)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrInvalidHeader},
		{"garbage", "garbage", ErrInvalidToken},
		{"wrong secret", forged, ErrInvalidToken},
		{"no session", unknown, ErrInvalidToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.svc.Validate(ctx, tc.token, Policy{}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestIssue_DistinctTokensWithinOneMillisecond(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.verifiedUser(t, "alice@example.com", "secret")
	ctx := context.Background()

	first, err := env.svc.issuer.Issue(ctx, alice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := env.svc.issuer.Issue(ctx, alice)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if first.AccessToken == second.AccessToken {
		t.Fatal("expected distinct access tokens for a frozen clock")
	}
	if !second.ExpiresAt.After(first.ExpiresAt) {
		t.Fatal("expected strictly increasing expiry")
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, Options{})
	alice := env.verifiedUser(t, "alice@example.com", "secret")
	ctx := context.Background()

	res, err := env.svc.Login(ctx, "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := env.svc.Logout(ctx, alice, res.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := env.svc.Validate(ctx, res.AccessToken, Policy{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
	if _, err := env.svc.Refresh(ctx, alice, res.RefreshToken); !errors.Is(err, ErrIncorrectToken) {
		t.Fatalf("expected refresh after logout to fail, got %v", err)
	}
	if err := env.svc.Logout(ctx, alice, res.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected second logout to fail, got %v", err)
	}
}

func TestVerifyUser_Unknown(t *testing.T) {
	env := newTestEnv(t, Options{})

	if _, err := env.svc.VerifyUser(context.Background(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

type failingStore struct {
	err error
}

func (s failingStore) WithTx(ctx context.Context, fn func(context.Context, authrepo.SessionTx) error) error {
	return s.err
}

func (s failingStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, s.err
}

func TestStoreFaultsPropagate(t *testing.T) {
	log := logger.NewWithWriter(io.Discard, "test", "error")
	clk := clock.NewMockClock(time.Now())
	codec, _ := tokencodec.New(testSecret)
	token, _ := codec.EncodeAccess(tokencodec.AccessPayload{UserID: 1, ExpiresAt: clk.Now().Add(time.Hour).UnixMilli()})

	storeDown := errors.New("connection refused")
	ra := NewRequestAuthenticator(failingStore{err: storeDown}, codec, clk, log)
	_, err := ra.Validate(context.Background(), token, Policy{})
	if !errors.Is(err, storeDown) || commonerrors.IsDomainError(err) {
		t.Fatalf("expected raw store fault, got %v", err)
	}

	ra = NewRequestAuthenticator(failingStore{err: commonerrors.ErrCircuitOpen}, codec, clk, log)
	_, err = ra.Validate(context.Background(), token, Policy{})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}
