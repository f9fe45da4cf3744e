package repository

import (
	"context"
	"sync"
	"time"

	authdomain "github.com/Yaroher2442/FORTIFIED/internal/auth/domain"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
	userrepo "github.com/Yaroher2442/FORTIFIED/internal/user/repository"
)

type memoryData struct {
	users      map[userdomain.ID]userdomain.User
	emails     map[string]userdomain.ID
	pairs      map[authdomain.TokenPairID]authdomain.TokenPair
	nextUserID int64
	nextPairID int64
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		users:      make(map[userdomain.ID]userdomain.User, len(d.users)),
		emails:     make(map[string]userdomain.ID, len(d.emails)),
		pairs:      make(map[authdomain.TokenPairID]authdomain.TokenPair, len(d.pairs)),
		nextUserID: d.nextUserID,
		nextPairID: d.nextPairID,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.emails {
		c.emails[k] = v
	}
	for k, v := range d.pairs {
		c.pairs[k] = v
	}
	return c
}

// MemoryStore keeps users and token pairs in process memory. Units of work
// are serialized and run against a private copy that replaces the live data
// only when they succeed. It implements both SessionStore and the user
// repository so a single instance backs the whole service.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			users:  make(map[userdomain.ID]userdomain.User),
			emails: make(map[string]userdomain.ID),
			pairs:  make(map[authdomain.TokenPairID]authdomain.TokenPair),
		},
		now: time.Now,
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(context.Context, SessionTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.data.clone()
	if err := fn(ctx, &memorySessionTx{data: working, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.data = working
	return nil
}

func (s *MemoryStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, pair := range s.data.pairs {
		if pair.ExpiresAt.Before(cutoff) {
			delete(s.data.pairs, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) Create(ctx context.Context, user userdomain.User) (userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := userrepo.NormalizeEmail(user.Email)
	if _, exists := s.data.emails[email]; exists {
		return userdomain.User{}, userrepo.ErrEmailAlreadyExists
	}

	s.data.nextUserID++
	user.ID = userdomain.ID(s.data.nextUserID)
	user.Email = email
	user.CreatedAt = s.now()
	user.LastLoginAt = nil
	user.LastActiveAt = nil

	s.data.users[user.ID] = user
	s.data.emails[email] = user.ID
	return user, nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.userByEmail(email)
}

func (s *MemoryStore) FindByID(ctx context.Context, id userdomain.ID) (userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.data.users[id]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return user, nil
}

func (s *MemoryStore) SetVerified(ctx context.Context, email string, verified bool) (userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.data.userByEmail(email)
	if err != nil {
		return userdomain.User{}, err
	}
	user.Verified = verified
	s.data.users[user.ID] = user
	return user, nil
}

// TokenPairCount reports the number of live token pairs.
func (s *MemoryStore) TokenPairCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.pairs)
}

func (d *memoryData) userByEmail(email string) (userdomain.User, error) {
	id, ok := d.emails[userrepo.NormalizeEmail(email)]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return d.users[id], nil
}

type memorySessionTx struct {
	data *memoryData
	now  func() time.Time
}

func (t *memorySessionTx) CreateTokenPair(ctx context.Context, pair authdomain.TokenPair) (authdomain.TokenPairID, error) {
	if _, ok := t.data.users[pair.UserID]; !ok {
		return 0, userrepo.ErrUserNotFound
	}
	for _, existing := range t.data.pairs {
		if existing.AccessToken == pair.AccessToken || existing.RefreshToken == pair.RefreshToken {
			return 0, ErrTokenPairConflict
		}
	}

	t.data.nextPairID++
	pair.ID = authdomain.TokenPairID(t.data.nextPairID)
	pair.CreatedAt = t.now()
	t.data.pairs[pair.ID] = pair
	return pair.ID, nil
}

func (t *memorySessionTx) FindTokenPair(ctx context.Context, accessToken, refreshToken string) (authdomain.TokenPair, error) {
	for _, pair := range t.data.pairs {
		if pair.AccessToken == accessToken && pair.RefreshToken == refreshToken {
			return pair, nil
		}
	}
	return authdomain.TokenPair{}, ErrTokenPairNotFound
}

func (t *memorySessionTx) FindTokenPairWithUser(ctx context.Context, accessToken string, userID userdomain.ID) (authdomain.TokenPair, userdomain.User, error) {
	for _, pair := range t.data.pairs {
		if pair.AccessToken != accessToken || pair.UserID != userID {
			continue
		}
		user, ok := t.data.users[pair.UserID]
		if !ok {
			break
		}
		return pair, user, nil
	}
	return authdomain.TokenPair{}, userdomain.User{}, ErrTokenPairNotFound
}

func (t *memorySessionTx) DeleteTokenPair(ctx context.Context, id authdomain.TokenPairID) error {
	if _, ok := t.data.pairs[id]; !ok {
		return ErrTokenPairNotFound
	}
	delete(t.data.pairs, id)
	return nil
}

func (t *memorySessionTx) FindUserByEmail(ctx context.Context, email string) (userdomain.User, error) {
	return t.data.userByEmail(email)
}

func (t *memorySessionTx) TouchLastActive(ctx context.Context, userID userdomain.ID, at time.Time) error {
	user, ok := t.data.users[userID]
	if !ok {
		return userrepo.ErrUserNotFound
	}
	user.LastActiveAt = &at
	t.data.users[userID] = user
	return nil
}

func (t *memorySessionTx) TouchLastLogin(ctx context.Context, userID userdomain.ID, at time.Time) error {
	user, ok := t.data.users[userID]
	if !ok {
		return userrepo.ErrUserNotFound
	}
	user.LastLoginAt = &at
	t.data.users[userID] = user
	return nil
}
