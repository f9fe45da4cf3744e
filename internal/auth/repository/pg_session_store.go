package repository

import (
	"context"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	authdomain "github.com/Yaroher2442/FORTIFIED/internal/auth/domain"
	"github.com/Yaroher2442/FORTIFIED/internal/common/db"
	"github.com/Yaroher2442/FORTIFIED/internal/common/resilience"
	userdomain "github.com/Yaroher2442/FORTIFIED/internal/user/domain"
	userrepo "github.com/Yaroher2442/FORTIFIED/internal/user/repository"
)

const tokenPairColumns = `tp.id, tp.user_id, tp.access_token, tp.refresh_token, tp.expires_at, tp.created_at`

type PgSessionStore struct {
	pool    *pgxpool.Pool
	breaker *resilience.CircuitBreaker
}

// NewPgSessionStore returns a postgres-backed store. breaker may be nil.
func NewPgSessionStore(pool *pgxpool.Pool, breaker *resilience.CircuitBreaker) *PgSessionStore {
	return &PgSessionStore{pool: pool, breaker: breaker}
}

func (s *PgSessionStore) WithTx(ctx context.Context, fn func(context.Context, SessionTx) error) error {
	run := func(ctx context.Context) error {
		return db.RunInTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
			return fn(ctx, &pgSessionTx{tx: tx})
		})
	}

	if s.breaker == nil {
		return run(ctx)
	}
	return s.breaker.Call(ctx, run)
}

func (s *PgSessionStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()
	tag, err := s.pool.Exec(ctx, `DELETE FROM token_pairs WHERE expires_at < $1`, cutoff)
	if err := db.HandleExecError(err, "delete expired token pairs", start); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type pgSessionTx struct {
	tx pgx.Tx
}

func (t *pgSessionTx) CreateTokenPair(ctx context.Context, pair authdomain.TokenPair) (authdomain.TokenPairID, error) {
	start := time.Now()
	var id int64
	err := t.tx.QueryRow(
		ctx,
		`INSERT INTO token_pairs (user_id, access_token, refresh_token, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		int64(pair.UserID),
		pair.AccessToken,
		pair.RefreshToken,
		pair.ExpiresAt,
	).Scan(&id)
	if err != nil && db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("create token pair", start)
		return 0, ErrTokenPairConflict
	}
	if err := db.HandleExecError(err, "create token pair", start); err != nil {
		return 0, err
	}
	return authdomain.TokenPairID(id), nil
}

func (t *pgSessionTx) FindTokenPair(ctx context.Context, accessToken, refreshToken string) (authdomain.TokenPair, error) {
	start := time.Now()
	row := t.tx.QueryRow(
		ctx,
		`SELECT `+tokenPairColumns+`
		 FROM token_pairs tp
		 WHERE tp.access_token = $1 AND tp.refresh_token = $2
		 FOR UPDATE`,
		accessToken,
		refreshToken,
	)

	pair, err := scanTokenPair(row)
	if err := db.HandleQueryError(err, ErrTokenPairNotFound, "find token pair", start); err != nil {
		return authdomain.TokenPair{}, err
	}
	return pair, nil
}

func (t *pgSessionTx) FindTokenPairWithUser(ctx context.Context, accessToken string, userID userdomain.ID) (authdomain.TokenPair, userdomain.User, error) {
	start := time.Now()
	row := t.tx.QueryRow(
		ctx,
		`SELECT `+tokenPairColumns+`,
		        u.id, u.email, u.password_hash, u.salt, u.verified, u.last_login_at, u.last_active_at, u.created_at
		 FROM token_pairs tp
		 JOIN users u ON u.id = tp.user_id
		 WHERE tp.access_token = $1 AND tp.user_id = $2
		 FOR SHARE OF tp`,
		accessToken,
		int64(userID),
	)

	var (
		pair       authdomain.TokenPair
		pairID     int64
		pairUserID int64
	)
	user, err := userrepo.ScanUser(prefixedScanner{row: row, prefix: []interface{}{
		&pairID, &pairUserID, &pair.AccessToken, &pair.RefreshToken, &pair.ExpiresAt, &pair.CreatedAt,
	}})
	if err := db.HandleQueryError(err, ErrTokenPairNotFound, "find token pair with user", start); err != nil {
		return authdomain.TokenPair{}, userdomain.User{}, err
	}

	pair.ID = authdomain.TokenPairID(pairID)
	pair.UserID = userdomain.ID(pairUserID)
	return pair, user, nil
}

func (t *pgSessionTx) DeleteTokenPair(ctx context.Context, id authdomain.TokenPairID) error {
	start := time.Now()
	tag, err := t.tx.Exec(ctx, `DELETE FROM token_pairs WHERE id = $1`, int64(id))
	if err := db.HandleExecError(err, "delete token pair", start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenPairNotFound
	}
	return nil
}

func (t *pgSessionTx) FindUserByEmail(ctx context.Context, email string) (userdomain.User, error) {
	return userrepo.FindUserByEmail(ctx, t.tx, email, "")
}

func (t *pgSessionTx) TouchLastActive(ctx context.Context, userID userdomain.ID, at time.Time) error {
	return t.touch(ctx, `UPDATE users SET last_active_at = $2 WHERE id = $1`, "touch user last active", userID, at)
}

func (t *pgSessionTx) TouchLastLogin(ctx context.Context, userID userdomain.ID, at time.Time) error {
	return t.touch(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, "touch user last login", userID, at)
}

func (t *pgSessionTx) touch(ctx context.Context, query, operation string, userID userdomain.ID, at time.Time) error {
	start := time.Now()
	tag, err := t.tx.Exec(ctx, query, int64(userID), at)
	if err := db.HandleExecError(err, operation, start); err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return userrepo.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// prefixedScanner prepends destinations so a joined row can be scanned by
// helpers that only know the trailing columns.
type prefixedScanner struct {
	row    rowScanner
	prefix []interface{}
}

func (p prefixedScanner) Scan(dest ...interface{}) error {
	return p.row.Scan(append(p.prefix, dest...)...)
}

func scanTokenPair(row rowScanner) (authdomain.TokenPair, error) {
	var (
		pair   authdomain.TokenPair
		id     int64
		userID int64
	)
	if err := row.Scan(&id, &userID, &pair.AccessToken, &pair.RefreshToken, &pair.ExpiresAt, &pair.CreatedAt); err != nil {
		return authdomain.TokenPair{}, err
	}
	pair.ID = authdomain.TokenPairID(id)
	pair.UserID = userdomain.ID(userID)
	return pair, nil
}
