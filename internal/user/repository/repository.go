package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Yaroher2442/FORTIFIED/internal/common/db"
	"github.com/Yaroher2442/FORTIFIED/internal/user/domain"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

type Repository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	SetVerified(ctx context.Context, email string, verified bool) (domain.User, error)
}

const userColumns = `id, email, password_hash, salt, verified, last_login_at, last_active_at, created_at`

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO users (email, password_hash, salt, verified)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		NormalizeEmail(user.Email),
		user.PasswordHash,
		user.Salt,
		user.Verified,
	)

	created, err := ScanUser(row)
	if err != nil && db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("create user", start)
		return domain.User{}, ErrEmailAlreadyExists
	}
	if err := db.HandleQueryError(err, ErrUserNotFound, "create user", start); err != nil {
		return domain.User{}, err
	}
	return created, nil
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return FindUserByEmail(ctx, r.pool, email, "")
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, int64(id))

	user, err := ScanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by id", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *PgRepository) SetVerified(ctx context.Context, email string, verified bool) (domain.User, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`UPDATE users SET verified = $2 WHERE email = $1 RETURNING `+userColumns,
		NormalizeEmail(email),
		verified,
	)

	user, err := ScanUser(row)
	if err := db.HandleQueryError(err, ErrUserNotFound, "set user verified", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// FindUserByEmail works on a pool or inside a transaction. lock is appended
// verbatim to the query (e.g. "FOR SHARE").
func FindUserByEmail(ctx context.Context, q db.Querier, email, lock string) (domain.User, error) {
	start := time.Now()
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if lock != "" {
		query += " " + lock
	}

	user, err := ScanUser(q.QueryRow(ctx, query, NormalizeEmail(email)))
	if err := db.HandleQueryError(err, ErrUserNotFound, "find user by email", start); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ScanUser reads the columns listed in userColumns, in order.
func ScanUser(row rowScanner) (domain.User, error) {
	var (
		user     domain.User
		id       int64
		lastSeen *time.Time
		lastIn   *time.Time
	)
	err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.Salt, &user.Verified, &lastIn, &lastSeen, &user.CreatedAt)
	if err != nil {
		return domain.User{}, err
	}
	user.ID = domain.ID(id)
	user.LastLoginAt = lastIn
	user.LastActiveAt = lastSeen
	return user, nil
}
