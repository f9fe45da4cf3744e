package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
)

var errMissing = errors.New("missing")

func TestHandleQueryError(t *testing.T) {
	start := time.Now()

	if err := HandleQueryError(nil, errMissing, "find user by email", start); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	if err := HandleQueryError(pgx.ErrNoRows, errMissing, "find user by email", start); !errors.Is(err, errMissing) {
		t.Errorf("expected not-found sentinel, got %v", err)
	}

	cause := errors.New("connection reset")
	err := HandleQueryError(cause, errMissing, "find token pair", start)
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if err.Error() != "failed to find token pair: connection reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	if !IsUniqueViolation(fmt.Errorf("insert: %w", unique)) {
		t.Error("expected wrapped 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation reported as unique")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Error("plain error reported as unique")
	}
}

func TestExtractTableFromOperation(t *testing.T) {
	cases := []struct {
		op   string
		want string
	}{
		{"create token pair", "token_pairs"},
		{"Delete Token Pair", "token_pairs"},
		{"find user by email", "users"},
		{"ping", "unknown"},
	}
	for _, tc := range cases {
		if got := extractTableFromOperation(tc.op); got != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.op, tc.want, got)
		}
	}
}
