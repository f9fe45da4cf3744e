package repository

import (
	"errors"
	"testing"
	"time"
)

type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		case *bool:
			*p = r.values[i].(bool)
		case **time.Time:
			if v, ok := r.values[i].(time.Time); ok {
				*p = &v
			}
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

func TestScanUser(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	login := created.Add(time.Hour)

	user, err := ScanUser(fakeRow{values: []interface{}{
		int64(7), "alice@example.com", "digest", "salt", true, login, nil, created,
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID != 7 || user.Email != "alice@example.com" || !user.Verified {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.LastLoginAt == nil || !user.LastLoginAt.Equal(login) {
		t.Fatalf("expected last login %v, got %v", login, user.LastLoginAt)
	}
	if user.LastActiveAt != nil {
		t.Fatalf("expected nil last active, got %v", user.LastActiveAt)
	}
}

func TestScanUser_PropagatesError(t *testing.T) {
	scanErr := errors.New("scan failed")
	if _, err := ScanUser(fakeRow{err: scanErr}); !errors.Is(err, scanErr) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}
