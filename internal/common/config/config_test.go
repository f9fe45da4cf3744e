package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Yaroher2442/FORTIFIED/internal/common/constants"
	commonerrors "github.com/Yaroher2442/FORTIFIED/internal/common/errors"
)

const testSecret = "test-secret-key-must-be-at-least-32-bytes-long"

func TestLoadAuthConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://localhost/fortified")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := LoadAuthConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.StorageDriver != constants.StorageDriverPostgres {
		t.Errorf("expected postgres driver, got %s", cfg.StorageDriver)
	}
	if cfg.HTTPPort != constants.DefaultAuthHTTPPort {
		t.Errorf("expected default port, got %s", cfg.HTTPPort)
	}
	if cfg.AccessTokenTTL != constants.DefaultAccessTokenTTL {
		t.Errorf("expected default ttl, got %v", cfg.AccessTokenTTL)
	}
	if cfg.AutoVerifyUsers {
		t.Error("expected auto verify to be off by default")
	}
}

func TestLoadAuthConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "90s")
	t.Setenv("AUTH_AUTO_VERIFY", "true")
	t.Setenv("AUTH_CB_THRESHOLD", "7")
	t.Setenv("AUTH_REQUEST_TIMEOUT", "not-a-duration")

	cfg, err := LoadAuthConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.StorageDriver != constants.StorageDriverMemory {
		t.Errorf("expected memory driver, got %s", cfg.StorageDriver)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("expected empty database url for memory driver, got %s", cfg.DatabaseURL)
	}
	if cfg.AccessTokenTTL != 90*time.Second {
		t.Errorf("expected 90s ttl, got %v", cfg.AccessTokenTTL)
	}
	if !cfg.AutoVerifyUsers {
		t.Error("expected auto verify to be on")
	}
	if cfg.CircuitBreakerThreshold != 7 {
		t.Errorf("expected threshold 7, got %d", cfg.CircuitBreakerThreshold)
	}
	if cfg.RequestTimeout != constants.DefaultAuthRequestTimeout {
		t.Errorf("expected fallback timeout on bad value, got %v", cfg.RequestTimeout)
	}
}

func TestLoadAuthConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadAuthConfig()
	if !errors.Is(err, commonerrors.ErrMissingRequiredEnv) {
		t.Fatalf("expected ErrMissingRequiredEnv, got %v", err)
	}
}

func TestLoadAuthConfig_ShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := LoadAuthConfig()
	if !errors.Is(err, commonerrors.ErrInvalidJWTSecret) {
		t.Fatalf("expected ErrInvalidJWTSecret, got %v", err)
	}
}

func TestLoadAuthConfig_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := LoadAuthConfig()
	if !errors.Is(err, commonerrors.ErrMissingRequiredEnv) {
		t.Fatalf("expected ErrMissingRequiredEnv, got %v", err)
	}
}

func TestLoadAuthConfig_UnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := LoadAuthConfig()
	if !errors.Is(err, commonerrors.ErrInvalidStorageDriver) {
		t.Fatalf("expected ErrInvalidStorageDriver, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("FORTIFIED_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("FORTIFIED_DOTENV_PROBE", "")
	os.Unsetenv("FORTIFIED_DOTENV_PROBE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := os.Getenv("FORTIFIED_DOTENV_PROBE"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}
}

func TestLoadDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadDatabaseURL(); !errors.Is(err, commonerrors.ErrMissingRequiredEnv) {
		t.Fatalf("expected ErrMissingRequiredEnv, got %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/fortified")
	url, err := LoadDatabaseURL()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if url != "postgres://localhost/fortified" {
		t.Errorf("unexpected url %q", url)
	}
}
