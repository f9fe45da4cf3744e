package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Yaroher2442/FORTIFIED/internal/common/constants"
	commonerrors "github.com/Yaroher2442/FORTIFIED/internal/common/errors"
)

// AuthConfig is read once at startup and passed by value; nothing mutates it
// afterwards.
type AuthConfig struct {
	HTTPPort         string
	DatabaseURL      string
	StorageDriver    string
	JWTSecret        string
	AccessTokenTTL   time.Duration
	RequestTimeout   time.Duration
	AutoVerifyUsers  bool
	MigrateOnStart   bool
	SessionRetention time.Duration
	CleanupInterval  time.Duration

	CircuitBreakerThreshold int32
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
}

// LoadDotEnv loads variables from the given files (".env" when none) without
// overriding the ones already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func LoadAuthConfig() (AuthConfig, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return AuthConfig{}, err
	}

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", constants.StorageDriverPostgres))
	var databaseURL string
	switch driver {
	case constants.StorageDriverPostgres:
		databaseURL, err = mustEnv("DATABASE_URL")
		if err != nil {
			return AuthConfig{}, err
		}
	case constants.StorageDriverMemory:
	default:
		return AuthConfig{}, commonerrors.ErrInvalidStorageDriver.WithCause(fmt.Errorf("got %q", driver))
	}

	return AuthConfig{
		HTTPPort:         getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		DatabaseURL:      databaseURL,
		StorageDriver:    driver,
		JWTSecret:        jwtSecret,
		AccessTokenTTL:   getDurationEnv("AUTH_ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		RequestTimeout:   getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
		AutoVerifyUsers:  getBoolEnv("AUTH_AUTO_VERIFY", false),
		MigrateOnStart:   getBoolEnv("AUTH_MIGRATE_ON_START", false),
		SessionRetention: getDurationEnv("AUTH_SESSION_RETENTION", constants.DefaultSessionRetention),
		CleanupInterval:  getDurationEnv("AUTH_CLEANUP_INTERVAL", constants.DefaultCleanupInterval),

		CircuitBreakerThreshold: int32(getIntEnv("AUTH_CB_THRESHOLD", constants.DefaultCircuitBreakerThreshold)),
		CircuitBreakerTimeout:   getDurationEnv("AUTH_CB_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("AUTH_CB_RESET", constants.DefaultCircuitBreakerReset),
	}, nil
}

// LoadDatabaseURL is used by tooling that only needs the database.
func LoadDatabaseURL() (string, error) {
	return mustEnv("DATABASE_URL")
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return commonerrors.ErrInvalidJWTSecret.WithCause(fmt.Errorf("got %d bytes", len(secret)))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(errors.New(key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
