package constants

import "time"

const (
	EmailMaxLength     = 255
	PasswordMinLength  = 1
	PasswordMaxLength  = 72
	JWTSecretMinLength = 32

	PasswordSaltSize       = 16
	PasswordKeyLength      = 32
	PasswordArgonTime      = 1
	PasswordArgonMemoryKiB = 64 * 1024
	PasswordArgonThreads   = 2

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAuthHTTPPort = "8081"

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout = 5 * time.Second
	DefaultAccessTokenTTL     = 30 * time.Minute
	DefaultSessionRetention   = 30 * 24 * time.Hour
	DefaultCleanupInterval    = 1 * time.Hour

	RateLimitCleanupInterval = 5 * time.Minute

	RateLimitLoginRequestsPerSecond    = 1.0
	RateLimitLoginBurst                = 5
	RateLimitRegisterRequestsPerSecond = 0.5
	RateLimitRegisterBurst             = 3
	RateLimitRefreshRequestsPerSecond  = 2.0
	RateLimitRefreshBurst              = 10
	RateLimitLogoutRequestsPerSecond   = 2.0
	RateLimitLogoutBurst               = 10
	RateLimitGeneralRequestsPerSecond  = 20.0
	RateLimitGeneralBurst              = 40

	LoggerDefaultDir = "/var/log/fortified"
	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
