package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/Yaroher2442/FORTIFIED/internal/auth/cleanup"
	authrepo "github.com/Yaroher2442/FORTIFIED/internal/auth/repository"
	"github.com/Yaroher2442/FORTIFIED/internal/auth/service"
	"github.com/Yaroher2442/FORTIFIED/internal/auth/tokencodec"
	"github.com/Yaroher2442/FORTIFIED/internal/common/clock"
	"github.com/Yaroher2442/FORTIFIED/internal/common/config"
	"github.com/Yaroher2442/FORTIFIED/internal/common/constants"
	commoncrypto "github.com/Yaroher2442/FORTIFIED/internal/common/crypto"
	"github.com/Yaroher2442/FORTIFIED/internal/common/db"
	commonhttp "github.com/Yaroher2442/FORTIFIED/internal/common/http"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
	"github.com/Yaroher2442/FORTIFIED/internal/common/resilience"
	userrepo "github.com/Yaroher2442/FORTIFIED/internal/user/repository"
)

type AuthApp struct {
	Log          *logger.Logger
	Config       config.AuthConfig
	Pool         *pgxpool.Pool
	Users        userrepo.Repository
	Sessions     authrepo.SessionStore
	Service      *service.AuthService
	Pruner       *cleanup.Pruner
	HealthChecks map[string]commonhttp.HealthCheck
}

// Close releases the database pool, if any.
func (a *AuthApp) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	log, err := initializeLogger("auth")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return nil, err
	}

	app := &AuthApp{
		Log:          log,
		Config:       cfg,
		HealthChecks: map[string]commonhttp.HealthCheck{},
	}

	if err := app.initializeStorage(ctx); err != nil {
		app.Close()
		return nil, err
	}

	if err := app.initializeServices(); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

func (a *AuthApp) initializeStorage(ctx context.Context) error {
	switch a.Config.StorageDriver {
	case constants.StorageDriverMemory:
		a.Log.Warn("using in-memory storage: sessions and users are lost on restart")
		store := authrepo.NewMemoryStore()
		a.Users = store
		a.Sessions = store
		return nil

	case constants.StorageDriverPostgres:
		if a.Config.MigrateOnStart {
			if err := db.Migrate(ctx, a.Log, a.Config.DatabaseURL); err != nil {
				return err
			}
		}

		pool, err := db.NewPool(ctx, a.Log, a.Config.DatabaseURL)
		if err != nil {
			return err
		}
		a.Pool = pool

		breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Threshold:  a.Config.CircuitBreakerThreshold,
			Timeout:    a.Config.CircuitBreakerTimeout,
			ResetAfter: a.Config.CircuitBreakerReset,
			Name:       "auth_db",
			Logger:     a.Log,
			Expected: func(err error) bool {
				return errors.Is(err, authrepo.ErrTokenPairNotFound) || errors.Is(err, userrepo.ErrUserNotFound)
			},
		})

		a.Users = userrepo.NewPgRepository(pool)
		a.Sessions = authrepo.NewPgSessionStore(pool, breaker)
		a.HealthChecks["database"] = func(ctx context.Context) error {
			return pool.Ping(ctx)
		}
		return nil
	}

	return fmt.Errorf("unsupported storage driver %q", a.Config.StorageDriver)
}

func (a *AuthApp) initializeServices() error {
	codec, err := tokencodec.New(a.Config.JWTSecret)
	if err != nil {
		return err
	}

	clk := clock.NewRealClock()
	hasher := commoncrypto.NewArgon2idHasher(commoncrypto.DefaultArgon2idParams())
	issuer := service.NewTokenIssuer(a.Sessions, codec, a.Config.AccessTokenTTL, clk, a.Log)

	a.Service = service.NewAuthService(
		a.Users,
		a.Sessions,
		hasher,
		issuer,
		service.NewTokenRefresher(a.Sessions, codec, issuer, a.Log),
		service.NewRequestAuthenticator(a.Sessions, codec, clk, a.Log),
		clk,
		service.Options{AutoVerify: a.Config.AutoVerifyUsers},
		a.Log,
	)
	a.Pruner = cleanup.NewPruner(a.Sessions, a.Config.SessionRetention, clk, a.Log)
	return nil
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
}
