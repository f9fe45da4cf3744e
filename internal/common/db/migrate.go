package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Yaroher2442/FORTIFIED/internal/common/db/migrations"
	"github.com/Yaroher2442/FORTIFIED/internal/common/logger"
)

// Migrate applies the embedded schema migrations through database/sql, which
// goose requires; the service itself talks to postgres through pgxpool.
func Migrate(ctx context.Context, log *logger.Logger, databaseURL string) error {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer conn.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	log.Infof("database schema at version %d", version)
	return nil
}
