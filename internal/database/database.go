// Package database はデータベース接続の確立とスキーマ作成を担います。
package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/yourusername/secrets-portal/internal/config"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Open は設定されたドライバーで接続を開き、疎通を確認します。
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case config.DriverSQLite, config.DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == config.DriverSQLite {
		// SQLite は書き込みを直列化するため接続は1本に絞る
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// Migrate は埋め込みマイグレーションを適用し、user テーブルが無ければ作成します。
func Migrate(ctx context.Context, db *sqlx.DB) error {
	dialect, dir, err := dialectFor(db.DriverName())
	if err != nil {
		return err
	}

	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func dialectFor(driver string) (goose.Dialect, string, error) {
	switch driver {
	case config.DriverSQLite:
		return goose.DialectSQLite3, "migrations/sqlite", nil
	case config.DriverPostgres:
		return goose.DialectPostgres, "migrations/postgres", nil
	default:
		return "", "", fmt.Errorf("no migrations for driver: %q", driver)
	}
}
