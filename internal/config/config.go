// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultSecretKey は開発用の署名鍵です。release モードでは使用できません。
const DefaultSecretKey = "secret-key-goes-here"

// MaxRememberDays は remember クッキーの上限日数です。
// 署名済みクッキーは securecookie 側で30日を超えると検証に失敗するため、それ以上は指定できません。
const MaxRememberDays = 30

// サポートするデータベースドライバー
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// サポートするパスワードハッシュ方式
const (
	SchemePBKDF2 = "pbkdf2"
	SchemeBcrypt = "bcrypt"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// アプリケーション設定
	SecretKey string // セッションクッキー署名用の秘密鍵

	// サーバー設定
	Port    string // HTTPサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// データベース設定
	DatabaseDriver string // sqlite または pgx
	DatabaseURL    string // 接続文字列

	// セッション設定
	RedisURL             string // セッションレジストリ用Redis接続URL（空ならメモリ上で管理）
	RememberDays         int    // remember 指定時のクッキー有効日数
	SessionLifetimeHours int    // remember なしセッションの有効時間

	// パスワード設定
	PasswordScheme     string // pbkdf2 または bcrypt
	PBKDF2Iterations   int    // PBKDF2 の反復回数
	PasswordSaltLength int    // ソルト長（文字数）
	BcryptCost         int    // bcrypt のコスト

	// ダウンロード設定
	DownloadPath string // /download で返す固定ファイル

	// ログ設定
	LogLevel string // debug, info, warn, error
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		SecretKey: getEnv("SECRET_KEY", DefaultSecretKey),

		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:8080"),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
		DatabaseURL:    getEnv("DATABASE_URL", "users.db"),

		RedisURL:             getEnv("REDIS_URL", ""),
		RememberDays:         getEnvAsInt("REMEMBER_DAYS", MaxRememberDays),
		SessionLifetimeHours: getEnvAsInt("SESSION_LIFETIME_HOURS", 12),

		PasswordScheme:     strings.ToLower(getEnv("PASSWORD_SCHEME", SchemePBKDF2)),
		PBKDF2Iterations:   getEnvAsInt("PBKDF2_ITERATIONS", 600000),
		PasswordSaltLength: getEnvAsInt("PASSWORD_SALT_LENGTH", 16),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", 10),

		DownloadPath: getEnv("DOWNLOAD_PATH", filepath.Join("static", "files", "cheat_sheet.pdf")),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	// 設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER: %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.PasswordScheme {
	case SchemePBKDF2, SchemeBcrypt:
	default:
		return fmt.Errorf("unsupported PASSWORD_SCHEME: %q", c.PasswordScheme)
	}
	if c.PBKDF2Iterations <= 0 {
		return fmt.Errorf("PBKDF2_ITERATIONS must be positive")
	}
	if c.PasswordSaltLength <= 0 {
		return fmt.Errorf("PASSWORD_SALT_LENGTH must be positive")
	}

	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if c.RememberDays <= 0 || c.RememberDays > MaxRememberDays {
		return fmt.Errorf("REMEMBER_DAYS must be between 1 and %d", MaxRememberDays)
	}
	if c.SessionLifetimeHours <= 0 {
		return fmt.Errorf("SESSION_LIFETIME_HOURS must be positive")
	}
	if len(c.CORSOrigins()) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}

	// 本番環境では開発用の署名鍵を許可しない
	if c.GinMode == "release" {
		if c.SecretKey == DefaultSecretKey {
			return fmt.Errorf("SECRET_KEY must be changed in release mode")
		}
		if c.DownloadPath == "" {
			return fmt.Errorf("DOWNLOAD_PATH is required in release mode")
		}
	}

	return nil
}

// CORSOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) CORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
