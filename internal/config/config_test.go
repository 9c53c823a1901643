package config

import (
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SECRET_KEY", "PORT", "GIN_MODE", "CORS_ALLOWED_ORIGINS",
		"DATABASE_DRIVER", "DATABASE_URL", "REDIS_URL",
		"REMEMBER_DAYS", "SESSION_LIFETIME_HOURS",
		"PASSWORD_SCHEME", "PBKDF2_ITERATIONS", "PASSWORD_SALT_LENGTH", "BCRYPT_COST",
		"DOWNLOAD_PATH", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DatabaseDriver != DriverSQLite {
		t.Fatalf("DatabaseDriver = %q, want %q", cfg.DatabaseDriver, DriverSQLite)
	}
	if cfg.DatabaseURL != "users.db" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.PasswordScheme != SchemePBKDF2 {
		t.Fatalf("PasswordScheme = %q", cfg.PasswordScheme)
	}
	if cfg.PBKDF2Iterations != 600000 {
		t.Fatalf("PBKDF2Iterations = %d", cfg.PBKDF2Iterations)
	}
	if cfg.RememberDays != MaxRememberDays || cfg.SessionLifetimeHours != 12 {
		t.Fatalf("unexpected session lifetimes: %d days / %d hours", cfg.RememberDays, cfg.SessionLifetimeHours)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("RedisURL should default to empty, got %q", cfg.RedisURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "PGX")
	t.Setenv("DATABASE_URL", "postgres://localhost/secrets")
	t.Setenv("PASSWORD_SCHEME", "bcrypt")
	t.Setenv("REMEMBER_DAYS", "7")
	t.Setenv("PBKDF2_ITERATIONS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DatabaseDriver != DriverPostgres {
		t.Fatalf("DatabaseDriver = %q, want %q", cfg.DatabaseDriver, DriverPostgres)
	}
	if cfg.PasswordScheme != SchemeBcrypt {
		t.Fatalf("PasswordScheme = %q", cfg.PasswordScheme)
	}
	if cfg.RememberDays != 7 {
		t.Fatalf("RememberDays = %d", cfg.RememberDays)
	}
	// 数値でない値はデフォルトにフォールバックする
	if cfg.PBKDF2Iterations != 600000 {
		t.Fatalf("PBKDF2Iterations = %d", cfg.PBKDF2Iterations)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			SecretKey:            "s3cret",
			GinMode:              "debug",
			DatabaseDriver:       DriverSQLite,
			DatabaseURL:          "users.db",
			PasswordScheme:       SchemePBKDF2,
			PBKDF2Iterations:     1000,
			PasswordSaltLength:   16,
			RememberDays:         30,
			SessionLifetimeHours: 12,
			CORSAllowedOrigins:   "http://localhost:8080",
			DownloadPath:         "static/files/cheat_sheet.pdf",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }, wantErr: true},
		{name: "empty dsn", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: true},
		{name: "unknown scheme", mutate: func(c *Config) { c.PasswordScheme = "md5" }, wantErr: true},
		{name: "zero iterations", mutate: func(c *Config) { c.PBKDF2Iterations = 0 }, wantErr: true},
		{name: "remember too long", mutate: func(c *Config) { c.RememberDays = 365 }, wantErr: true},
		{name: "zero lifetime", mutate: func(c *Config) { c.SessionLifetimeHours = 0 }, wantErr: true},
		{name: "empty cors origins", mutate: func(c *Config) { c.CORSAllowedOrigins = " , " }, wantErr: true},
		{name: "empty secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: true},
		{name: "default secret in debug", mutate: func(c *Config) { c.SecretKey = DefaultSecretKey }},
		{name: "default secret in release", mutate: func(c *Config) {
			c.GinMode = "release"
			c.SecretKey = DefaultSecretKey
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCORSOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: "http://a.example, http://b.example,,"}
	got := cfg.CORSOrigins()
	if len(got) != 2 || got[0] != "http://a.example" || got[1] != "http://b.example" {
		t.Fatalf("unexpected origins: %#v", got)
	}
}

func TestLoadRejectsEmptyCORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", ",")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for an origin list without entries")
	}
}
