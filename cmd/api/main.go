// Package main はWebサーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/secrets-portal/internal/auth"
	"github.com/yourusername/secrets-portal/internal/config"
	"github.com/yourusername/secrets-portal/internal/database"
	"github.com/yourusername/secrets-portal/internal/files"
	"github.com/yourusername/secrets-portal/internal/logging"
	"github.com/yourusername/secrets-portal/internal/password"
	"github.com/yourusername/secrets-portal/internal/site"
	"github.com/yourusername/secrets-portal/internal/users"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	// データベース接続とテーブル作成
	db, err := database.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	hasher, err := password.NewHasher(password.Config{
		Scheme:     cfg.PasswordScheme,
		Iterations: cfg.PBKDF2Iterations,
		SaltLength: cfg.PasswordSaltLength,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		log.Fatalf("Failed to configure password hasher: %v", err)
	}

	registry, closeRegistry, err := newRegistry(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to connect session registry: %v", err)
	}
	defer closeRegistry()

	// 配信ファイルが無くても起動はする（/download は 404 を返す）
	asset, err := files.LoadAsset(cfg.DownloadPath)
	if err != nil {
		logger.Warn(ctx, "download asset unavailable", "path", cfg.DownloadPath, "error", err)
	} else {
		logger.Info(ctx, "download asset loaded", "path", asset.Path, "content_type", asset.ContentType, "pages", asset.Pages)
	}

	store := users.NewStore(db)
	secure := cfg.GinMode == gin.ReleaseMode
	authManager := auth.NewManager(store, hasher, registry, logger, auth.Options{
		RememberFor:     time.Duration(cfg.RememberDays) * 24 * time.Hour,
		SessionLifetime: time.Duration(cfg.SessionLifetimeHours) * time.Hour,
		Cookie:          auth.CookieOptions(secure),
	})

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	tmpl, err := site.LoadTemplates()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}
	router.SetHTMLTemplate(tmpl)

	// セッションストアの設定（クッキー署名鍵は必須）
	sessionStore := cookie.NewStore([]byte(cfg.SecretKey))
	sessionStore.Options(auth.CookieOptions(secure))
	router.Use(sessions.Sessions(auth.SessionCookieName, sessionStore))
	router.Use(authManager.SessionOptions())

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	site.New(site.Deps{
		Auth:   authManager,
		Users:  store,
		Hasher: hasher,
		Asset:  asset,
		DB:     db,
		Logger: logger,
	}).Routes(router)

	// サーバーの起動
	addr := ":" + cfg.Port
	logger.Info(ctx, "starting server", "addr", addr, "mode", cfg.GinMode, "driver", cfg.DatabaseDriver)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newRegistry は REDIS_URL があれば Redis、無ければメモリ上のレジストリを返します。
func newRegistry(ctx context.Context, cfg *config.Config, logger logging.Logger) (auth.Registry, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn(ctx, "REDIS_URL is empty; sessions are kept in memory and lost on restart")
		return auth.NewMemoryRegistry(), func() {}, nil
	}

	registry, err := auth.NewRedisRegistryFromURL(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return registry, func() { _ = registry.Close() }, nil
}
