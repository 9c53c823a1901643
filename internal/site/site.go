// Package site はサーバーレンダリングのページとフォーム処理を提供します。
package site

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/secrets-portal/internal/auth"
	"github.com/yourusername/secrets-portal/internal/files"
	"github.com/yourusername/secrets-portal/internal/logging"
	"github.com/yourusername/secrets-portal/internal/users"
)

// ユーザーに表示するメッセージ
const (
	MsgRegistered        = "You've registered successfully!"
	MsgDuplicateEmail    = "This email is already registered. Please login instead."
	MsgMissingFields     = "Please fill in your name, email and password."
	MsgPasswordTooLong   = "Password must be at most 72 bytes."
	MsgLoggedIn          = "Password matched."
	MsgInvalidLogin      = "Invalid email or password."
	MsgLoggedOut         = "Logout successfully"
	msgInternalError     = "Something went wrong. Please try again later."
	msgDownloadNotExists = "File not found."
)

// UserCreator はユーザー登録に使うストアです。
type UserCreator interface {
	Create(ctx context.Context, name, email, passwordDigest string) (*users.User, error)
}

// PasswordHasher は登録時のパスワードをハッシュ化します。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Pinger はヘルスチェックで使う疎通確認です。*sqlx.DB が満たします。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps はハンドラーが必要とする依存です。Asset と DB は nil でも構いません。
type Deps struct {
	Auth   *auth.Manager
	Users  UserCreator
	Hasher PasswordHasher
	Asset  *files.Asset
	DB     Pinger
	Logger logging.Logger
}

// Handlers はページのハンドラー群です。
type Handlers struct {
	auth   *auth.Manager
	users  UserCreator
	hasher PasswordHasher
	asset  *files.Asset
	db     Pinger
	logger logging.Logger
}

// New は Handlers を作成します。
func New(deps Deps) *Handlers {
	return &Handlers{
		auth:   deps.Auth,
		users:  deps.Users,
		hasher: deps.Hasher,
		asset:  deps.Asset,
		db:     deps.DB,
		logger: deps.Logger.With("component", "site"),
	}
}

// Routes はルーティングを登録します。
// /secrets と /download はガードの後ろに置き、ハンドラー側では認証を確認しません。
func (h *Handlers) Routes(router gin.IRouter) {
	router.GET("/health", h.Health)

	router.GET("/", h.Home)
	router.GET("/register", h.RegisterForm)
	router.POST("/register", h.Register)
	router.GET("/login", h.LoginForm)
	router.POST("/login", h.Login)
	router.GET("/logout", h.Logout)

	protected := router.Group("")
	protected.Use(h.auth.RequireLogin())
	{
		protected.GET("/secrets", h.Secrets)
		protected.GET("/download", h.downloadHandler())
	}
}

func (h *Handlers) downloadHandler() gin.HandlerFunc {
	if h.asset == nil {
		return func(c *gin.Context) {
			c.String(http.StatusNotFound, msgDownloadNotExists)
		}
	}
	return files.Handler(h.asset, h.logger)
}

// Health はヘルスチェックエンドポイントのハンドラーです。
func (h *Handlers) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			h.logger.Error(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "secrets-portal",
	})
}

// internalError は想定外のエラーを記録して 500 を返します。
func (h *Handlers) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(c.Request.Context(), msg, "error", err)
	c.String(http.StatusInternalServerError, msgInternalError)
}
