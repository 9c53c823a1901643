// Package auth は認証・セッション管理を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/secrets-portal/internal/logging"
	"github.com/yourusername/secrets-portal/internal/users"
)

const (
	SessionCookieName  = "sp_session"
	sessionKeyUser     = "user_id"
	sessionKeySID      = "sid"
	sessionKeyIssuedAt = "issued_at"
	sessionKeyRemember = "remember"
)

// ContextUserKey は、ガードを通過したユーザーをハンドラーと共有するためのキーです。
const ContextUserKey = "auth.user"

// contextResolvedKey は同一リクエスト内でユーザー解決を一度だけ行うためのキーです。
const contextResolvedKey = "auth.resolved"

var (
	// ErrUnknownEmail は登録されていないメールアドレスでのログインを表します。
	ErrUnknownEmail = errors.New("unknown email")
	// ErrBadPassword はパスワード不一致を表します。
	ErrBadPassword = errors.New("bad password")
	// ErrUnauthenticated はログインしていない状態でのアクセスを表します。
	ErrUnauthenticated = errors.New("unauthenticated")
)

// UserFinder はセッションからユーザーを復元するためのストアです。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindByID(ctx context.Context, id int64) (*users.User, error)
}

// PasswordVerifier はダイジェストを検証します。
type PasswordVerifier interface {
	Verify(digest, plaintext string) bool
	NeedsRehash(digest string) bool
}

// Options はセッションの有効期限とクッキー属性です。
type Options struct {
	RememberFor     time.Duration    // remember 指定時の有効期間
	SessionLifetime time.Duration    // remember なしの有効期間
	Cookie          sessions.Options // クッキーの基本属性
	LoginPath       string           // 未ログイン時のリダイレクト先
}

// CookieOptions はセッションクッキーの基本属性を返します。MaxAge 0 はブラウザセッション限りのクッキーです。
func CookieOptions(secure bool) sessions.Options {
	return sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Manager は認証処理とセッション状態をまとめた構造体です。
type Manager struct {
	users    UserFinder
	verifier PasswordVerifier
	registry Registry
	logger   logging.Logger
	opts     Options
	now      func() time.Time
}

// NewManager は認証マネージャーを作成します。
func NewManager(finder UserFinder, verifier PasswordVerifier, registry Registry, logger logging.Logger, opts Options) *Manager {
	if opts.RememberFor <= 0 {
		opts.RememberFor = 30 * 24 * time.Hour
	}
	if opts.SessionLifetime <= 0 {
		opts.SessionLifetime = 12 * time.Hour
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	return &Manager{
		users:    finder,
		verifier: verifier,
		registry: registry,
		logger:   logger.With("component", "auth"),
		opts:     opts,
		now:      time.Now,
	}
}

// Authenticate はメールアドレスとパスワードを検証します。
// 失敗時は ErrUnknownEmail または ErrBadPassword を返します。画面上は区別せずに扱ってください。
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	user, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnknownEmail
	}
	if !m.verifier.Verify(user.Password, password) {
		return nil, ErrBadPassword
	}
	if m.verifier.NeedsRehash(user.Password) {
		m.logger.Info(ctx, "password digest uses outdated parameters", "user_id", user.ID)
	}
	return user, nil
}

// Login はセッションを Authenticated(user.ID) に遷移させ、クッキーを保存します。
// remember が true の場合は長期間有効なクッキーを発行します。
func (m *Manager) Login(c *gin.Context, user *users.User, remember bool) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	ctx := c.Request.Context()
	session := sessions.Default(c)

	// 既存のセッションIDは引き継がない
	if sid, ok := session.Get(sessionKeySID).(string); ok && sid != "" {
		if err := m.registry.Revoke(ctx, sid); err != nil {
			m.logger.Warn(ctx, "failed to revoke previous session", "error", err)
		}
	}

	lifetime := m.opts.SessionLifetime
	cookieOpts := m.opts.Cookie
	if remember {
		lifetime = m.opts.RememberFor
		cookieOpts.MaxAge = int(lifetime.Seconds())
	}

	sid, err := m.registry.Issue(ctx, user.ID, lifetime)
	if err != nil {
		return fmt.Errorf("failed to issue session: %w", err)
	}

	session.Options(cookieOpts)
	session.Set(sessionKeyUser, user.ID)
	session.Set(sessionKeySID, sid)
	session.Set(sessionKeyIssuedAt, m.now().Unix())
	session.Set(sessionKeyRemember, remember)
	if err := session.Save(); err != nil {
		_ = m.registry.Revoke(ctx, sid)
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.Set(ContextUserKey, user)
	c.Set(contextResolvedKey, true)
	m.logger.Info(ctx, "user logged in", "user_id", user.ID, "remember", remember)
	return nil
}

// Logout はセッションを Anonymous に戻し、セッションIDを失効させます。
// フラッシュメッセージはそのまま残ります。
func (m *Manager) Logout(c *gin.Context) error {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	if sid, ok := session.Get(sessionKeySID).(string); ok && sid != "" {
		if err := m.registry.Revoke(ctx, sid); err != nil {
			return fmt.Errorf("failed to revoke session: %w", err)
		}
	}

	clearIdentity(session)
	session.Options(m.opts.Cookie)
	if err := session.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.Set(ContextUserKey, nil)
	c.Set(contextResolvedKey, true)
	return nil
}

// SessionOptions は remember 付きセッションのクッキー属性をリクエストごとに復元します。
// sessions.Sessions の直後に登録してください。
func (m *Manager) SessionOptions() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if remember, _ := session.Get(sessionKeyRemember).(bool); remember {
			issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
			if remaining := issuedAt.Add(m.opts.RememberFor).Sub(m.now()); remaining > 0 {
				opts := m.opts.Cookie
				opts.MaxAge = int(remaining.Seconds())
				session.Options(opts)
			}
		}
		c.Next()
	}
}

// CurrentUser はセッションのユーザーを返します。未ログイン・失効済み・
// 期限切れ・ユーザーが存在しない場合は nil を返します。
func (m *Manager) CurrentUser(c *gin.Context) (*users.User, error) {
	if resolved := c.GetBool(contextResolvedKey); resolved {
		v, _ := c.Get(ContextUserKey)
		user, _ := v.(*users.User)
		return user, nil
	}

	user, err := m.resolve(c)
	if err != nil {
		return nil, err
	}
	c.Set(ContextUserKey, user)
	c.Set(contextResolvedKey, true)
	return user, nil
}

// IsAuthenticated はログイン済みかどうかを返します。解決に失敗した場合は未ログインとして扱います。
func (m *Manager) IsAuthenticated(c *gin.Context) bool {
	user, err := m.CurrentUser(c)
	if err != nil {
		m.logger.Error(c.Request.Context(), "failed to resolve session user", "error", err)
		return false
	}
	return user != nil
}

// resolve はクッキーの値を信頼せず、レジストリとストアで毎回確認します。
func (m *Manager) resolve(c *gin.Context) (*users.User, error) {
	session := sessions.Default(c)
	ctx := c.Request.Context()

	userID, ok := readInt64(session.Get(sessionKeyUser))
	if !ok || userID <= 0 {
		return nil, nil
	}
	sid, _ := session.Get(sessionKeySID).(string)
	if sid == "" {
		return nil, nil
	}

	issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
	remember, _ := session.Get(sessionKeyRemember).(bool)
	lifetime := m.opts.SessionLifetime
	if remember {
		lifetime = m.opts.RememberFor
	}
	if issuedAt.IsZero() || m.now().Sub(issuedAt) > lifetime {
		return nil, nil
	}

	active, err := m.registry.Active(ctx, sid, userID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, nil
	}

	return m.users.FindByID(ctx, userID)
}

func clearIdentity(session sessions.Session) {
	session.Delete(sessionKeyUser)
	session.Delete(sessionKeySID)
	session.Delete(sessionKeyIssuedAt)
	session.Delete(sessionKeyRemember)
}

func hasIdentity(session sessions.Session) bool {
	return session.Get(sessionKeyUser) != nil || session.Get(sessionKeySID) != nil
}

func readInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func readUnix(v interface{}) time.Time {
	n, ok := readInt64(v)
	if !ok {
		return time.Time{}
	}
	return time.Unix(n, 0)
}
