package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/secrets-portal/internal/users"
)

// LoginRequiredMessage は未ログインでガード付きページにアクセスした際のメッセージです。
const LoginRequiredMessage = "Please log in to access this page."

// RequireLogin はセッションを検証するミドルウェアを返します。
// 未ログインの場合はハンドラーを呼ばずにログイン画面へリダイレクトします。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.CurrentUser(c)
		if err != nil {
			m.logger.Error(c.Request.Context(), "failed to resolve session user", "error", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if user == nil {
			session := sessions.Default(c)
			// 失効済み・期限切れのセッション情報はここで消しておく
			if hasIdentity(session) {
				clearIdentity(session)
			}
			AddFlash(c, FlashError, LoginRequiredMessage)
			if err := session.Save(); err != nil {
				m.logger.Warn(c.Request.Context(), "failed to save session", "error", err)
			}
			c.Redirect(http.StatusFound, m.opts.LoginPath)
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserFromContext は RequireLogin を通過したユーザーを返します。
func UserFromContext(c *gin.Context) (*users.User, error) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, ErrUnauthenticated
	}
	user, _ := v.(*users.User)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}
