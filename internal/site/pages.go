package site

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/secrets-portal/internal/auth"
)

// Home はトップページを表示します。
func (h *Handlers) Home(c *gin.Context) {
	h.render(c, "index.html", gin.H{"Title": "Home"})
}

// RegisterForm は登録フォームを表示します。
func (h *Handlers) RegisterForm(c *gin.Context) {
	h.render(c, "register.html", gin.H{"Title": "Register"})
}

// LoginForm はログインフォームを表示します。
func (h *Handlers) LoginForm(c *gin.Context) {
	h.render(c, "login.html", gin.H{"Title": "Login"})
}

// Secrets はログイン済みユーザー向けのページです。name はクエリの値をそのまま表示します（テンプレートでエスケープ）。
func (h *Handlers) Secrets(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		if user, err := auth.UserFromContext(c); err == nil {
			name = user.Name
		}
	}
	h.render(c, "secrets.html", gin.H{
		"Title":    "Secrets",
		"Name":     name,
		"LoggedIn": true,
	})
}

// render はフラッシュとログイン状態を付与してテンプレートを描画します。
func (h *Handlers) render(c *gin.Context, name string, data gin.H) {
	ctx := c.Request.Context()

	if _, ok := data["LoggedIn"]; !ok {
		data["LoggedIn"] = h.auth.IsAuthenticated(c)
	}

	// 取り出しと同時にセッションを保存するので、本文を書き出す前に呼ぶ
	flashes, err := auth.Flashes(c)
	if err != nil {
		h.logger.Warn(ctx, "failed to read flashes", "error", err)
	}
	data["Flashes"] = flashes

	c.HTML(http.StatusOK, name, data)
}
