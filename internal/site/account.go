package site

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/secrets-portal/internal/auth"
	pwhash "github.com/yourusername/secrets-portal/internal/password"
	"github.com/yourusername/secrets-portal/internal/users"
)

// Register は POST /register のハンドラーです。
func (h *Handlers) Register(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.PostForm("name")
	email := c.PostForm("email")
	password := c.PostForm("password")

	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		h.flashRedirect(c, auth.FlashError, MsgMissingFields, "/register")
		return
	}

	digest, err := h.hasher.Hash(password)
	if errors.Is(err, pwhash.ErrPasswordTooLong) {
		h.flashRedirect(c, auth.FlashError, MsgPasswordTooLong, "/register")
		return
	}
	if err != nil {
		h.internalError(c, "failed to hash password", err)
		return
	}

	user, err := h.users.Create(ctx, name, email, digest)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			h.logger.Info(ctx, "registration with existing email")
			h.flashRedirect(c, auth.FlashError, MsgDuplicateEmail, "/login")
			return
		}
		h.internalError(c, "failed to create user", err)
		return
	}
	h.logger.Info(ctx, "user registered", "user_id", user.ID)

	// Login がセッションを保存するので、フラッシュは先に積んでおく
	auth.AddFlash(c, auth.FlashInfo, MsgRegistered)
	if err := h.auth.Login(c, user, true); err != nil {
		h.internalError(c, "failed to login after registration", err)
		return
	}
	c.Redirect(http.StatusFound, secretsURL(user.Name))
}

// Login は POST /login のハンドラーです。
// 未登録メールとパスワード不一致は同じメッセージで返し、違いはログにだけ残します。
func (h *Handlers) Login(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := h.auth.Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, auth.ErrUnknownEmail), errors.Is(err, auth.ErrBadPassword):
		h.logger.Info(ctx, "login failed", "reason", err.Error())
		h.flashRedirect(c, auth.FlashError, MsgInvalidLogin, "/login")
		return
	case err != nil:
		h.internalError(c, "failed to authenticate", err)
		return
	}

	auth.AddFlash(c, auth.FlashInfo, MsgLoggedIn)
	if err := h.auth.Login(c, user, true); err != nil {
		h.internalError(c, "failed to login", err)
		return
	}
	c.Redirect(http.StatusFound, secretsURL(user.Name))
}

// Logout は GET /logout のハンドラーです。未ログインでも同じ結果になります。
func (h *Handlers) Logout(c *gin.Context) {
	auth.AddFlash(c, auth.FlashInfo, MsgLoggedOut)
	if err := h.auth.Logout(c); err != nil {
		h.internalError(c, "failed to logout", err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handlers) flashRedirect(c *gin.Context, category, message, location string) {
	if err := auth.SaveFlash(c, category, message); err != nil {
		h.internalError(c, "failed to save session", err)
		return
	}
	c.Redirect(http.StatusFound, location)
}

func secretsURL(name string) string {
	return "/secrets?" + url.Values{"name": {name}}.Encode()
}
