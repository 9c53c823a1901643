package auth

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// フラッシュメッセージのカテゴリ
const (
	FlashInfo  = "info"
	FlashError = "error"
)

// Flash は次のリクエストで一度だけ表示するメッセージです。
type Flash struct {
	Category string
	Message  string
}

func init() {
	// クッキーストアは gob でエンコードするため登録が必要
	gob.Register(Flash{})
}

// AddFlash はメッセージを追加します。保存は呼び出し側（Login/Logout/SaveFlash）で行います。
func AddFlash(c *gin.Context, category, message string) {
	sessions.Default(c).AddFlash(Flash{Category: category, Message: message})
}

// SaveFlash はメッセージを追加してセッションを保存します。
func SaveFlash(c *gin.Context, category, message string) error {
	AddFlash(c, category, message)
	return sessions.Default(c).Save()
}

// Flashes は溜まっているメッセージを取り出します。取り出したメッセージは削除されます。
func Flashes(c *gin.Context) ([]Flash, error) {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}

	flashes := make([]Flash, 0, len(raw))
	for _, v := range raw {
		switch f := v.(type) {
		case Flash:
			flashes = append(flashes, f)
		case string:
			flashes = append(flashes, Flash{Category: FlashInfo, Message: f})
		}
	}
	return flashes, session.Save()
}
