package files

import (
	"mime"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/secrets-portal/internal/logging"
)

// Handler は Asset をインライン表示で返すハンドラーを返します。
// 認証チェックは行わないため、ルート登録側でガードを挟んでください。
func Handler(asset *Asset, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := stream(c, asset); err != nil {
			logger.Error(c.Request.Context(), "failed to stream download", "path", asset.Path, "error", err)
			c.String(http.StatusInternalServerError, "ファイルの読み込みに失敗しました")
		}
	}
}

func stream(c *gin.Context, asset *Asset) error {
	file, err := os.Open(asset.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	// 起動後に差し替えられた場合もサイズは実ファイルに合わせる
	info, err := file.Stat()
	if err != nil {
		return err
	}

	disposition := mime.FormatMediaType("inline", map[string]string{"filename": asset.Filename})
	if disposition == "" {
		disposition = "inline"
	}
	c.Header("Content-Disposition", disposition)
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, info.Size(), asset.ContentType, file, nil)
	return nil
}
