// Package files は /download で配信する固定ファイルを扱います。
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

const contentTypePDF = "application/pdf"

// ErrNotRegularFile はディレクトリなど通常ファイル以外が指定された場合のエラーです。
var ErrNotRegularFile = errors.New("download path is not a regular file")

// Asset は起動時に検査済みの配信ファイルです。
type Asset struct {
	Path        string
	Filename    string
	ContentType string
	Size        int64
	Pages       int // PDF の場合のみ
}

// LoadAsset はファイルを検査して Asset を返します。
// PDF と判定されたファイルは pdfcpu で構造を検証し、ページ数を取得します。
func LoadAsset(path string) (*Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("配信ファイルが見つかりません: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("配信ファイルの判定に失敗しました: %w", err)
	}

	asset := &Asset{
		Path:        path,
		Filename:    filepath.Base(path),
		ContentType: mt.String(),
		Size:        info.Size(),
	}

	if mt.Is(contentTypePDF) {
		asset.ContentType = contentTypePDF
		if err := pdfapi.ValidateFile(path, nil); err != nil {
			return nil, fmt.Errorf("PDFの検証に失敗しました: %w", err)
		}
		pages, err := pdfapi.PageCountFile(path)
		if err != nil {
			return nil, fmt.Errorf("ページ数の取得に失敗しました: %w", err)
		}
		asset.Pages = pages
	}

	return asset, nil
}

// IsPDF は PDF として検証済みかどうかを返します。
func (a *Asset) IsPDF() bool {
	return a.ContentType == contentTypePDF
}
