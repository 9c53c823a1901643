package site

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates は埋め込みテンプレートを読み込みます。gin.Engine.SetHTMLTemplate に渡してください。
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
