package render

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var (
	pageTemplates *template.Template
	templatesOnce sync.Once
	templatesErr  error
)

func loadTemplates() (*template.Template, error) {
	templatesOnce.Do(func() {
		funcMap := template.FuncMap{
			"percent": func(v int) string { return percentWidth(v) },
		}
		tmpl := template.New("render").Funcs(funcMap)
		pageTemplates, templatesErr = tmpl.ParseFS(templateFS, "templates/*.html")
	})
	return pageTemplates, templatesErr
}

func executeTemplate(w io.Writer, name string, data any) error {
	tmpl, err := loadTemplates()
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, name, data)
}

func executeTemplateString(name string, data any) (string, error) {
	var builder strings.Builder
	if err := executeTemplate(&builder, name, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(builder.String()), nil
}

// StaticFS exposes the stylesheet and other page assets rooted at "static".
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
