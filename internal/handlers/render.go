package handlers

import (
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

// TemplateRenderer implements echo.Renderer over html/template.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses every template matching glob.
func NewTemplateRenderer(glob string) (*TemplateRenderer, error) {
	tpl, err := template.ParseGlob(glob)
	if err != nil {
		return nil, err
	}
	return &TemplateRenderer{templates: tpl}, nil
}

// Render executes the named template into w.
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}
