// Package web renders the HTML views of the design front-end.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"slices"

	"github.com/kiranshivaraju/autodesign/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	FormView     = "form.html"
	ProgressView = "progress.html"
	ResultView   = "result.html"
)

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"contains":   slices.Contains[[]string, string],
		"prettyJSON": prettyJSON,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template into a buffer and writes it with the
// given status. Nothing is written if execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Notice is shown after a job was accepted so the user can keep the id.
type Notice struct {
	RequestID   string
	ProgressURL string
}

type FormData struct {
	Catalog      models.Catalog
	Selection    models.Selection
	MinRoomSize  int
	MaxRoomSize  int
	RoomSizeStep int
	// Error is a validation or submission failure shown above the form.
	Error  string
	Notice *Notice
}

// NewFormData fills the room size bounds from the models package.
func NewFormData(c models.Catalog, sel models.Selection) FormData {
	return FormData{
		Catalog:      c,
		Selection:    sel,
		MinRoomSize:  models.MinRoomSize,
		MaxRoomSize:  models.MaxRoomSize,
		RoomSizeStep: models.RoomSizeStep,
	}
}

type ProgressData struct {
	RequestID   string
	ProgressURL string
	CodeMajor   string
	Polls       int
	// RefreshSeconds of zero disables the automatic reload.
	RefreshSeconds int
	Error          string
}

type ResultData struct {
	RequestID string
	CodeMajor string
	Succeeded bool
	// Payload is the nested result on success and the full status body
	// otherwise.
	Payload []byte
}

func prettyJSON(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}
