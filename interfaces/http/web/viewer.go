// Package web serves the browser viewer: a single page that drives the API
// and renders the working graph in 2D or 3D.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/viewer.html
var templates embed.FS

var viewerTemplate = template.Must(template.ParseFS(templates, "templates/viewer.html"))

// ViewerData is rendered into the page
type ViewerData struct {
	Title       string
	APIBase     string
	DefaultView string
	AuthEnabled bool
}

// Viewer renders the viewer page
type Viewer struct {
	data   ViewerData
	logger *zap.Logger
}

// NewViewer creates the viewer handler. An empty view defaults to "2d".
func NewViewer(data ViewerData, logger *zap.Logger) *Viewer {
	if data.Title == "" {
		data.Title = "topicgraph"
	}
	if data.DefaultView != "3d" {
		data.DefaultView = "2d"
	}
	return &Viewer{data: data, logger: logger}
}

// ServeHTTP renders the page
func (v *Viewer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := viewerTemplate.Execute(&buf, v.data); err != nil {
		v.logger.Error("Failed to render viewer", zap.Error(err))
		http.Error(w, "failed to render viewer", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}
