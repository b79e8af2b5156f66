package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/vincentbai/browsetrace-dashboard/internal/models"
	"github.com/vincentbai/browsetrace-dashboard/internal/stats"
)

//go:embed web/templates/*.html
var templateFS embed.FS

//go:embed web/static
var staticFS embed.FS

func parseTemplates() (*template.Template, error) {
	t, err := template.ParseFS(templateFS, "web/templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "web/static")
	if err != nil {
		panic(err) // embedded path is fixed at build time
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

type chartPanel struct {
	ID  string
	SVG template.HTML
}

type dashboardPage struct {
	Charts      []chartPanel
	Data        template.JS
	Links       []models.Link
	RecordCount int
}

// mapData is read by statistics.js to draw the Leaflet map.
type mapData struct {
	Map     *stats.MapConfig `json:"map"`
	Markers []stats.Marker   `json:"markers"`
}

func newDashboardPage(view *stats.SVGView, records []models.UserRecord, registered []models.Link) (dashboardPage, error) {
	data, err := json.Marshal(mapData{Map: view.MapConfig(), Markers: view.Markers()})
	if err != nil {
		return dashboardPage{}, err
	}
	page := dashboardPage{
		Data:        template.JS(data),
		Links:       registered,
		RecordCount: len(records),
	}
	for _, id := range stats.Elements()[1:] {
		// labels are escaped by the view before they reach go-chart
		page.Charts = append(page.Charts, chartPanel{ID: id, SVG: template.HTML(view.SVG(id))})
	}
	return page, nil
}

type loginPage struct {
	Error string
}

func (s *Server) renderLogin(w http.ResponseWriter, code int, message string) {
	s.render(w, code, "login.html", loginPage{Error: message})
}

func (s *Server) render(w http.ResponseWriter, code int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	buf.WriteTo(w)
}
