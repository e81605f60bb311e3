package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/movitransit/movi/internal/log"
	"github.com/movitransit/movi/internal/transit"
)

//go:embed template/*.html
var templateFS embed.FS

// pages renders the two admin pages from the same store queries the
// JSON API serves, so the tables and the assistant always agree.
type pages struct {
	logger log.Logger
	store  *transit.Store
	tmpl   *template.Template
}

func newPages(logger log.Logger, store *transit.Store) (*pages, error) {
	tmpl, err := template.New("console").Funcs(template.FuncMap{
		"orDash": orDash,
		"pct":    formatPct,
	}).ParseFS(templateFS, "template/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse console templates: %w", err)
	}
	return &pages{logger: logger, store: store, tmpl: tmpl}, nil
}

type dashboardData struct {
	Page  string
	Trips []transit.DashboardRow
}

func (p *pages) dashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := p.store.Dashboard(r.Context())
	if err != nil {
		p.logger.Error("load dashboard page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	p.render(w, "busDashboard.html", dashboardData{Page: "busDashboard", Trips: rows})
}

type routesData struct {
	Page   string
	Routes []transit.RouteOverviewRow
}

func (p *pages) routes(w http.ResponseWriter, r *http.Request) {
	rows, err := p.store.RoutesOverview(r.Context())
	if err != nil {
		p.logger.Error("load routes page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	p.render(w, "manageRoute.html", routesData{Page: "manageRoute", Routes: rows})
}

// render executes into a buffer first so a template fault becomes a
// clean 500 instead of a torn page. Pages must reflect chat-driven
// writes immediately, so caching is disabled.
func (p *pages) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		p.logger.Error("render page", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// orDash fills unassigned cells the way the original console does.
func orDash(s *string) string {
	if s == nil || *s == "" {
		return "—"
	}
	return *s
}

// formatPct renders booking percentages without trailing zeros, so the
// table shows "25" and "7.5" rather than "25.000000".
func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
