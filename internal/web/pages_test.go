package web

import (
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parsePage(t *testing.T, c *console, path string) *goquery.Document {
	t.Helper()

	rec := c.get(t, path)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want 200: %s", path, rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("GET %s Content-Type = %q, want text/html", path, ct)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("GET %s Cache-Control = %q, want no-store", path, cc)
	}

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return doc
}

func rowCells(row *goquery.Selection) []string {
	var cells []string
	row.Find("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(td.Text()))
	})
	return cells
}

func assertTableRows(t *testing.T, doc *goquery.Document, selector string, want [][]string) {
	t.Helper()

	rows := doc.Find(selector + " tbody tr")
	if rows.Length() != len(want) {
		t.Fatalf("%s has %d rows, want %d", selector, rows.Length(), len(want))
	}
	for i, wantRow := range want {
		got := rowCells(rows.Eq(i))
		if !slices.Equal(got, wantRow) {
			t.Errorf("%s row %d = %v, want %v", selector, i, got, wantRow)
		}
	}
}

func TestDashboardPageRendersSeededTrips(t *testing.T) {
	t.Parallel()
	c := newConsole(t)

	doc := parsePage(t, c, "/dashboard")

	if page, _ := doc.Find("body").Attr("data-page"); page != "busDashboard" {
		t.Errorf("data-page = %q, want busDashboard", page)
	}

	assertTableRows(t, doc, "#trips", [][]string{
		{"Bulk - 00:01", "Path-1 - 08:30", "00:01 IN", "25%"},
		{"Bulk - 00:02", "Path-1 - 08:30", "00:02 IN", "0%"},
		{"Path Path - 00:02", "Path-2 - 19:45", "00:02 OUT", "10%"},
	})

	assertTableRows(t, doc, "#deployments", [][]string{
		{"Bulk - 00:01", "KA-01-1111", "Amit"},
		{"Bulk - 00:02", "—", "—"},
		{"Path Path - 00:02", "MH-12-3456", "Rahul"},
	})
}

func TestRoutesPageRendersSeededRoutes(t *testing.T) {
	t.Parallel()
	c := newConsole(t)

	doc := parsePage(t, c, "/routes")

	if page, _ := doc.Find("body").Attr("data-page"); page != "manageRoute" {
		t.Errorf("data-page = %q, want manageRoute", page)
	}

	assertTableRows(t, doc, "#routes", [][]string{
		{"Path-1 - 08:30", "Path-1", "08:30", "IN", "Gavipuram", "Peenya", "active"},
		{"Path-1 - 19:45", "Path-1", "19:45", "OUT", "Gavipuram", "Peenya", "active"},
		{"Path-2 - 19:45", "Path-2", "19:45", "IN", "Peenya", "Tech Park", "active"},
	})
}

func TestPagesCarryChatPanel(t *testing.T) {
	t.Parallel()
	c := newConsole(t)

	for _, path := range []string{"/dashboard", "/routes"} {
		doc := parsePage(t, c, path)

		if doc.Find("#chat-panel").Length() != 1 {
			t.Errorf("%s: missing chat panel", path)
		}
		if doc.Find("#chat-form #chat-input").Length() != 1 {
			t.Errorf("%s: missing chat input", path)
		}
		if doc.Find("#chat-speak").Length() != 1 {
			t.Errorf("%s: missing speak toggle", path)
		}
		if _, hidden := doc.Find("#chat-confirm").Attr("hidden"); !hidden {
			t.Errorf("%s: confirmation box must start hidden", path)
		}
		if doc.Find(`script[src="/static/js/chat.js"]`).Length() != 1 {
			t.Errorf("%s: chat script not referenced", path)
		}
	}
}

func TestPagesRenderEmptyState(t *testing.T) {
	t.Parallel()
	c := newConsoleWith(t, false)

	doc := parsePage(t, c, "/dashboard")
	if doc.Find("#trips").Length() != 0 {
		t.Error("unseeded dashboard should not render the trips table")
	}
	if text := doc.Find(".empty").Text(); !strings.Contains(text, "No trips found") {
		t.Errorf("empty text = %q, want no-trips notice", text)
	}

	doc = parsePage(t, c, "/routes")
	if text := doc.Find(".empty").Text(); !strings.Contains(text, "No routes found") {
		t.Errorf("empty text = %q, want no-routes notice", text)
	}
}

func TestPageReportsDatabaseFailure(t *testing.T) {
	t.Parallel()
	c := newConsole(t)

	if err := c.conn.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	rec := c.get(t, "/dashboard")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
