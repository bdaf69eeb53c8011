package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/TrendCrawler/internal/article"
	"github.com/TobiSchelling/TrendCrawler/internal/config"
	"github.com/TobiSchelling/TrendCrawler/internal/database"
	"github.com/TobiSchelling/TrendCrawler/internal/trending"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServer(t *testing.T, db *database.DB) *Server {
	t.Helper()
	srv, err := New(config.Default(), db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func post(srv *Server, path, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func seedBriefing(t *testing.T, db *database.DB) {
	t.Helper()
	_, err := db.SaveBriefing(database.Briefing{
		Day:               "2026-02-06",
		TotalScanned:      30,
		DuplicatesRemoved: 4,
		ArticleCount:      26,
		Topics: []trending.TrendingTopic{{
			Keyword:       "oil prices",
			SourceCount:   4,
			CombinedScore: 3.5,
			Articles: []article.Article{
				{Source: "BBC World", Title: "Oil prices climb", Link: "https://bbc.example/oil"},
			},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveDigest(database.Digest{
		Day: "2026-02-06", Slug: "oil-markets", Title: "Oil Markets React", BodyMarkdown: "## Overview\n\nPrices **climbed**.",
	}); err != nil {
		t.Fatal(err)
	}
}

func TestIndexRoute(t *testing.T) {
	db := openTestDB(t)
	seedBriefing(t, db)
	srv := newTestServer(t, db)

	rec := get(srv, "/")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Briefings") || !strings.Contains(body, "/briefing/2026-02-06") {
		t.Errorf("expected briefing link in response:\n%s", body)
	}
	if !strings.Contains(body, "1 topics from 26 articles") {
		t.Error("expected briefing counts in index")
	}

	if rec := get(srv, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestBriefingRoute(t *testing.T) {
	db := openTestDB(t)
	seedBriefing(t, db)
	srv := newTestServer(t, db)

	rec := get(srv, "/briefing/2026-02-06")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Feb 06, 2026", "oil prices", "4 sources", `href="https://bbc.example/oil"`, "Oil Markets React", "<strong>climbed</strong>"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in response", want)
		}
	}

	empty := get(srv, "/briefing/2026-01-01")
	if !strings.Contains(empty.Body.String(), "No briefing for this day.") {
		t.Error("expected empty state for missing briefing")
	}

	if rec := get(srv, "/briefing/"); rec.Code != http.StatusFound {
		t.Errorf("expected redirect, got %d", rec.Code)
	}
}

func TestAPIBriefing(t *testing.T) {
	db := openTestDB(t)
	seedBriefing(t, db)
	srv := newTestServer(t, db)

	rec := get(srv, "/api/briefing/2026-02-06")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	var resp struct {
		Date    string                   `json:"date"`
		Total   int                      `json:"total_articles_scanned"`
		Topics  []trending.TrendingTopic `json:"trending_stories"`
		Digests []struct {
			Slug string `json:"slug"`
		} `json:"digests"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Date != "2026-02-06" || resp.Total != 30 || len(resp.Topics) != 1 || len(resp.Digests) != 1 {
		t.Errorf("unexpected response %+v", resp)
	}

	if rec := get(srv, "/api/briefing/2026-01-01"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := get(srv, "/api/briefing/yesterday"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAPIContext(t *testing.T) {
	db := openTestDB(t)
	db.ReplaceDay("2026-02-05", []article.Article{
		{Source: "TASS", Title: "First"}, {Source: "RT", Title: "Second"},
	})
	srv := newTestServer(t, db)
	srv.now = func() time.Time { return time.Date(2026, 2, 6, 12, 0, 0, 0, time.Local) }

	rec := get(srv, "/api/context")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Buckets []json.RawMessage `json:"buckets"`
		Summary struct {
			Days          int `json:"days"`
			TotalArticles int `json:"total_articles"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Buckets) != 5 || resp.Summary.Days != 1 || resp.Summary.TotalArticles != 2 {
		t.Errorf("unexpected context %s", rec.Body.String())
	}

	text := get(srv, "/api/context?format=text")
	if !strings.Contains(text.Body.String(), "- [TASS] First") {
		t.Errorf("expected rendered headlines, got:\n%s", text.Body.String())
	}
}

func TestWatchlistRoutes(t *testing.T) {
	db := openTestDB(t)
	srv := newTestServer(t, db)

	if rec := post(srv, "/watchlist/add", "term=arctic+shipping&description=northern+route"); rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	terms, _ := db.GetAllWatchTerms()
	if len(terms) != 1 || terms[0].Term != "arctic shipping" || !terms[0].IsActive {
		t.Fatalf("unexpected terms %+v", terms)
	}

	page := get(srv, "/watchlist")
	if !strings.Contains(page.Body.String(), "arctic shipping") {
		t.Error("expected term in watchlist page")
	}

	post(srv, fmt.Sprintf("/watchlist/%d/toggle", terms[0].ID), "")
	active, _ := db.GetActiveWatchTerms()
	if len(active) != 0 {
		t.Error("expected term to be paused")
	}

	post(srv, fmt.Sprintf("/watchlist/%d/delete", terms[0].ID), "")
	terms, _ = db.GetAllWatchTerms()
	if len(terms) != 0 {
		t.Error("expected term to be deleted")
	}

	if rec := get(srv, "/watchlist/add"); rec.Code != http.StatusFound {
		t.Errorf("expected redirect for GET add, got %d", rec.Code)
	}
}

func TestStaticRoute(t *testing.T) {
	srv := newTestServer(t, openTestDB(t))

	rec := get(srv, "/static/style.css")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "font-sans") {
		t.Error("expected CSS content")
	}
}
