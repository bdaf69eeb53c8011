// Package server serves the local web UI and JSON API over the archive.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/TrendCrawler/internal/config"
	"github.com/TobiSchelling/TrendCrawler/internal/database"
	"github.com/TobiSchelling/TrendCrawler/internal/pipeline"
	"github.com/TobiSchelling/TrendCrawler/internal/trending"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for serving briefings.
type Server struct {
	cfg   *config.Config
	db    *database.DB
	pages map[string]*template.Template
	mux   *http.ServeMux
	now   func() time.Time
}

// New creates a new Server.
func New(cfg *config.Config, db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":  renderMarkdown,
		"formatDay": database.FormatDayDisplay,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base so their blocks do not collide.
	pageNames := []string{"index.html", "briefing.html", "watchlist.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{cfg: cfg, db: db, pages: pages, mux: http.NewServeMux(), now: time.Now}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/briefing/", s.handleBriefing)
	s.mux.HandleFunc("/watchlist", s.handleWatchlist)
	s.mux.HandleFunc("/watchlist/add", s.handleAddWatchTerm)
	s.mux.HandleFunc("/watchlist/", s.handleWatchTermAction)
	s.mux.HandleFunc("/api/briefing/", s.handleAPIBriefing)
	s.mux.HandleFunc("/api/context", s.handleAPIContext)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	briefings, err := s.db.GetAllBriefings()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Briefings": briefings,
	})
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	day := strings.TrimPrefix(r.URL.Path, "/briefing/")
	if day == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	briefing, _ := s.db.GetBriefing(day)
	digests, _ := s.db.GetDigestsForDay(day)

	s.render(w, "briefing.html", map[string]any{
		"Briefing": briefing,
		"Digests":  digests,
		"Day":      day,
	})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	terms, _ := s.db.GetAllWatchTerms()
	s.render(w, "watchlist.html", map[string]any{
		"Terms": terms,
	})
}

func (s *Server) handleAddWatchTerm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/watchlist", http.StatusFound)
		return
	}

	term := strings.TrimSpace(r.FormValue("term"))
	description := strings.TrimSpace(r.FormValue("description"))
	if term != "" {
		if _, err := s.db.InsertWatchTerm(term, description); err != nil {
			log.Printf("Error adding watch term %q: %v", term, err)
		}
	}

	http.Redirect(w, r, "/watchlist", http.StatusFound)
}

func (s *Server) handleWatchTermAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/watchlist", http.StatusFound)
		return
	}

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/watchlist/"), "/", 2)
	if len(parts) != 2 {
		http.Redirect(w, r, "/watchlist", http.StatusFound)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Redirect(w, r, "/watchlist", http.StatusFound)
		return
	}

	switch parts[1] {
	case "toggle":
		err = s.db.ToggleWatchTerm(id)
	case "delete":
		err = s.db.DeleteWatchTerm(id)
	}
	if err != nil {
		log.Printf("Error updating watch term %d: %v", id, err)
	}

	http.Redirect(w, r, "/watchlist", http.StatusFound)
}

type briefingResponse struct {
	Day               string                   `json:"date"`
	GeneratedAt       string                   `json:"generated_at,omitempty"`
	TotalScanned      int                      `json:"total_articles_scanned"`
	DuplicatesRemoved int                      `json:"duplicates_removed"`
	ArticleCount      int                      `json:"article_count"`
	Fallback          bool                     `json:"fallback"`
	Topics            []trending.TrendingTopic `json:"trending_stories"`
	Digests           []digestResponse         `json:"digests"`
}

type digestResponse struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Server) handleAPIBriefing(w http.ResponseWriter, r *http.Request) {
	day := strings.TrimPrefix(r.URL.Path, "/api/briefing/")
	if _, err := database.ParseDay(day); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "day must be YYYY-MM-DD"})
		return
	}

	briefing, err := s.db.GetBriefing(day)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if briefing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no briefing for " + day})
		return
	}
	digests, err := s.db.GetDigestsForDay(day)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	resp := briefingResponse{
		Day:               briefing.Day,
		TotalScanned:      briefing.TotalScanned,
		DuplicatesRemoved: briefing.DuplicatesRemoved,
		ArticleCount:      briefing.ArticleCount,
		Fallback:          briefing.Fallback,
		Topics:            briefing.Topics,
		Digests:           []digestResponse{},
	}
	if briefing.GeneratedAt != nil {
		resp.GeneratedAt = *briefing.GeneratedAt
	}
	if resp.Topics == nil {
		resp.Topics = []trending.TrendingTopic{}
	}
	for _, d := range digests {
		resp.Digests = append(resp.Digests, digestResponse{Slug: d.Slug, Title: d.Title, Body: d.BodyMarkdown})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIContext(w http.ResponseWriter, r *http.Request) {
	tctx, err := pipeline.LoadContext(s.cfg, s.db, s.now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, tctx.Render())
		return
	}
	writeJSON(w, http.StatusOK, tctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(cfg *config.Config, db *database.DB, port int) error {
	srv, err := New(cfg, db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
