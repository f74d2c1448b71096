// Package server provides the HTTP server and handlers.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/bryan-buckman/bookserver/internal/catalog"
	"github.com/bryan-buckman/bookserver/internal/database"
	"github.com/bryan-buckman/bookserver/internal/ingest"
	"github.com/bryan-buckman/bookserver/internal/model"
	"github.com/bryan-buckman/bookserver/internal/opensearch"
	"github.com/bryan-buckman/bookserver/internal/output"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed static/*
var staticFS embed.FS

// Catalog paths.
const (
	AtomPath       = "/catalog/"
	HTMLPath       = "/catalog/index.html"
	JSONPath       = "/catalog/index.json"
	OpenSearchPath = "/opensearch.xml"
)

// Config holds the catalog identity and paging served by the server.
type Config struct {
	Pub      model.PubInfo
	Title    string
	PageSize int
	// BaseURL is prepended to the templates of the search description.
	BaseURL string
	// Poll enables background harvesting of sources.
	Poll bool
}

// Server is the main HTTP server.
type Server struct {
	db        database.Store
	cfg       Config
	harvester *ingest.Harvester
	poller    *ingest.Poller
	router    chi.Router
	http      *http.Server
}

// New creates a new server.
func New(db database.Store, cfg Config) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	s := &Server{
		db:        db,
		cfg:       cfg,
		harvester: ingest.NewHarvester(db),
		poller:    ingest.NewPoller(db),
	}
	s.setupRoutes()
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Serve static files.
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Catalog.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, HTMLPath, http.StatusFound)
	})
	r.Get(AtomPath, s.handleCatalog(output.FormatAtom, AtomPath))
	r.Get(HTMLPath, s.handleCatalog(output.FormatHTML, HTMLPath))
	r.Get(JSONPath, s.handleCatalog(output.FormatJSON, JSONPath))
	r.Get(OpenSearchPath, s.handleOpenSearch)

	// API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/sources", s.handleGetSources)
		r.Post("/sources", s.handleAddSource)
		r.Delete("/sources/{sourceID}", s.handleDeleteSource)
		r.Post("/harvest", s.handleHarvest)
		r.Post("/settings", s.handleSaveSettings)
		r.Get("/settings", s.handleGetSettings)
	})

	s.router = r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the poller and serves until Stop is called.
func (s *Server) Start(addr string) error {
	if s.cfg.Poll {
		s.poller.Start()
	}
	s.http.Addr = addr
	log.Printf("Server starting on %s (%s)", addr, s.db.DatabaseType())
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down the listener and the poller.
func (s *Server) Stop(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.cfg.Poll {
		s.poller.Stop()
	}
	return err
}

// --- Catalog Handlers ---

func (s *Server) handleCatalog(format, path string) http.HandlerFunc {
	renderer, err := output.ForFormat(format)
	if err != nil {
		panic(err)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		start := 0
		if v := r.URL.Query().Get("start"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "Invalid start", http.StatusBadRequest)
				return
			}
			start = n
		}

		title := s.cfg.Title
		if query != "" {
			title = fmt.Sprintf("Search results for %q", query)
		}
		c, err := ingest.IndexCatalog(s.db, s.cfg.Pub, ingest.Page{
			Title:         title,
			Query:         query,
			Start:         start,
			Rows:          s.cfg.PageSize,
			NavBase:       navBase(path, query),
			OpenSearchURL: OpenSearchPath,
		})
		if err != nil {
			writeCatalogError(w, err)
			return
		}

		doc, err := renderer.Render(c)
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		w.Header().Set("Content-Type", doc.ContentType())
		w.Write(doc.Bytes())
	}
}

// navBase returns the link prefix that an offset completes.
func navBase(path, query string) string {
	if query == "" {
		return path + "?start="
	}
	return path + "?q=" + url.QueryEscape(query) + "&start="
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidNavigation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Catalog error: %v", err)
		http.Error(w, "Render error", http.StatusInternalServerError)
	}
}

func (s *Server) handleOpenSearch(w http.ResponseWriter, r *http.Request) {
	params := "?q={searchTerms}&start={startIndex?}"
	d := opensearch.New(s.cfg.Title, "Search "+s.cfg.Title, map[string]string{
		output.AtomType:    s.cfg.BaseURL + AtomPath + params,
		"text/html":        s.cfg.BaseURL + HTMLPath + params,
		"application/json": s.cfg.BaseURL + JSONPath + params,
	})
	data, err := d.Marshal()
	if err != nil {
		http.Error(w, "Failed to encode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", opensearch.ContentType)
	w.Write(data)
}

// --- API Handlers ---

func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetSources()
	if err != nil {
		http.Error(w, "Failed to get sources", http.StatusInternalServerError)
		return
	}
	if sources == nil {
		sources = []model.Source{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		http.Error(w, "Invalid source URL", http.StatusBadRequest)
		return
	}
	// Untitled sources take the feed's title on first harvest.
	if req.Title == "" {
		req.Title = req.URL
	}
	id, isNew, err := s.db.GetOrCreateSource(req.Title, req.URL)
	if err != nil {
		log.Printf("Error creating source %s: %v", req.URL, err)
		http.Error(w, "Failed to save", http.StatusInternalServerError)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{"status": "ok", "id": id, "created": isNew})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sourceID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid source", http.StatusBadRequest)
		return
	}
	if err := s.db.DeleteSource(id); err != nil {
		http.Error(w, "Failed to delete", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHarvest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	results, err := s.harvester.HarvestAll(ctx)
	if err != nil {
		http.Error(w, fmt.Sprintf("Harvest error: %v", err), http.StatusInternalServerError)
		return
	}

	total := 0
	for _, c := range results {
		total += c
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"new_items": total,
		"sources":   len(results),
	})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PollingInterval int `json:"polling_interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	// Enforce minimum.
	if req.PollingInterval < ingest.MinPollingIntervalMinutes {
		req.PollingInterval = ingest.MinPollingIntervalMinutes
	}
	if err := s.db.SetSetting(model.SettingPollingInterval, strconv.Itoa(req.PollingInterval)); err != nil {
		http.Error(w, "Failed to save", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "polling_interval": req.PollingInterval})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	interval, _ := s.db.GetPollingInterval()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"polling_interval": interval,
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Encode error: %v", err)
	}
}
