// Package api provides the HTTP server for newswire.
//
// It exposes read endpoints over the canonical article store, an
// aggregate summary endpoint, and the WebSocket subscriber stream fed
// by the ingestion loop.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/finwatch/newswire/internal/config"
	"github.com/finwatch/newswire/internal/store"
	"github.com/finwatch/newswire/pkg/models"
)

// NewsStore is the read surface the HTTP handlers need.
type NewsStore interface {
	FindRecent(ctx context.Context, limit int) ([]models.Article, error)
	FindByFilter(ctx context.Context, f store.Filter) ([]models.Article, int, error)
	Stats(ctx context.Context) (*models.Summary, error)
}

// Ingester runs one ingestion cycle and returns the newly seen
// articles.
type Ingester interface {
	Ingest(ctx context.Context, assets []models.Asset) ([]models.Article, error)
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	store  NewsStore
	engine Ingester
	hub    *Hub
}

// APIResponse is the uniform REST response wrapper.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewsPage is the payload for filtered article queries.
type NewsPage struct {
	Items      []models.Article `json:"items"`
	TotalCount int              `json:"totalCount"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// NewServer creates a configured API server with all routes and
// middleware.
func NewServer(cfg *config.Config, st NewsStore, engine Ingester) *Server {
	srv := &Server{
		cfg:    cfg,
		store:  st,
		engine: engine,
		hub:    NewHub(st),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the broadcast hub so the ingestion loop can publish.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe starts the HTTP server, the ingestion loop, and
// blocks until a termination signal, then shuts down gracefully.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go s.RunIngestLoop(loopCtx, s.cfg.Ingest.IntervalDuration())

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("newswire listening on %s", addr)
	<-done
	log.Println("Shutting down server...")

	stopLoop()
	s.hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// RunIngestLoop runs an immediate ingestion cycle, then one per tick
// until the context is cancelled. Cycles run inline on the loop
// goroutine, so ticks that fire while a cycle is still running are
// coalesced rather than overlapping it.
func (s *Server) RunIngestLoop(ctx context.Context, interval time.Duration) {
	s.runCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle performs one ingestion pass and publishes the outcome.
// The summary goes out only on cycles that produced new articles.
func (s *Server) runCycle(ctx context.Context) {
	started := time.Now()
	fresh, err := s.engine.Ingest(ctx, s.cfg.Watchlist)
	if err != nil {
		log.Printf("ingest cycle aborted: %v", err)
		return
	}
	log.Printf("ingest cycle: %d new articles in %s", len(fresh), time.Since(started).Round(time.Millisecond))
	if len(fresh) == 0 {
		return
	}

	s.hub.PublishArticles(fresh)

	summary, err := s.store.Stats(ctx)
	if err != nil {
		log.Printf("summary refresh failed: %v", err)
		return
	}
	s.hub.PublishSummary(*summary)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/news", s.handleNews)
		r.Get("/news/recent", s.handleRecentNews)
		r.Get("/summary", s.handleSummary)
	})

	r.Get("/ws", s.handleWebSocket)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"status":      "ok",
			"subscribers": s.hub.ConnectionCount(),
			"time":        time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := s.store.FindByFilter(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "news query failed")
		return
	}
	if items == nil {
		items = []models.Article{}
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: NewsPage{
			Items:      items,
			TotalCount: total,
			Limit:      f.Limit,
			Offset:     f.Offset,
		},
	})
}

func (s *Server) handleRecentNews(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > snapshotLimit {
		limit = snapshotLimit
	}

	items, err := s.store.FindRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "news query failed")
		return
	}
	if items == nil {
		items = []models.Article{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary query failed")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: summary})
}

// filterFromQuery parses the /news query parameters.
func filterFromQuery(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()
	f := store.Filter{
		Category:  q.Get("category"),
		Asset:     q.Get("asset"),
		Sentiment: q.Get("sentiment"),
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errInvalidParam("from")
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errInvalidParam("to")
		}
		f.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return f, errInvalidParam("limit")
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errInvalidParam("offset")
		}
		f.Offset = n
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	return f, nil
}

type paramError string

func errInvalidParam(name string) error { return paramError(name) }

func (e paramError) Error() string { return "invalid query parameter: " + string(e) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
