// Package api exposes the operational HTTP surface: health, record listing,
// aggregate stats, CSV export, and pre-call analysis.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/payerline/postcall/internal/analyzer"
	"github.com/payerline/postcall/internal/record"
	"github.com/payerline/postcall/internal/storage"
)

type Server struct {
	router   *chi.Mux
	port     int
	store    *storage.Store
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
}

func NewServer(port int, store *storage.Store, an *analyzer.Analyzer, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		store:    store,
		analyzer: an,
		logger:   logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/records", s.listRecords)
		r.Get("/records/stats", s.recordStats)
		r.Get("/records/export", s.exportRecords)
		r.Post("/analyze", s.analyze)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func filterFromQuery(r *http.Request) storage.ListFilter {
	q := r.URL.Query()
	f := storage.ListFilter{}
	if v := q.Get("status"); v != "" {
		f.Status = record.ParseStatus(v)
	}
	if v := q.Get("outcome"); v != "" {
		f.Outcome = record.ParseOutcome(v)
	}
	if v := q.Get("from"); v != "" {
		f.From = record.ParseDate(v)
	}
	if v := q.Get("to"); v != "" {
		f.To = record.ParseDate(v)
	}
	return f
}

// listRecords handles GET /api/v1/records, returning the filtered records
// most recent first.
func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	paths, err := s.store.List(filterFromQuery(r))
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"list failed: %v"}`, err), http.StatusInternalServerError)
		return
	}

	records := make([]*record.Record, 0, len(paths))
	for _, path := range paths {
		rec, err := s.store.Load(path)
		if err != nil {
			s.logger.Error("failed to load record for listing", "path", path, "error", err)
			continue
		}
		records = append(records, rec)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// recordStats handles GET /api/v1/records/stats.
func (s *Server) recordStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Aggregate()
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"stats failed: %v"}`, err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// exportRecords handles GET /api/v1/records/export, streaming the filtered
// records as CSV.
func (s *Server) exportRecords(w http.ResponseWriter, r *http.Request) {
	paths, err := s.store.List(filterFromQuery(r))
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"list failed: %v"}`, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="prior_auth_records.csv"`)
	if err := s.store.ExportCSV(w, paths); err != nil {
		s.logger.Error("csv export failed", "error", err)
	}
}

// analyze handles POST /api/v1/analyze, producing a pre-call briefing for a
// prior authorization request.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzer.PriorAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"invalid JSON: %v"}`, err), http.StatusBadRequest)
		return
	}

	analysis, err := s.analyzer.AnalyzePriorAuth(req)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":"%v"}`, err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis)
}
