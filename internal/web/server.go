package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/mzhou/focusfield/internal/analyzer"
	"github.com/mzhou/focusfield/internal/storage"
)

//go:embed static/*
var staticFS embed.FS

// Server is the web server exposing the focus analyzer over HTTP
type Server struct {
	db   *storage.DB
	port int
}

// NewServer creates a new web server. db may be nil; the history endpoints
// then report an error and analyses are not recorded.
func NewServer(db *storage.DB, port int) *Server {
	return &Server{db: db, port: port}
}

// FocusData is the /api/focus response payload
type FocusData struct {
	Context *analyzer.FocusContext `json:"context"`
	Summary *analyzer.Summary      `json:"summary"`
}

// HistoryData is the /api/history response payload
type HistoryData struct {
	Analyses []*storage.Analysis `json:"analyses"`
}

// StatsData is the /api/stats response payload
type StatsData struct {
	AnalysisCount int64 `json:"analysisCount"`
	RelationCount int64 `json:"relationCount"`
}

// Run starts the web server
func (s *Server) Run() error {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/focus", s.handleFocus)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/stats", s.handleStats)

	// Static files
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to get static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticContent)))

	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("🔍 Focus field UI: http://localhost%s", addr)
	return http.ListenAndServe(addr, mux)
}

// handleFocus analyzes the file named in the query at the given cursor
// position and returns the focus context plus its summary
func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		http.Error(w, "missing file parameter", http.StatusBadRequest)
		return
	}

	line, err := strconv.Atoi(r.URL.Query().Get("line"))
	if err != nil || line < 1 {
		http.Error(w, "line must be a positive number", http.StatusBadRequest)
		return
	}
	column, err := strconv.Atoi(r.URL.Query().Get("column"))
	if err != nil || column < 1 {
		http.Error(w, "column must be a positive number", http.StatusBadRequest)
		return
	}

	data, err := os.ReadFile(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusNotFound)
		return
	}

	ctx := analyzer.CreateFocusField(string(data), file, line, column)
	if ctx == nil {
		http.Error(w, "no entity at this position", http.StatusNotFound)
		return
	}

	if s.db != nil {
		if _, err := s.db.RecordAnalysis(ctx, line, column); err != nil {
			log.Printf("failed to record analysis: %v", err)
		}
	}

	writeJSON(w, FocusData{Context: ctx, Summary: analyzer.Summarize(ctx)})
}

// handleHistory returns recent analyses, optionally filtered by file pattern
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var analyses []*storage.Analysis
	var err error
	if pattern := r.URL.Query().Get("file"); pattern != "" {
		analyses, err = s.db.FindAnalysesByFile(pattern, limit)
	} else {
		analyses, err = s.db.GetRecentAnalyses(limit)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, HistoryData{Analyses: analyses})
}

// handleStats returns history counters
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, StatsData{})
		return
	}

	analyses, relations, err := s.db.GetStats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, StatsData{AnalysisCount: analyses, RelationCount: relations})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
