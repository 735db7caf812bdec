// Package httpapi serves backtest runs and the trade journal as a read-only
// JSON API.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gapfade/internal/journal"
	"gapfade/internal/store"
	"gapfade/internal/util"
)

// Server serves stored backtest runs and journal statistics.
type Server struct {
	results store.ResultStore
	ledger  *journal.Ledger
	log     *slog.Logger
}

// NewServer creates a Server over the given result store and ledger. Either
// may be nil; the corresponding endpoints then report 503.
func NewServer(results store.ResultStore, ledger *journal.Ledger) *Server {
	return &Server{
		results: results,
		ledger:  ledger,
		log:     slog.Default().With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/journal/summary", s.handleJournalSummary)
	mux.HandleFunc("GET /api/journal/trades", s.handleJournalTrades)
	mux.HandleFunc("GET /api/journal/daily", s.handleJournalDaily)
	mux.HandleFunc("GET /api/journal/stats/weekly", s.handleWeeklyStats)
	mux.HandleFunc("GET /api/journal/stats/monthly", s.handleMonthlyStats)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result store not configured")
		return
	}

	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.results.ListRuns(r.Context(), limit)
	if err != nil {
		s.log.Error("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, RunsResponse{Runs: runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusServiceUnavailable, "result store not configured")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "run id must be an integer")
		return
	}

	run, err := s.results.GetRun(r.Context(), id)
	if err != nil {
		s.log.Error("loading run", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("run %d not found", id))
		return
	}
	writeJSON(w, run)
}

func (s *Server) handleJournalSummary(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "journal not configured")
		return
	}
	writeJSON(w, s.ledger.Summarize())
}

func (s *Server) handleJournalTrades(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "journal not configured")
		return
	}
	trades := s.ledger.Trades()
	if trades == nil {
		trades = []journal.Trade{}
	}
	writeJSON(w, TradesResponse{Trades: trades})
}

func (s *Server) handleJournalDaily(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "journal not configured")
		return
	}
	daily := s.ledger.LatestDailyPnL()
	if daily == nil {
		writeError(w, http.StatusNotFound, "no trades in the journal")
		return
	}
	writeJSON(w, daily)
}

func (s *Server) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	s.handlePeriodStats(w, r, func(date string) *journal.PeriodStats {
		return s.ledger.WeeklyStats(date)
	})
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	s.handlePeriodStats(w, r, func(date string) *journal.PeriodStats {
		return s.ledger.MonthlyStats(date)
	})
}

func (s *Server) handlePeriodStats(w http.ResponseWriter, r *http.Request, compute func(string) *journal.PeriodStats) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "journal not configured")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().In(util.ETLocation()).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	stats := compute(date)
	if stats == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no trades around %s", date))
		return
	}
	writeJSON(w, stats)
}
