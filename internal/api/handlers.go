package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"MarketLens/internal/chart"
	"MarketLens/internal/collector"
	"MarketLens/internal/model"
	"MarketLens/internal/notifier"
	"MarketLens/internal/recorder"
	"MarketLens/internal/watchlist"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"watchlist": len(s.deps.Watchlist.List()),
		"timestamp": time.Now().UTC(),
	})
}

// analysisStatus maps pipeline errors to HTTP status codes.
func analysisStatus(err error) int {
	var statusErr *collector.HTTPStatusError
	switch {
	case errors.Is(err, watchlist.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrMalformedInput):
		return http.StatusUnprocessableEntity
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// analyze runs the pipeline for the path symbol and writes the error response
// itself when it fails.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) (*model.Analysis, bool) {
	sym, err := watchlist.Normalize(chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	a, err := s.deps.Collector.Analyze(r.Context(), sym)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", sym).Msg("analysis failed")
		s.writeError(w, err.Error(), analysisStatus(err))
		return nil, false
	}
	if _, err := s.deps.Recorder.RecordAnalysis(a); err != nil {
		s.logger.Error().Err(err).Str("symbol", sym).Msg("record analysis")
	}
	return a, true
}

type analysisResponse struct {
	*model.Analysis
	Prose            []string `json:"prose"`
	InsufficientData bool     `json:"insufficient_data"`
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	a, ok := s.analyze(w, r)
	if !ok {
		return
	}
	prose := make([]string, len(a.Summary.Tags))
	for i, t := range a.Summary.Tags {
		prose[i] = notifier.TagProse(t)
	}
	s.writeJSON(w, http.StatusOK, analysisResponse{
		Analysis:         a,
		Prose:            prose,
		InsufficientData: a.InsufficientData(),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	a, ok := s.analyze(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf, a, s.deps.Chart); err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	a, ok := s.analyze(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := notifier.WriteCSV(&buf, a.Frame); err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+a.Symbol+`_technical.csv"`)
	w.Write(buf.Bytes())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sym, err := watchlist.Normalize(chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			s.writeError(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := s.deps.Recorder.History(sym, limit)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []recorder.Run{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": sym, "runs": runs})
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"symbols": s.deps.Watchlist.List()})
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		s.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	sym, err := s.deps.Watchlist.Add(req.Symbol)
	switch {
	case errors.Is(err, watchlist.ErrInvalidSymbol):
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, watchlist.ErrDuplicate):
		s.writeError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.recordWatch("ADD", sym)
	s.writeJSON(w, http.StatusCreated, map[string]string{"symbol": sym})
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	sym, err := s.deps.Watchlist.Remove(chi.URLParam(r, "symbol"))
	switch {
	case errors.Is(err, watchlist.ErrInvalidSymbol):
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, watchlist.ErrNotFound):
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.recordWatch("REMOVE", sym)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordWatch(action, sym string) {
	if err := s.deps.Recorder.RecordWatchlistEvent(&recorder.WatchlistEvent{
		Action: action,
		Symbol: sym,
		Source: "api",
	}); err != nil {
		s.logger.Error().Err(err).Msg("record watchlist event")
	}
}
