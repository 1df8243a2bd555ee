package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleGetIndices returns the full aggregated index list. The response
// always contains one record per configured instrument; instruments whose
// live data is unusable appear as fallback records. `?refresh=1` bypasses
// cache freshness and backoff.
func (s *Server) handleGetIndices(w http.ResponseWriter, r *http.Request) {
	var indices interface{}
	if r.URL.Query().Get("refresh") == "1" {
		indices = s.indices.RefreshAllIndices(r.Context())
	} else {
		indices = s.indices.GetAllIndices(r.Context())
	}

	writeJSON(w, http.StatusOK, indices)
}

func (s *Server) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	idx, ok := s.indices.GetIndex(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown index id")
		return
	}

	writeJSON(w, http.StatusOK, idx)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	interval := r.URL.Query().Get("interval")

	series, err := s.indices.FetchTimeSeries(r.Context(), symbol, interval)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, series)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
