package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gridpulse/dsmrflow/internal/models"
)

type seriesHandler struct {
	repo      SeriesRepository
	validator *RequestValidator
}

type seriesResponse struct {
	Result []models.SeriesPoint `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleSeries serves GET /v1/series. Query parameters: quantity (voltage
// or current), phase (1..3), start and end (RFC 3339), window (1m, 5m, 1h,
// 1d), aggregation (MIN, MAX, AVG, SUM).
func (h *seriesHandler) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	phase, err := strconv.Atoi(q.Get("phase"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "phase must be an integer")
		return
	}
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be an RFC 3339 timestamp")
		return
	}

	quantity := q.Get("quantity")
	window := q.Get("window")
	aggregation := q.Get("aggregation")

	if err := h.validator.Validate(quantity, phase, start, end, window, aggregation); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, err := h.repo.QuerySeries(r.Context(), quantity, phase, start, end, window, aggregation)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if points == nil {
		points = []models.SeriesPoint{}
	}

	writeJSON(w, http.StatusOK, seriesResponse{Result: points})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
