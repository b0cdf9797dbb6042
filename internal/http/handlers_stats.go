package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"carenote/internal/core"
	"carenote/internal/services"
)

const careerKey = "career"

func monthKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	params := ParseMonthParams(r.URL.Query())
	if !params.Valid() {
		writeError(w, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	key := monthKey(params.Year, params.Month)
	if cached, found := s.monthlyCache.Get(key); found {
		slog.DebugContext(r.Context(), "Monthly stats cache hit", "year", params.Year, "month", params.Month)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	monthly := s.records.MonthlyStats(r.Context(), params.Year, params.Month)
	s.monthlyCache.Set(key, monthly)
	writeJSON(w, http.StatusOK, monthly)
}

func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	if cached, found := s.careerCache.Get(careerKey); found {
		slog.DebugContext(r.Context(), "Career summary cache hit")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary := s.records.CareerSummary(r.Context())
	s.careerCache.Set(careerKey, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	days := 7
	if v := strings.TrimSpace(q.Get("days")); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive number")
			return
		}
		days = d
	}

	estimate := services.EstimateCost(
		services.Region(q.Get("region")),
		core.WorkPlace(q.Get("workplace")),
		services.Severity(q.Get("severity")),
		days,
	)
	writeJSON(w, http.StatusOK, estimate)
}
