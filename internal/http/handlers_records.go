package http

import (
	"log/slog"
	"net/http"
	"strings"

	"carenote/internal/core"
	applog "carenote/internal/log"
)

type dayRecordRequest struct {
	Date          string `json:"date"`
	WorkType      string `json:"workType"`
	WorkHours     string `json:"workHours"`
	PatientStatus string `json:"patientStatus"`
	Pay           string `json:"pay"`
}

type repeatRequest struct {
	Date string `json:"date"`
}

type startCaseRequest struct {
	StartDate     string `json:"startDate"`
	WorkPlaceType string `json:"workPlaceType"`
	WorkHours     string `json:"workHours"`
	PatientStatus string `json:"patientStatus"`
	Pay           string `json:"pay"`
}

type workDayRequest struct {
	Date string `json:"date"`
}

type closeCaseRequest struct {
	EndDate string `json:"endDate"`
}

// parseDateOrToday resolves an optional ISO date field, defaulting to today.
func parseDateOrToday(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Today(), nil
	}
	return core.ParseDate(strings.TrimSpace(s))
}

func (s *Server) handleCreateDayRecord(w http.ResponseWriter, r *http.Request) {
	var req dayRecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date, err := parseDateOrToday(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	pay, err := core.ParseWon(sanitizeInput(req.Pay))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := s.records.CreateDayRecord(r.Context(),
		date,
		core.WorkPlace(sanitizeInput(req.WorkType)),
		core.ShiftHours(sanitizeInput(req.WorkHours)),
		core.PatientStatus(sanitizeInput(req.PatientStatus)),
		pay,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	applog.LogRecordSaved(r.Context(), record.ID, string(record.Kind), string(record.Workplace()), record.PayWon)

	s.invalidateStats(date.Year(), date.Month())
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleRepeatDayRecord(w http.ResponseWriter, r *http.Request) {
	var req repeatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date, err := parseDateOrToday(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := s.records.RepeatLast(r.Context(), date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Day record repeated",
		"id", record.ID,
		"date", record.Date.ISO())

	s.invalidateStats(date.Year(), date.Month())
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records := s.records.Records(r.Context())

	// Optional kind filter.
	switch r.URL.Query().Get("kind") {
	case "day":
		records = core.DayRecords(records)
	case "case":
		records = core.CaseRecords(records)
	case "":
	default:
		writeError(w, http.StatusBadRequest, "kind must be 'day' or 'case'")
		return
	}

	if records == nil {
		records = []core.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStartCase(w http.ResponseWriter, r *http.Request) {
	var req startCaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start, err := parseDateOrToday(req.StartDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	pay, err := core.ParseWon(sanitizeInput(req.Pay))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := s.records.StartCase(r.Context(),
		start,
		core.WorkPlace(sanitizeInput(req.WorkPlaceType)),
		core.ShiftHours(sanitizeInput(req.WorkHours)),
		core.PatientStatus(sanitizeInput(req.PatientStatus)),
		pay,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Case started",
		"id", record.ID,
		"start_date", record.StartDate.ISO())

	s.invalidateStats(start.Year(), start.Month())
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleActiveCase(w http.ResponseWriter, r *http.Request) {
	record, ok := s.records.ActiveCase(r.Context())
	if !ok {
		writeDomainError(w, core.ErrNoActiveCase)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleAddWorkDay(w http.ResponseWriter, r *http.Request) {
	var req workDayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	day, err := parseDateOrToday(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := s.records.AddWorkDayToActive(r.Context(), day)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Work day added to case",
		"id", record.ID,
		"date", day.ISO(),
		"days_worked", len(record.DaysWorked))

	s.invalidateStats(day.Year(), day.Month())
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCloseCase(w http.ResponseWriter, r *http.Request) {
	var req closeCaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	end, err := parseDateOrToday(req.EndDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := s.records.CloseActiveCase(r.Context(), end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "Case closed",
		"id", record.ID,
		"end_date", end.ISO(),
		"days_worked", len(record.DaysWorked))

	s.invalidateStats(end.Year(), end.Month())
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCompletedCases(w http.ResponseWriter, r *http.Request) {
	cases := s.records.CompletedCases(r.Context())
	if cases == nil {
		cases = []core.Record{}
	}
	writeJSON(w, http.StatusOK, cases)
}
