package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"carenote/internal/core"
	"carenote/internal/identity"
	"carenote/internal/services"
	"carenote/internal/stats"
	"carenote/internal/storage"
	"carenote/internal/verify"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	blobs := storage.NewMemoryBlobStore()
	records := services.NewRecordService(storage.NewRecordStore(blobs), nil)
	srv := NewServer(":0", records, identity.NewManager(blobs), verify.DemoVerifier{})
	t.Cleanup(func() {
		srv.cacheManager.Stop()
		srv.rateLimiter.Stop()
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestCreateDayRecord(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/records/day", dayRecordRequest{
		Date:          "2026-03-05",
		WorkType:      "hospital",
		WorkHours:     "daytime",
		PatientStatus: "base",
		Pay:           "110,000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	created := decodeBody[core.Record](t, rec)
	if created.Kind != core.KindDay || created.PayWon != 110000 {
		t.Errorf("created = %+v", created)
	}

	list := doJSON(t, srv, http.MethodGet, "/records", nil)
	records := decodeBody[[]core.Record](t, list)
	if len(records) != 1 || records[0].ID != created.ID {
		t.Errorf("records = %+v", records)
	}
}

func TestCreateDayRecordValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body dayRecordRequest
		want int
	}{
		{
			name: "unknown workplace",
			body: dayRecordRequest{Date: "2026-03-05", WorkType: "clinic", WorkHours: "daytime", PatientStatus: "base", Pay: "110000"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "zero pay",
			body: dayRecordRequest{Date: "2026-03-05", WorkType: "hospital", WorkHours: "daytime", PatientStatus: "base", Pay: "0"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "malformed date",
			body: dayRecordRequest{Date: "03/05/2026", WorkType: "hospital", WorkHours: "daytime", PatientStatus: "base", Pay: "110000"},
			want: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/records/day", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCreateDayRecordBadJSON(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/records/day", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/records/day", strings.NewReader(`{"unknownField": 1}`))
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d, want 400", rec.Code)
	}
}

func TestRepeatWithoutSource(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/records/day/repeat", repeatRequest{Date: "2026-03-06"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRepeat(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/records/day", dayRecordRequest{
		Date: "2026-03-05", WorkType: "home", WorkHours: "night", PatientStatus: "dementia", Pay: "120000",
	})

	rec := doJSON(t, srv, http.MethodPost, "/records/day/repeat", repeatRequest{Date: "2026-03-06"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	repeated := decodeBody[core.Record](t, rec)
	if repeated.WorkType != core.Home || repeated.PayWon != 120000 {
		t.Errorf("repeated = %+v", repeated)
	}
	if repeated.Date.ISO() != "2026-03-06" {
		t.Errorf("date = %s, want 2026-03-06", repeated.Date.ISO())
	}
}

func TestCaseLifecycleOverAPI(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodGet, "/cases/active", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("active with no case: status = %d, want 404", rec.Code)
	}

	start := doJSON(t, srv, http.MethodPost, "/cases", startCaseRequest{
		StartDate: "2026-03-01", WorkPlaceType: "home", WorkHours: "24h", PatientStatus: "immobile", Pay: "100000",
	})
	if start.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body = %s", start.Code, start.Body.String())
	}

	if rec := doJSON(t, srv, http.MethodPost, "/cases", startCaseRequest{
		StartDate: "2026-03-02", WorkPlaceType: "home", WorkHours: "24h", PatientStatus: "base", Pay: "90000",
	}); rec.Code != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", rec.Code)
	}

	for _, d := range []string{"2026-03-01", "2026-03-02"} {
		if rec := doJSON(t, srv, http.MethodPost, "/cases/active/days", workDayRequest{Date: d}); rec.Code != http.StatusOK {
			t.Fatalf("add day %s status = %d, body = %s", d, rec.Code, rec.Body.String())
		}
	}
	if rec := doJSON(t, srv, http.MethodPost, "/cases/active/days", workDayRequest{Date: "2026-03-02"}); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate day status = %d, want 409", rec.Code)
	}

	closed := doJSON(t, srv, http.MethodPost, "/cases/active/close", closeCaseRequest{EndDate: "2026-03-02"})
	if closed.Code != http.StatusOK {
		t.Fatalf("close status = %d, body = %s", closed.Code, closed.Body.String())
	}
	record := decodeBody[core.Record](t, closed)
	if record.EndDate == nil || len(record.DaysWorked) != 2 {
		t.Errorf("closed = %+v", record)
	}

	if rec := doJSON(t, srv, http.MethodGet, "/cases/active", nil); rec.Code != http.StatusNotFound {
		t.Errorf("active after close: status = %d, want 404", rec.Code)
	}

	completed := doJSON(t, srv, http.MethodGet, "/cases/completed", nil)
	cases := decodeBody[[]core.Record](t, completed)
	if len(cases) != 1 {
		t.Errorf("completed = %+v", cases)
	}
}

func TestMonthlyStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/records/day", dayRecordRequest{
		Date: "2026-03-05", WorkType: "hospital", WorkHours: "daytime", PatientStatus: "base", Pay: "110000",
	})

	rec := doJSON(t, srv, http.MethodGet, "/stats/month?year=2026&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	monthly := decodeBody[stats.MonthlyStats](t, rec)
	if monthly.WorkDays != 1 || monthly.TotalIncome != 110000 {
		t.Errorf("monthly = %+v", monthly)
	}

	// A mutation invalidates the cached month.
	doJSON(t, srv, http.MethodPost, "/records/day", dayRecordRequest{
		Date: "2026-03-07", WorkType: "hospital", WorkHours: "night", PatientStatus: "base", Pay: "120000",
	})
	rec = doJSON(t, srv, http.MethodGet, "/stats/month?year=2026&month=3", nil)
	monthly = decodeBody[stats.MonthlyStats](t, rec)
	if monthly.WorkDays != 2 || monthly.TotalIncome != 230000 {
		t.Errorf("monthly after second record = %+v", monthly)
	}
}

func TestMonthlyStatsBadMonth(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/stats/month?year=2026&month=13", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCertificateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/records/day", dayRecordRequest{
		Date: "2026-03-05", WorkType: "hospital", WorkHours: "daytime", PatientStatus: "base", Pay: "110000",
	})

	rec := doJSON(t, srv, http.MethodGet, "/certificate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	summary := decodeBody[stats.CareerSummary](t, rec)
	if summary.TotalWorkDays != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestEstimateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/estimate?region=seoul&workplace=home&severity=severe&days=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	est := decodeBody[services.Estimate](t, rec)
	if est.TotalMin != 1700000 || est.TotalMax != 2100000 {
		t.Errorf("estimate = %+v", est)
	}

	if rec := doJSON(t, srv, http.MethodGet, "/estimate?days=zero", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad days status = %d, want 400", rec.Code)
	}
}

func TestIdentityEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/identity", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody[identityResponse](t, rec)
	if !strings.HasPrefix(resp.DisplayID, "DN-") || len(resp.DisplayID) != 9 {
		t.Errorf("displayId = %q", resp.DisplayID)
	}
	if resp.Meta.PhoneVerified {
		t.Error("new identity reports verified phone")
	}

	// Same identity on subsequent calls.
	again := decodeBody[identityResponse](t, doJSON(t, srv, http.MethodGet, "/identity", nil))
	if again.DisplayID != resp.DisplayID {
		t.Errorf("displayId changed: %q vs %q", again.DisplayID, resp.DisplayID)
	}
}

func TestOTPFlow(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodPost, "/otp/request", otpRequestBody{Phone: "010-1234-5678"}); rec.Code != http.StatusAccepted {
		t.Fatalf("request status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if rec := doJSON(t, srv, http.MethodPost, "/otp/verify", otpVerifyBody{Phone: "010-1234-5678", Code: "000000"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong code status = %d, want 401", rec.Code)
	}

	rec := doJSON(t, srv, http.MethodPost, "/otp/verify", otpVerifyBody{Phone: "010-1234-5678", Code: verify.DemoCode})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[otpVerifyResponse](t, rec)
	if !resp.Verified || resp.MaskedPhone != "010-****-5678" {
		t.Errorf("verify response = %+v", resp)
	}

	// Verification persists on the identity meta.
	id := decodeBody[identityResponse](t, doJSON(t, srv, http.MethodGet, "/identity", nil))
	if !id.Meta.PhoneVerified || id.Meta.VerifiedPhoneMasked != "010-****-5678" {
		t.Errorf("meta after verify = %+v", id.Meta)
	}
}

func TestOTPInvalidPhone(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/otp/request", otpRequestBody{Phone: "12"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodDelete, "/records", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
