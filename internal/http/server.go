package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"carenote/internal/cache"
	"carenote/internal/identity"
	"carenote/internal/middleware/ratelimit"
	"carenote/internal/middleware/security"
	"carenote/internal/middleware/trace"
	"carenote/internal/services"
	"carenote/internal/stats"
	"carenote/internal/verify"
)

// Server is the JSON API over the record service, identity manager and
// phone verifier.
type Server struct {
	http.Server

	records  *services.RecordService
	identity *identity.Manager
	verifier verify.Verifier

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector

	// Cached read models, invalidated on every mutation.
	monthlyCache *cache.LRUCache[stats.MonthlyStats]
	careerCache  *cache.LRUCache[stats.CareerSummary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, records *services.RecordService, idm *identity.Manager, verifier verify.Verifier) *Server {
	mux := http.NewServeMux()

	s := &Server{
		records:  records,
		identity: idm,
		verifier: verifier,

		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),

		monthlyCache: cache.NewLRUCache[stats.MonthlyStats](100, 5*time.Minute),
		careerCache:  cache.NewLRUCache[stats.CareerSummary](10, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.monthlyCache)
	s.cacheManager.Register(s.careerCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /records/day", s.handleCreateDayRecord)
	mux.HandleFunc("POST /records/day/repeat", s.handleRepeatDayRecord)
	mux.HandleFunc("GET /records", s.handleListRecords)

	mux.HandleFunc("POST /cases", s.handleStartCase)
	mux.HandleFunc("GET /cases/active", s.handleActiveCase)
	mux.HandleFunc("POST /cases/active/days", s.handleAddWorkDay)
	mux.HandleFunc("POST /cases/active/close", s.handleCloseCase)
	mux.HandleFunc("GET /cases/completed", s.handleCompletedCases)

	mux.HandleFunc("GET /stats/month", s.handleMonthlyStats)
	mux.HandleFunc("GET /certificate", s.handleCertificate)
	mux.HandleFunc("GET /estimate", s.handleEstimate)

	mux.HandleFunc("GET /identity", s.handleIdentity)
	mux.HandleFunc("POST /otp/request", s.handleOTPRequest)
	mux.HandleFunc("POST /otp/verify", s.handleOTPVerify)

	traceMW := trace.NewMiddleware(s.detector.ExtractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.rateLimiter.Middleware(s.detector.ExtractClientIP, nil)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           traceMW.Middleware(headersMW.Middleware(limitMW(s.probeCheck(mux)))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// probeCheck logs requests matching known scan patterns before they
// reach the router. Flagged requests are still served so legitimate
// traffic with odd shapes is never dropped.
func (s *Server) probeCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.IsSuspicious(r) {
			slog.WarnContext(r.Context(), "Suspicious request detected",
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// invalidateStats drops cached aggregates after a record mutation.
func (s *Server) invalidateStats(year, month int) {
	s.monthlyCache.Delete(monthKey(year, month))
	s.careerCache.Delete(careerKey)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
