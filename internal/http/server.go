package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"carteira/internal/cache"
	"carteira/internal/core"
	"carteira/internal/middleware/auth"
	"carteira/internal/middleware/ratelimit"
	"carteira/internal/middleware/security"
	"carteira/internal/middleware/trace"
)

// LedgerService is what the handlers need from the ledger layer.
type LedgerService interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

const listCacheKey = "transactions"

// Server is the ledger API. It embeds http.Server so callers use the
// usual ListenAndServe, and layers tracing, security headers, the auth
// boundary, and POST rate limiting around the mux.
type Server struct {
	http.Server

	ledger  LedgerService
	tracer  *trace.Middleware
	limiter *ratelimit.Limiter

	// Full list responses are cached until the next write.
	listCache    *cache.LRUCache[[]core.Transaction]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(addr string, ledger LedgerService, apiToken string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		ledger:    ledger,
		tracer:    trace.NewMiddleware(extractClientIP),
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		listCache:    cache.NewLRUCache[[]core.Transaction](1, 30*time.Second),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.listCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/transactions", s.handleTransactions)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	token := auth.NewTokenMiddleware(apiToken)

	handler := token.Middleware(mux)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler exposes the full middleware chain for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

// extractClientIP resolves the client address, preferring proxy headers.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// Shutdown stops the rate limiter cleanup goroutine and drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Ready means the store answers, a cheap list probes it.
	if _, err := s.listTransactionsCached(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics reports plain-text counters. Not a full metrics
// surface, just enough to watch traffic and rate limiting.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "http_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(w, "ratelimit_hits_total %d\n", limitMetrics.TotalHits)
	fmt.Fprintf(w, "ratelimit_clients %d\n", limitMetrics.ClientCount)
	fmt.Fprintf(w, "list_cache_entries %d\n", s.listCache.Size())
}
