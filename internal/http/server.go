package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"paydesk/internal/core"
	"paydesk/internal/filter"
	"paydesk/internal/log"
	"paydesk/internal/middleware/ratelimit"
	"paydesk/internal/middleware/security"
	"paydesk/internal/middleware/trace"
)

// ExpenseResolver answers one expense query end to end.
type ExpenseResolver interface {
	Resolve(ctx context.Context, args filter.Args) (core.Collection, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sweeper is any cache that can drop its expired entries.
type Sweeper interface {
	Sweep() int
}

type Server struct {
	http.Server
	service ExpenseResolver
	pinger  Pinger
	limiter *ratelimit.Limiter
	logger  *log.Logger

	sweepers []Sweeper

	stopCacheSweep chan struct{}
	shutdownOnce   sync.Once
}

// Options carries the tunables NewServer accepts beyond its dependencies.
type Options struct {
	RequestsPerMinute int
	CacheSweepEvery   time.Duration

	// Sweepers are swept for expired entries on a fixed interval for as
	// long as the server runs.
	Sweepers []Sweeper
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, service ExpenseResolver, pinger Pinger, logger *log.Logger, opts Options) *Server {
	if opts.CacheSweepEvery <= 0 {
		opts.CacheSweepEvery = 10 * time.Minute
	}

	s := &Server{
		service: service,
		pinger:  pinger,
		logger:  logger.WithComponent(log.ComponentHTTP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RequestsPerMinute,
		}),
		sweepers:       opts.Sweepers,
		stopCacheSweep: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/expenses", s.handleListExpenses)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(ratelimit.ClientIP)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	go s.startCacheSweep(opts.CacheSweepEvery)

	return s
}

func (s *Server) startCacheSweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := 0
			for _, c := range s.sweepers {
				removed += c.Sweep()
			}
			if removed > 0 {
				s.logger.Debug("Cache sweep completed", "entries_removed", removed)
			}
		case <-s.stopCacheSweep:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheSweep)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
