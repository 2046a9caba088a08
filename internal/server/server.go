// Package server implements the wsm HTTP API.
//
// The API holds live solver sessions in memory so that a long search can be
// driven in short, bounded calls:
//
//	POST   /v1/sessions               create a session from a problem
//	POST   /v1/sessions/{id}/solve    continue the search within a budget
//	GET    /v1/sessions/{id}          current best solution and statistics
//	GET    /v1/sessions/{id}/render   draw the current embedding
//	DELETE /v1/sessions/{id}          drop the session
//	POST   /v1/solve                  one-shot solve, cached and de-duplicated
//	GET    /v1/runs                   list stored runs
//	GET    /v1/runs/{id}              fetch a stored run
//	GET    /healthz                   liveness and build information
//	GET    /metrics                   Prometheus metrics, when enabled
//
// Each session runs at most one solve call at a time; a concurrent call is
// answered with 409 Conflict.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/wsm/pkg/pipeline"
)

// Defaults applied when Options leave a field zero.
const (
	DefaultSolveTimeout = 10 * time.Second
	DefaultMaxTimeout   = 2 * time.Minute
	DefaultMaxSessions  = 256
	DefaultSessionIdle  = 30 * time.Minute
	maxBodyBytes        = 8 << 20
)

// Options configures a [Server].
type Options struct {
	Logger *log.Logger

	// Metrics serves /metrics; nil disables the route.
	Metrics http.Handler

	// DefaultTimeout bounds solve calls that set no budget at all.
	DefaultTimeout time.Duration
	// MaxTimeout caps the wall-clock budget of any single call.
	MaxTimeout time.Duration
	// MaxSessions caps the number of live sessions held in memory.
	MaxSessions int
	// SessionIdle is how long an unused session survives; see [Server.Sweep].
	SessionIdle time.Duration
}

// Server serves the HTTP API on top of a [pipeline.Runner].
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	opts   Options

	mu       sync.Mutex
	sessions map[string]*liveSession

	flight singleflight.Group
}

type liveSession struct {
	live     *pipeline.Live
	lastUsed time.Time
}

// New creates a server. The runner is shared by all requests.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultSolveTimeout
	}
	if opts.MaxTimeout <= 0 {
		opts.MaxTimeout = DefaultMaxTimeout
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.SessionIdle <= 0 {
		opts.SessionIdle = DefaultSessionIdle
	}
	return &Server{
		runner:   runner,
		logger:   opts.Logger,
		opts:     opts,
		sessions: make(map[string]*liveSession),
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweepLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SessionIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now); n > 0 {
				s.logger.Debug("dropped idle sessions", "count", n)
			}
		}
	}
}

// Sweep drops sessions unused since now minus the idle timeout and returns
// how many were dropped. Finished runs are already in the store.
func (s *Server) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for id, ls := range s.sessions {
		if now.Sub(ls.lastUsed) > s.opts.SessionIdle {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) addSession(live *pipeline.Live) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.opts.MaxSessions {
		return false
	}
	s.sessions[live.ID()] = &liveSession{live: live, lastUsed: time.Now()}
	return true
}

func (s *Server) session(id string) (*pipeline.Live, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	ls.lastUsed = time.Now()
	return ls.live, true
}

func (s *Server) dropSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}
