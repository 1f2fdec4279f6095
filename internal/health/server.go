// Package health serves the engine's liveness, readiness and metrics endpoints.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	stateOK       = "ok"
	stateNotReady = "not_ready"

	checkTimeout    = 3 * time.Second
	shutdownTimeout = 5 * time.Second
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Status is the JSON body of every health endpoint
type Status struct {
	State   string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version,omitempty"`
	Commit  string            `json:"commit,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
	Elapsed string            `json:"elapsed,omitempty"`
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	// Port defaults to HEALTH_PORT, then 8080.
	Port   string
	Logger *logrus.Logger
	// Checks are run by /ready, keyed by the name reported in the response.
	Checks map[string]CheckFunc
	// Metrics is served at MetricsPath (default /metrics) when set.
	Metrics     http.Handler
	MetricsPath string
}

// Server answers orchestrator health checks for the engine process
type Server struct {
	cfg   Config
	ready atomic.Bool
	srv   *http.Server
	once  sync.Once
}

// NewServer creates a health server. It reports not ready until SetReady(true).
func NewServer(cfg Config) *Server {
	if cfg.Port == "" {
		cfg.Port = os.Getenv("HEALTH_PORT")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetOutput(io.Discard)
	}
	return &Server{cfg: cfg}
}

// SetReady flips the service-level readiness reported by /ready
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Handler returns the router serving the health and metrics endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.live)
	mux.HandleFunc("/live", s.live)
	mux.HandleFunc("/ready", s.readiness)
	if s.cfg.Metrics != nil {
		mux.Handle(s.cfg.MetricsPath, s.cfg.Metrics)
	}
	return mux
}

// Start binds the port and serves in the background until ctx is done.
// A bind failure is returned to the caller.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return err
	}

	s.srv = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log := s.cfg.Logger.WithFields(logrus.Fields{"addr": ln.Addr().String(), "service": s.cfg.ServiceName})
	log.Info("Health server listening")

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Health server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			log.WithError(err).Warn("Health server shutdown failed")
		}
	}()

	return nil
}

// Shutdown drains in-flight requests. Calls after the first are no-ops.
func (s *Server) Shutdown() error {
	if s.srv == nil {
		return nil
	}

	var err error
	s.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = s.srv.Shutdown(ctx)
	})
	return err
}

func (s *Server) live(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, Status{
		State:   stateOK,
		Service: s.cfg.ServiceName,
		Version: s.cfg.Version,
		Commit:  s.cfg.Commit,
	})
}

// readiness runs every check concurrently. One failing check never cancels the others.
func (s *Server) readiness(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	results := s.runChecks(r.Context())

	code, state := http.StatusOK, stateOK
	if !s.ready.Load() {
		results["service"] = stateNotReady
	} else {
		results["service"] = stateOK
	}
	for _, result := range results {
		if result != stateOK {
			code, state = http.StatusServiceUnavailable, stateNotReady
			break
		}
	}

	s.write(w, code, Status{
		State:   state,
		Service: s.cfg.ServiceName,
		Checks:  results,
		Elapsed: time.Since(start).String(),
	})
}

func (s *Server) runChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(s.cfg.Checks)+1)
		g       errgroup.Group
	)
	for name, check := range s.cfg.Checks {
		g.Go(func() error {
			result := stateOK
			if err := check(ctx); err != nil {
				result = "error: " + err.Error()
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Server) write(w http.ResponseWriter, code int, body Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.cfg.Logger.WithError(err).Debug("Failed to write health response")
	}
}
