package health

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	s := NewServer(Config{ServiceName: "stakeleague-engine", Version: "1.0.0", Port: "0"})

	for _, path := range []string{"/health", "/live"} {
		rec := get(t, s.Handler(), path)
		assert.Equal(t, http.StatusOK, rec.Code, path)

		var resp Status
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.State)
		assert.Equal(t, "stakeleague-engine", resp.Service)
		assert.Equal(t, "1.0.0", resp.Version)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		queueErr   error
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			ready:      true,
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"service": "ok", "database": "ok", "queue": "ok"},
		},
		{
			name:       "not marked ready",
			ready:      false,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"service": "not_ready", "database": "ok", "queue": "ok"},
		},
		{
			name:       "queue unreachable",
			ready:      true,
			queueErr:   errors.New("relation river_job does not exist"),
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"service": "ok", "database": "ok", "queue": "error: relation river_job does not exist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Config{
				ServiceName: "stakeleague-engine",
				Port:        "0",
				Checks: map[string]CheckFunc{
					"database": func(context.Context) error { return nil },
					"queue":    func(context.Context) error { return tt.queueErr },
				},
			})
			s.SetReady(tt.ready)

			rec := get(t, s.Handler(), "/ready")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp Status
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantChecks, resp.Checks)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "ok", resp.State)
			} else {
				assert.Equal(t, "not_ready", resp.State)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("stakeleague_joins_total 1\n"))
	})
	s := NewServer(Config{Port: "0", Metrics: metrics, MetricsPath: "/metrics"})

	rec := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "stakeleague_joins_total")

	bare := NewServer(Config{Port: "0"})
	assert.Equal(t, http.StatusNotFound, get(t, bare.Handler(), "/metrics").Code)
}

func TestReadyRunsChecksConcurrently(t *testing.T) {
	release := make(chan struct{})
	s := NewServer(Config{
		Port: "0",
		Checks: map[string]CheckFunc{
			"database": func(context.Context) error {
				<-release
				return nil
			},
			"queue": func(context.Context) error {
				close(release)
				return nil
			},
		},
	})
	s.SetReady(true)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- get(t, s.Handler(), "/ready") }()

	select {
	case rec := <-done:
		assert.Equal(t, http.StatusOK, rec.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("readiness checks ran one after another")
	}
}

func TestStartReportsBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	s := NewServer(Config{Port: port})
	assert.Error(t, s.Start(context.Background()))
}

func TestShutdownIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(Config{Port: "0"})
	require.NoError(t, s.Start(ctx))

	cancel()
	assert.NoError(t, s.Shutdown())
	assert.NoError(t, s.Shutdown())
}
