package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeltaLabs/veltalk-client/pkg/network"
)

// stubCore is a fixed-state Core for handler tests.
type stubCore struct {
	state network.ConnectionState
	stats network.Stats
}

func (s *stubCore) State() network.ConnectionState { return s.state }
func (s *stubCore) ClientID() string               { return "client-1" }
func (s *stubCore) Stats() network.Stats           { return s.stats }

func newTestServer(t *testing.T, core Core, config *Config) *Server {
	t.Helper()
	server, err := NewServer(core, config, zerolog.Nop())
	require.NoError(t, err)
	return server
}

func TestAPIStatus(t *testing.T) {
	core := &stubCore{
		state: network.StateReady,
		stats: network.Stats{
			State:           "ready",
			Endpoint:        "wss://gw1.example.net/ws",
			Attempts:        0,
			PendingRequests: 2,
			QueuedMessages:  5,
		},
	}
	server := newTestServer(t, core, DefaultConfig())

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.True(t, response.Success)
	assert.Equal(t, "client-1", response.ClientID)
	assert.Equal(t, "ready", response.Stats.State)
	assert.Equal(t, "wss://gw1.example.net/ws", response.Stats.Endpoint)
	assert.Equal(t, 2, response.Stats.PendingRequests)
	assert.Equal(t, 5, response.Stats.QueuedMessages)
}

func TestAPIHealth(t *testing.T) {
	tests := []struct {
		name   string
		state  network.ConnectionState
		status string
	}{
		{"ready", network.StateReady, "healthy"},
		{"authenticating", network.StateAuthenticating, "degraded"},
		{"disconnected", network.StateDisconnected, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &stubCore{state: tt.state}, DefaultConfig())

			for _, path := range []string{"/health", "/api/v1/health"} {
				req := httptest.NewRequest("GET", path, nil)
				w := httptest.NewRecorder()
				server.Handler().ServeHTTP(w, req)

				assert.Equal(t, http.StatusOK, w.Code)

				var response HealthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.True(t, response.Success)
				assert.Equal(t, tt.status, response.Status, path)
				assert.Equal(t, tt.state.String(), response.State, path)
			}
		})
	}
}

func TestAPIRateLimiting(t *testing.T) {
	config := DefaultConfig()
	config.RateLimit = 5

	server := newTestServer(t, &stubCore{state: network.StateReady}, config)

	limitExceeded := false
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, req)

		if w.Code == http.StatusTooManyRequests {
			limitExceeded = true
			break
		}
	}

	assert.True(t, limitExceeded, "rate limit should have been exceeded")
}

func TestAPICORSPreflight(t *testing.T) {
	server := newTestServer(t, &stubCore{}, DefaultConfig())

	req := httptest.NewRequest("OPTIONS", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServerRequiresCore(t *testing.T) {
	_, err := NewServer(nil, DefaultConfig(), zerolog.Nop())
	assert.Error(t, err)
}

func TestServerTimeoutsFromConfig(t *testing.T) {
	config := DefaultConfig()
	config.ReadTimeout = 7 * time.Second
	config.WriteTimeout = 9 * time.Second

	server := newTestServer(t, &stubCore{}, config)
	hs := server.buildHTTPServer()
	assert.Equal(t, 7*time.Second, hs.ReadTimeout)
	assert.Equal(t, 9*time.Second, hs.WriteTimeout)

	// Zero values fall back to the defaults instead of disabling timeouts.
	server = newTestServer(t, &stubCore{}, &Config{Port: 8080})
	hs = server.buildHTTPServer()
	assert.Equal(t, DefaultConfig().ReadTimeout, hs.ReadTimeout)
	assert.Equal(t, DefaultConfig().WriteTimeout, hs.WriteTimeout)
}
