package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarcargo/peercall/breaker"
	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/metrics"
	"github.com/stellarcargo/peercall/peer"
	"github.com/stellarcargo/peercall/peers"
	"github.com/stellarcargo/peercall/testkit"
	"github.com/stellarcargo/peercall/xerrors"
)

type testEnv struct {
	app                        *App
	server                     *httptest.Server
	users, spacecrafts, cargos *testkit.FakePeer
}

func testConfig(userURL, spacecraftURL, cargoURL, mode string) *Config {
	return &Config{
		Service: "mission-service",
		Server: ServerConfig{
			Addr:              "127.0.0.1:0",
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   time.Second,
		},
		Metrics:    metricsConfig(),
		Credential: CredentialConfig{Mode: mode},
		Breaker: breaker.Config{
			Default: breaker.Settings{
				FailureRateThreshold:          50,
				SlidingWindowSize:             4,
				MinimumNumberOfCalls:          2,
				WaitDurationInOpenState:       time.Minute,
				PermittedCallsInHalfOpenState: 1,
			},
		},
		Peers: PeersConfig{
			UserService:       peerConfig(userURL),
			SpacecraftService: peerConfig(spacecraftURL),
			CargoService:      peerConfig(cargoURL),
		},
	}
}

func metricsConfig() metrics.Config {
	return metrics.Config{Enabled: true, ServiceName: "mission-service"}
}

func peerConfig(baseURL string) peer.Config {
	return peer.Config{BaseURL: baseURL, Timeout: time.Second}
}

func newTestEnv(t *testing.T, mode string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{
		users:       testkit.NewFakePeer(t, 999),
		spacecrafts: testkit.NewFakePeer(t, 999),
		cargos:      testkit.NewFakePeer(t, 999),
	}
	cfg := testConfig(env.users.URL, env.spacecrafts.URL, env.cargos.URL, mode)
	a, err := New(context.Background(), cfg, WithLogger(clog.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	env.app = a

	env.server = httptest.NewServer(a.Handler())
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) fetch(method, path, token, body string) (int, string, error) {
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data), err
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) createMission(t *testing.T, token string) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/missions", token,
		`{"name":"Resupply","commanderId":1,"spacecraftId":2,"cargoIds":[3]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var m struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &m))
	return m.ID
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"threshold out of range", func(c *Config) { c.Breaker.Default.FailureRateThreshold = 150 }},
		{"zero window", func(c *Config) { c.Breaker.Default.SlidingWindowSize = 0 }},
		{"unknown carrier mode", func(c *Config) { c.Credential.Mode = "threadlocal" }},
		{"missing peer url", func(c *Config) { c.Peers.CargoService.BaseURL = "" }},
		{"zero peer timeout", func(c *Config) { c.Peers.UserService.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("http://localhost:1", "http://localhost:2", "http://localhost:3", "scoped")
			tt.mutate(cfg)
			_, err := New(context.Background(), cfg, WithLogger(clog.Discard()))
			require.Error(t, err)
			assert.ErrorIs(t, err, xerrors.ErrInvalidConfig)
		})
	}

	_, err := New(context.Background(), nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidConfig)
}

func TestMissionLifecycle(t *testing.T) {
	env := newTestEnv(t, "scoped")

	id := env.createMission(t, "ripley")

	resp, body := env.do(t, http.MethodGet, "/api/missions/"+id, "ripley", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var d struct {
		CommanderUsername string   `json:"commanderUsername"`
		SpacecraftName    string   `json:"spacecraftName"`
		CargoNames        []string `json:"cargoNames"`
	}
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, "ripley", d.CommanderUsername)
	assert.Equal(t, "spacecrafts-2", d.SpacecraftName)
	assert.Equal(t, []string{"cargos-3"}, d.CargoNames)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestMissionCreateFailsClosed(t *testing.T) {
	env := newTestEnv(t, "context")
	env.spacecrafts.SetDown(true)

	resp, body := env.do(t, http.MethodPost, "/api/missions", "ripley",
		`{"name":"Resupply","commanderId":1,"spacecraftId":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "cannot confirm that spacecraft 2 exists")

	resp, body = env.do(t, http.MethodPost, "/api/missions", "ripley",
		`{"name":"Resupply","commanderId":999,"spacecraftId":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "cannot confirm that")
}

func TestMissionEnrichmentDegrades(t *testing.T) {
	env := newTestEnv(t, "scoped")
	id := env.createMission(t, "ripley")
	env.users.SetDown(true)

	resp, body := env.do(t, http.MethodGet, "/api/missions/"+id, "ripley", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"commanderUsername":"`+peers.UnknownName+`"`)
}

func TestBreakerAdmin(t *testing.T) {
	env := newTestEnv(t, "scoped")
	env.users.SetDown(true)

	for range 2 {
		resp, _ := env.do(t, http.MethodPost, "/api/missions", "ripley",
			`{"name":"Resupply","commanderId":1,"spacecraftId":2}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	}
	state, err := env.app.Registry().State(peers.UserDependency)
	require.NoError(t, err)
	require.Equal(t, breaker.StateOpen, state)

	// 熔断期间不再访问 userService
	hits := env.users.Hits()
	resp, _ := env.do(t, http.MethodPost, "/api/missions", "ripley",
		`{"name":"Resupply","commanderId":1,"spacecraftId":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, hits, env.users.Hits())

	resp, body := env.do(t, http.MethodGet, "/admin/breakers", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Breakers []struct {
			Dependency string `json:"dependency"`
			State      string `json:"state"`
		} `json:"breakers"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	states := map[string]string{}
	for _, b := range list.Breakers {
		states[b.Dependency] = b.State
	}
	assert.Equal(t, breaker.StateOpen.String(), states[peers.UserDependency])

	resp, _ = env.do(t, http.MethodPost, "/admin/breakers/"+peers.UserDependency+"/reset", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	state, err = env.app.Registry().State(peers.UserDependency)
	require.NoError(t, err)
	assert.Equal(t, breaker.StateClosed, state)

	resp, _ = env.do(t, http.MethodPost, "/admin/breakers/inventoryService/reset", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCredentialIsolationEndToEnd(t *testing.T) {
	for _, mode := range []string{"scoped", "context"} {
		t.Run(mode, func(t *testing.T) {
			env := newTestEnv(t, mode)
			id := env.createMission(t, "seed")

			var wg sync.WaitGroup
			for i := range 30 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					token := fmt.Sprintf("caller-%d", i)
					status, body, err := env.fetch(http.MethodGet, "/api/missions/"+id, token, "")
					if !assert.NoError(t, err) || !assert.Equal(t, http.StatusOK, status) {
						return
					}
					assert.Contains(t, body, `"commanderUsername":"`+token+`"`)
				}()
			}
			wg.Wait()
		})
	}
}

func TestOpsEndpoints(t *testing.T) {
	env := newTestEnv(t, "scoped")
	env.createMission(t, "ripley")

	resp, _ := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, "breaker_calls_total")
	assert.Contains(t, text, "peercall_invocations_total")
	assert.Contains(t, text, "http_server_requests_total")

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(HeaderRequestID, "req-123")
	r, err := env.server.Client().Do(req)
	require.NoError(t, err)
	_ = r.Body.Close()
	assert.Equal(t, "req-123", r.Header.Get(HeaderRequestID))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	env := newTestEnv(t, "scoped")
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.app.Serve(ctx, lis) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := `
service: mission-service
credential:
  mode: context
breaker:
  default:
    failure_rate_threshold: 60
  dependencies:
    cargoService:
      sliding_window_size: 20
peers:
  user_service:
    base_url: http://users.internal:8080
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mission.yaml"), []byte(yaml), 0o600))
	t.Setenv("PEERCALL_PEERS_USER_SERVICE_TIMEOUT", "750ms")

	cfg, err := LoadConfig(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "context", cfg.Credential.Mode)
	assert.InDelta(t, 60, cfg.Breaker.Default.FailureRateThreshold, 0.001)
	assert.Equal(t, breaker.DefaultSettings().SlidingWindowSize, cfg.Breaker.Default.SlidingWindowSize)
	assert.Equal(t, "http://users.internal:8080", cfg.Peers.UserService.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Peers.UserService.Timeout)
	assert.Equal(t, "http://localhost:8083", cfg.Peers.CargoService.BaseURL)
	require.Contains(t, cfg.Breaker.Dependencies, "cargoservice")
	assert.Equal(t, 20, cfg.Breaker.Dependencies["cargoservice"].SlidingWindowSize)

	reg, err := breaker.New(&cfg.Breaker)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	b, err := reg.Breaker(peers.CargoDependency)
	require.NoError(t, err)
	assert.Equal(t, 20, b.Settings().SlidingWindowSize)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"threshold above 100", "breaker:\n  default:\n    failure_rate_threshold: 150\n"},
		{"minimum above window", "breaker:\n  default:\n    minimum_number_of_calls: 50\n"},
		{"bad carrier mode", "credential:\n  mode: threadlocal\n"},
		{"bad peer url", "peers:\n  cargo_service:\n    base_url: not a url\n"},
		{"malformed yaml", "peers: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "mission.yaml"), []byte(tt.yaml), 0o600))
			_, err := LoadConfig(context.Background(), dir, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, xerrors.ErrInvalidConfig)
		})
	}
}
