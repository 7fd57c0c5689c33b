package peer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarcargo/peercall/credential"
	"github.com/stellarcargo/peercall/xerrors"
)

func newTestClient(t *testing.T, handler http.Handler, timeout time.Duration, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New("userService", &Config{BaseURL: srv.URL, Timeout: timeout}, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name       string
		dependency string
		cfg        *Config
	}{
		{"empty dependency", "", &Config{BaseURL: "http://localhost:8081", Timeout: time.Second}},
		{"nil config", "userService", nil},
		{"missing base url", "userService", &Config{Timeout: time.Second}},
		{"relative base url", "userService", &Config{BaseURL: "users", Timeout: time.Second}},
		{"zero timeout", "userService", &Config{BaseURL: "http://localhost:8081"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.dependency, tt.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, xerrors.ErrInvalidConfig)
		})
	}
}

func TestGetJSONForwardsCredential(t *testing.T) {
	var gotAuth, gotAccept string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		writeJSON(w, http.StatusOK, User{ID: 7, Username: "ripley"})
	}), time.Second, WithCarrier(credential.ContextCarrier{}))

	ctx, release := credential.ContextCarrier{}.Bind(context.Background(), credential.FromToken("abc.def"))
	defer release()

	users := NewUserClient(c)
	u, err := users.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "ripley", u.Username)
	assert.Equal(t, "Bearer abc.def", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}

func TestGetJSONWithoutCredential(t *testing.T) {
	var gotAuth string
	var sawRequest bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawRequest = true
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, true)
	}), time.Second, WithCarrier(credential.ScopedCarrier{}))

	ok, err := NewUserClient(c).UserExists(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, sawRequest)
	assert.Empty(t, gotAuth)
}

func TestGetJSONPaths(t *testing.T) {
	var paths []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/spacecrafts/3/exists", "/api/cargos/4/exists":
			writeJSON(w, http.StatusOK, false)
		case "/api/spacecrafts/3":
			writeJSON(w, http.StatusOK, Spacecraft{ID: 3, Name: "Nostromo"})
		case "/api/cargos/4":
			writeJSON(w, http.StatusOK, Cargo{ID: 4, Name: "Ore", WeightKg: 12.5})
		default:
			http.NotFound(w, r)
		}
	}), time.Second)

	ctx := context.Background()
	sc := NewSpacecraftClient(c)
	cg := NewCargoClient(c)

	exists, err := sc.SpacecraftExists(ctx, 3)
	require.NoError(t, err)
	assert.False(t, exists)

	craft, err := sc.GetSpacecraft(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Nostromo", craft.Name)

	exists, err = cg.CargoExists(ctx, 4)
	require.NoError(t, err)
	assert.False(t, exists)

	cargo, err := cg.GetCargo(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Ore", cargo.Name)
	assert.InDelta(t, 12.5, cargo.WeightKg, 0.001)

	assert.Equal(t, []string{
		"/api/spacecrafts/3/exists", "/api/spacecrafts/3",
		"/api/cargos/4/exists", "/api/cargos/4",
	}, paths)
}

func TestGetJSONStatusError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
		{"unauthorized", http.StatusUnauthorized},
		{"bad gateway", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}), time.Second)

			_, err := NewUserClient(c).GetUser(context.Background(), 999)
			require.Error(t, err)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, "userService", se.Dependency)
			assert.Equal(t, http.MethodGet, se.Method)
			assert.Contains(t, se.URL, "/api/users/999")
			assert.Equal(t, "nope", se.Body)

			code, ok := StatusCode(err)
			assert.True(t, ok)
			assert.Equal(t, tt.status, code)
		})
	}
}

func TestGetJSONDecodeError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{not json"))
	}), time.Second)

	_, err := NewUserClient(c).GetUser(context.Background(), 1)
	require.Error(t, err)
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
	_, isStatus := StatusCode(err)
	assert.False(t, isStatus)
}

func TestGetJSONTimeout(t *testing.T) {
	done := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-done:
		}
		writeJSON(w, http.StatusOK, true)
	}), 50*time.Millisecond)
	defer close(done)

	start := time.Now()
	_, err := NewUserClient(c).UserExists(context.Background(), 1)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	_, isStatus := StatusCode(err)
	assert.False(t, isStatus)
	assert.NotErrorIs(t, err, context.Canceled)
}

func TestGetJSONConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New("cargoService", &Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)
	_, err = NewCargoClient(c).CargoExists(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cargoService")
}

func TestGetJSONCallerCancellation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}), 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := NewUserClient(c).UserExists(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
