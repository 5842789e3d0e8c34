package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BabyKeeper/internal/cli/api"
	"BabyKeeper/internal/config"
)

// withTempUserConfig redirects both the fs auth store and the client DB into
// a per-test directory.
func withTempUserConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if runtime.GOOS == "windows" {
		t.Setenv("APPDATA", dir)
	} else {
		t.Setenv("XDG_CONFIG_HOME", dir)
	}
	t.Setenv("CLIENT_DB_PATH", filepath.Join(dir, "db"))
}

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Out
	Out = &buf
	t.Cleanup(func() { Out = old })
	return &buf
}

func testConfig(serverURL string) *config.Config {
	return &config.Config{
		ServerURL:     serverURL,
		HTTPTimeout:   5 * time.Second,
		SyncInterval:  time.Second,
		SessionTTL:    time.Hour,
		PullPageLimit: 100,
	}
}

// babyServer fakes the endpoints a signed-in CLI session touches.
func babyServer(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "test-token"})
		_ = json.NewEncoder(w).Encode(api.LoginResponse{UserID: "u1", ExternalID: "ext-u1"})
	})
	mux.HandleFunc("/api/user/register", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "test-token"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/sync/bootstrap", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.BootstrapResponse{
			User:          api.UserDTO{ID: "u1", ExternalID: "ext-u1", Email: "mum@example.com", DefaultBabyID: "b1", CreatedAt: now, UpdatedAt: now},
			Babies:        []api.BabyDTO{{ID: "b1", Name: "Ada", OwnerUserID: "u1", CreatedAt: now, UpdatedAt: now}},
			BabyAccess:    []api.AccessDTO{{BabyID: "b1", UserID: "u1", AccessLevel: "owner"}},
			CursorsByBaby: map[string]int64{"b1": 0},
			ServerTime:    now,
		})
	})
	mux.HandleFunc("/api/sync/pull", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.PullResponse{})
	})
	mux.HandleFunc("/api/sync/push", func(w http.ResponseWriter, r *http.Request) {
		var req api.PushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var resp api.PushResponse
		for _, m := range req.Mutations {
			resp.Results = append(resp.Results, api.MutationResult{MutationID: m.MutationID, Status: api.ResultSuccess})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDispatchUnknownCommand(t *testing.T) {
	buf := captureOut(t)
	code := Dispatch(context.Background(), testConfig("http://localhost:1"), []string{"frobnicate"})
	assert.Equal(t, 2, code)
	assert.Contains(t, buf.String(), "Unknown command")
}

func TestDispatchHelpListsCommands(t *testing.T) {
	buf := captureOut(t)
	code := Dispatch(context.Background(), testConfig("http://localhost:1"), []string{"help"})
	assert.Equal(t, 0, code)
	out := buf.String()
	assert.Contains(t, out, "login")
	assert.Contains(t, out, "add-feed")
	assert.Contains(t, out, "logout")
}

func TestLoginLogFeedSyncFlow(t *testing.T) {
	withTempUserConfig(t)
	srv := babyServer(t)
	cfg := testConfig(srv.URL)
	ctx := context.Background()

	buf := captureOut(t)
	require.Equal(t, 0, Dispatch(ctx, cfg, []string{"login", "mum@example.com", "pw"}), buf.String())
	assert.Contains(t, buf.String(), "Signed in.")

	buf.Reset()
	require.Equal(t, 0, Dispatch(ctx, cfg, []string{"add-feed", "bottle", "--ml", "120"}), buf.String())
	assert.Contains(t, buf.String(), "Feed logged")

	buf.Reset()
	require.Equal(t, 0, Dispatch(ctx, cfg, []string{"status"}), buf.String())
	assert.Contains(t, buf.String(), "1 pending")

	buf.Reset()
	require.Equal(t, 0, Dispatch(ctx, cfg, []string{"sync"}), buf.String())
	assert.Contains(t, buf.String(), "Everything is in sync.")

	buf.Reset()
	require.Equal(t, 0, Dispatch(ctx, cfg, []string{"logs", "feed"}), buf.String())
	assert.Contains(t, buf.String(), "120 ml")
}

func TestLogoutGuardBlocksWithQueuedWork(t *testing.T) {
	withTempUserConfig(t)
	srv := babyServer(t)
	cfg := testConfig(srv.URL)
	ctx := context.Background()

	buf := captureOut(t)
	require.Equal(t, 0, Dispatch(ctx, cfg, []string{"login", "mum@example.com", "pw"}), buf.String())
	require.Equal(t, 0, Dispatch(ctx, cfg, []string{"add-nappy", "wee"}), buf.String())

	buf.Reset()
	code := Dispatch(ctx, cfg, []string{"logout"})
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "unsynced change")

	// --sync delivers the queue, then signs out.
	buf.Reset()
	require.Equal(t, 0, Dispatch(ctx, cfg, []string{"logout", "--sync"}), buf.String())
	assert.Contains(t, buf.String(), "signed out")
}

func TestAddFeedRequiresSession(t *testing.T) {
	withTempUserConfig(t)
	buf := captureOut(t)
	code := Dispatch(context.Background(), testConfig("http://localhost:1"), []string{"add-feed", "bottle"})
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "not signed in")
}

func TestAddFeedUsageOnBadArgs(t *testing.T) {
	withTempUserConfig(t)
	buf := captureOut(t)
	code := Dispatch(context.Background(), testConfig("http://localhost:1"), []string{"add-feed"})
	assert.Equal(t, 2, code)
	assert.Contains(t, buf.String(), "Usage:")
}
