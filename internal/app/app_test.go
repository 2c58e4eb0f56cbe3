package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/tally/internal/config"
	"github.com/five82/tally/internal/finala"
)

func TestLoadConfigAppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("ui_url = \"http://finala:8080\"\npoll_interval = \"10s\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.UIURL != "http://finala:8080" || cfg.PollInterval != 10*time.Second {
		t.Fatalf("unexpected config without overrides: %+v", cfg)
	}

	cfg, err = LoadConfig(Options{ConfigPath: path, URL: " http://other:9090 ", PollEvery: 2 * time.Second})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.UIURL != "http://other:9090" {
		t.Fatalf("UIURL = %q, want override", cfg.UIURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
}

func TestLoadConfigWrapsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("poll_interval = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(Options{ConfigPath: path})
	if err == nil || !strings.Contains(err.Error(), "load tally config") {
		t.Fatalf("expected wrapped config error, got %v", err)
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		verbose bool
		debug   bool
		want    slog.Level
	}{
		{"config default", "info", false, false, slog.LevelInfo},
		{"config warn", "warn", false, false, slog.LevelWarn},
		{"config invalid", "loud", false, false, slog.LevelInfo},
		{"verbose beats config", "error", true, false, slog.LevelInfo},
		{"debug beats verbose", "error", true, true, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogLevel(config.Config{LogLevel: tt.level}, tt.verbose, tt.debug)
			if got != tt.want {
				t.Fatalf("LogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tally.log")

	for _, msg := range []string{"first", "second"} {
		logger, closer, err := OpenLog(path, slog.LevelInfo)
		if err != nil {
			t.Fatalf("OpenLog: %v", err)
		}
		logger.Debug("hidden")
		logger.Info(msg)
		if err := closer.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "msg=first") || !strings.Contains(text, "msg=second") {
		t.Fatalf("log missing entries:\n%s", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatalf("debug entry written at info level:\n%s", text)
	}
}

func finalaServer(t *testing.T, password string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/settings":
			_ = json.NewEncoder(w).Encode(map[string]string{"api_endpoint": srv.URL})
		case "/api/v1/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["Password"] != password {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
		case "/api/v1/executions":
			if c, err := r.Cookie("session"); err != nil || c.Value != "ok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, `[{"ID":"E1","Name":"nightly","Time":"2024-05-01T03:00:00Z"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConnectLogsIn(t *testing.T) {
	srv := finalaServer(t, "secret")
	cfg := config.Config{UIURL: srv.URL, Username: "admin", Password: "secret", RequestTimeout: 5 * time.Second}

	client, err := Connect(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	list, err := client.FetchExecutions(context.Background())
	if err != nil {
		t.Fatalf("FetchExecutions after login: %v", err)
	}
	if len(list) != 1 || list[0].ID != "E1" {
		t.Fatalf("executions = %+v", list)
	}
}

func TestConnectKeepsPinnedAPIURL(t *testing.T) {
	api := finalaServer(t, "secret")
	ui := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"api_endpoint": "http://elsewhere.invalid:9"})
	}))
	t.Cleanup(ui.Close)
	cfg := config.Config{UIURL: ui.URL, APIURL: api.URL, Username: "admin", Password: "secret", RequestTimeout: 5 * time.Second}

	client, err := Connect(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := client.FetchSettings(context.Background()); err != nil {
		t.Fatalf("FetchSettings: %v", err)
	}
	if client.BaseURL() != api.URL {
		t.Fatalf("BaseURL = %q, want pinned %q", client.BaseURL(), api.URL)
	}
	if _, err := client.FetchExecutions(context.Background()); err != nil {
		t.Fatalf("FetchExecutions on pinned origin: %v", err)
	}
}

func TestConnectRejectedLogin(t *testing.T) {
	srv := finalaServer(t, "secret")
	cfg := config.Config{UIURL: srv.URL, Username: "admin", Password: "wrong", RequestTimeout: 5 * time.Second}

	_, err := Connect(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !errors.Is(err, finala.ErrUnauthorized) {
		t.Fatalf("Connect error = %v, want ErrUnauthorized", err)
	}
}

func TestConnectWithoutCredentialsSkipsLogin(t *testing.T) {
	srv := finalaServer(t, "secret")
	cfg := config.Config{UIURL: srv.URL, RequestTimeout: 5 * time.Second}

	client, err := Connect(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := client.FetchExecutions(context.Background()); !errors.Is(err, finala.ErrUnauthorized) {
		t.Fatalf("FetchExecutions without session = %v, want ErrUnauthorized", err)
	}
}
