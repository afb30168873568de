package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/partyhost/game/config"
	"github.com/wricardo/partyhost/game/session"
	"github.com/wricardo/partyhost/transport/mcp"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Party Host Server" {
		t.Errorf("Expected app name %q, got %q", "Party Host Server", AppName)
	}
}

func TestFlagDefaults(t *testing.T) {
	cmd := newCommand()

	found := map[string]bool{}
	for _, f := range cmd.Flags {
		switch flag := f.(type) {
		case *cli.IntFlag:
			found[flag.Name] = true
			if flag.Name == "port" && flag.Value != 3001 {
				t.Errorf("Expected default port 3001, got %v", flag.Value)
			}
			if flag.Name == "code-digits" && flag.Value != session.DefaultCodeDigits {
				t.Errorf("Expected default code digits %d, got %v", session.DefaultCodeDigits, flag.Value)
			}
		case *cli.StringFlag:
			found[flag.Name] = true
			if flag.Name == "config-dir" && flag.Value != "configs" {
				t.Errorf("Expected default config dir 'configs', got %q", flag.Value)
			}
		case *cli.StringSliceFlag:
			found[flag.Name] = true
			if flag.Name == "client-origins" && (len(flag.Value) != 1 || flag.Value[0] != "http://localhost:5173") {
				t.Errorf("Unexpected default origins %v", flag.Value)
			}
		case *cli.BoolFlag:
			found[flag.Name] = true
		}
	}

	for _, name := range []string{"port", "host", "config-dir", "field-preset", "client-origins", "code-digits", "debug", "ngrok"} {
		if !found[name] {
			t.Errorf("Expected flag %q", name)
		}
	}
}

func TestOptionsFromFlags(t *testing.T) {
	cmd := newCommand()

	var got options
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		got = optionsFrom(c)
		return nil
	}

	args := []string{"partyhost",
		"--host", "0.0.0.0",
		"--port", "9090",
		"--config-dir", "/tmp/presets",
		"--field-preset", "expert",
		"--client-origins", "http://a.example,http://b.example",
		"--code-digits", "6",
	}
	if err := cmd.Run(context.Background(), args); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got.addr() != "0.0.0.0:9090" {
		t.Errorf("Expected addr 0.0.0.0:9090, got %s", got.addr())
	}
	if got.ConfigDir != "/tmp/presets" || got.FieldPreset != "expert" || got.CodeDigits != 6 {
		t.Errorf("Unexpected options: %+v", got)
	}
	if strings.Join(got.ClientOrigins, " ") != "http://a.example http://b.example" {
		t.Errorf("Unexpected origins: %v", got.ClientOrigins)
	}
}

func TestInitializeServices(t *testing.T) {
	if _, err := os.Stat("configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	svc, err := initializeServices(options{ConfigDir: "configs", CodeDigits: 5}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	if svc.hub == nil || svc.coordinator == nil || svc.presets == nil {
		t.Fatal("Expected all services to be initialized")
	}
	if got := svc.coordinator.Stats().Preset; got != "classic" {
		t.Errorf("Expected classic preset, got %q", got)
	}

	infos, err := svc.coordinator.Presets()
	if err != nil || len(infos) < 3 {
		t.Errorf("Expected bundled presets, got %d (%v)", len(infos), err)
	}
}

func TestInitializeServices_FieldPreset(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`{"name":"tiny","rows":4,"cols":4,"mines":2}`)
	if err := os.WriteFile(filepath.Join(dir, "tiny.json"), data, 0644); err != nil {
		t.Fatalf("Failed to write preset: %v", err)
	}

	svc, err := initializeServices(options{ConfigDir: dir, FieldPreset: "tiny", CodeDigits: 5}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	if stats := svc.coordinator.Stats(); stats.Preset != "tiny" || stats.Field.Mines != 2 {
		t.Errorf("Expected tiny field, got %+v", stats)
	}

	_, err = initializeServices(options{ConfigDir: dir, FieldPreset: "missing", CodeDigits: 5}, zap.NewNop())
	if !errors.Is(err, config.ErrPresetNotFound) {
		t.Errorf("Expected ErrPresetNotFound, got %v", err)
	}
}

func TestInitializeServices_MissingConfigDir(t *testing.T) {
	svc, err := initializeServices(options{ConfigDir: "/non/existent/path", CodeDigits: 5}, zap.NewNop())
	if err != nil {
		t.Fatalf("Expected built-in fallback, got %v", err)
	}
	if got := svc.coordinator.Stats().Field; got.Rows != 10 || got.Mines != 10 {
		t.Errorf("Expected built-in 10x10 field, got %+v", got)
	}

	_, err = initializeServices(options{ConfigDir: "/non/existent/path", FieldPreset: "expert", CodeDigits: 5}, zap.NewNop())
	if err == nil {
		t.Error("Expected error when a preset is requested without a preset directory")
	}
}

func TestInitializeServices_InvalidCodeDigits(t *testing.T) {
	_, err := initializeServices(options{ConfigDir: t.TempDir(), CodeDigits: 0}, zap.NewNop())
	if !errors.Is(err, session.ErrInvalidCodeDigits) {
		t.Errorf("Expected ErrInvalidCodeDigits, got %v", err)
	}
}

func TestMCPHTTPHandler(t *testing.T) {
	handler := mcpHTTPHandler(mcp.NewClient("http://localhost:0").GetMCPServer())

	t.Run("rejects GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/mcp", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", w.Code)
		}
	})

	t.Run("answers ping", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
		handler(w, httptest.NewRequest("POST", "/mcp", body))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"result"`) {
			t.Errorf("Expected JSON-RPC result, got %s", w.Body.String())
		}
	})
}
