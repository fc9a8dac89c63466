package config_test

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	if cfg.RunnerSettings.ThreadCount <= 0 {
		t.Errorf("ThreadCount should be > 0, got %d", cfg.RunnerSettings.ThreadCount)
	}
	if cfg.RequestTimeout <= 0 {
		t.Errorf("RequestTimeout should be > 0, got %v", cfg.RequestTimeout)
	}
	if cfg.ProxySettings.Mode != "None" {
		t.Errorf("default proxy mode = %q, want None", cfg.ProxySettings.Mode)
	}
}

func TestLoadConfigValidFile(t *testing.T) {
	raw := map[string]interface{}{
		"sidecar_binary_path":   "",
		"dashboard_listen_addr": "127.0.0.1:8787",
		"proxy_file":            "",
		"output_sink_path":      "",
		"request_timeout":       int64(30 * time.Second),
		"proxy_settings": map[string]interface{}{
			"mode": "Rotate",
		},
		"runner_settings": map[string]interface{}{
			"thread_count": 20,
			"max_retries":  2,
		},
	}
	f, err := os.CreateTemp(t.TempDir(), "config*.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := json.NewEncoder(f).Encode(raw); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RunnerSettings.ThreadCount != 20 {
		t.Errorf("got ThreadCount=%d, want 20", cfg.RunnerSettings.ThreadCount)
	}
	if cfg.ProxySettings.Mode != "Rotate" {
		t.Errorf("got Mode=%q, want Rotate", cfg.ProxySettings.Mode)
	}
	if cfg.DashboardListenAddr != "127.0.0.1:8787" {
		t.Errorf("got DashboardListenAddr=%q, want 127.0.0.1:8787", cfg.DashboardListenAddr)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := config.LoadConfig("/nonexistent/path/config.json"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadConfigRejectsUnknownField(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "bad*.json")
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString(`{"not_a_real_field": true}`)
	f.Close()

	if _, err := config.LoadConfig(f.Name()); err == nil {
		t.Error("expected error for unknown field, got nil")
	}
}
