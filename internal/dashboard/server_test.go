package dashboard_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/config"
	"github.com/ZeraTS/ironbullet-sub001/internal/dashboard"
	"github.com/ZeraTS/ironbullet-sub001/internal/metrics"
	"github.com/ZeraTS/ironbullet-sub001/internal/runner"
)

func newTestServer() *dashboard.Server {
	cfg := config.DefaultConfig()
	cfg.DashboardListenAddr = "127.0.0.1:0"
	return dashboard.New(runner.NewStats(), metrics.NewExporter(), cfg)
}

func TestAddLogAppendsToRingBuffer(t *testing.T) {
	s := newTestServer()
	s.AddLog("INFO", "job started")
	s.AddLog("ERROR", "proxy exhausted")
	// AddLog must not panic or block with zero subscribers; behavior is
	// further exercised via /api/logs/stream in an integration setting.
}

func TestConfigEndpointReturnsJSON(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RunnerSettings.ThreadCount = 7
	s := dashboard.New(runner.NewStats(), metrics.NewExporter(), cfg)

	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/config")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got config.RunnerConfig
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunnerSettings.ThreadCount != 7 {
		t.Errorf("ThreadCount = %d, want 7", got.RunnerSettings.ThreadCount)
	}
}

func TestMetricsEndpointServesPrometheusExposition(t *testing.T) {
	s := dashboard.New(runner.NewStats(), metrics.NewExporter(), config.DefaultConfig())

	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
