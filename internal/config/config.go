// Package config loads the process-level runner configuration — distinct
// from a pipeline's own .rfx document (internal/pipeline): this is the
// "how the binary starts up" document (thread defaults, sidecar binary,
// dashboard address, proxy file, output sink), generalized from the
// teacher's config.Config/LoadConfig/DefaultConfig pattern.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ProxySettings mirrors pipeline.ProxySettings' field set. It is decoded from
// the config file and served by the dashboard's /api/config; cmd/ironbullet
// builds the proxy pool from the pipeline file's proxy_settings alone and
// does not merge this copy into them.
type ProxySettings struct {
	Mode                string   `json:"mode"`
	Sources             []string `json:"sources"`
	BanDurationSecs     int      `json:"ban_duration_secs"`
	MaxRetriesBeforeBan int      `json:"max_retries_before_ban"`
	ConcurrentPerProxy  int      `json:"concurrent_per_proxy"`
}

// RunnerSettings mirrors pipeline.RunnerSettings' field set. As with
// ProxySettings above, the run takes its runner settings from the pipeline
// file; this copy is not merged into them.
type RunnerSettings struct {
	ThreadCount             int      `json:"thread_count"`
	AutomaticThreadCount    bool     `json:"automatic_thread_count"`
	StartThreadsGradually   bool     `json:"start_threads_gradually"`
	GradualDelayMs          int64    `json:"gradual_delay_ms"`
	ContinueStatuses        []string `json:"continue_statuses"`
	MaxRetries              int      `json:"max_retries"`
	LowerThreadsOnRetry     bool     `json:"lower_threads_on_retry"`
	RetryThreadReductionPct int      `json:"retry_thread_reduction_pct"`
	PauseOnRatelimit        bool     `json:"pause_on_ratelimit"`
	PauseMs                 int64    `json:"pause_ms"`
}

// RunnerConfig holds every tunable the CLI needs before it can load a
// pipeline and start running records against it.
type RunnerConfig struct {
	// SidecarBinaryPath is the external process backing tls_client
	// sessions; empty selects the in-process uTLS/HTTP2 backend.
	SidecarBinaryPath string `json:"sidecar_binary_path"`

	// DashboardListenAddr starts internal/dashboard on this address when
	// non-empty, e.g. "127.0.0.1:8787". The -dashboard flag, when set,
	// takes precedence.
	DashboardListenAddr string `json:"dashboard_listen_addr"`

	// ProxyFile is a newline-delimited proxy list. cmd/ironbullet loads it
	// as the proxy list only when the pipeline's proxy_settings.mode is not
	// None and its proxy_settings.sources is empty; a pipeline that lists
	// sources does not read it.
	ProxyFile string `json:"proxy_file"`

	// OutputSinkPath is where classified hits are appended; empty means
	// stdout.
	OutputSinkPath string `json:"output_sink_path"`

	// RequestTimeout is decoded and defaulted (30s) but not read by the run;
	// each HttpRequest block's timeout_ms bounds its own round trip.
	RequestTimeout time.Duration `json:"request_timeout"`

	ProxySettings  ProxySettings  `json:"proxy_settings"`
	RunnerSettings RunnerSettings `json:"runner_settings"`
}

// LoadConfig reads filename as JSON into a RunnerConfig. Unknown fields are
// rejected so a typo'd key fails loudly at startup instead of silently
// falling back to a zero value.
func LoadConfig(filename string) (*RunnerConfig, error) {
	f, err := os.Open(filename) // #nosec G304 -- filename is caller-provided config path
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", filename, err)
	}
	defer f.Close()

	var cfg RunnerConfig
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %q: %w", filename, err)
	}
	return &cfg, nil
}

// DefaultConfig returns a RunnerConfig pre-filled with production-sensible
// defaults for a single headless run with no proxies and no dashboard.
func DefaultConfig() *RunnerConfig {
	return &RunnerConfig{
		RequestTimeout: 30 * time.Second,
		RunnerSettings: RunnerSettings{
			ThreadCount:      50,
			ContinueStatuses: []string{"Retry"},
			MaxRetries:       3,
		},
		ProxySettings: ProxySettings{
			Mode:                "None",
			MaxRetriesBeforeBan: 3,
			BanDurationSecs:     300,
		},
	}
}
