package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/proxy"
)

// FormatVersion is the .rfx schema version this build reads and writes.
// Bumped whenever a wire-incompatible change lands in Pipeline's shape.
const FormatVersion = 1

// rfxDocument is the top-level .rfx shape: format_version plus the
// Pipeline fields, spelled out rather than embedding Pipeline so the
// wire field names stay independent of Go's struct field names.
type rfxDocument struct {
	FormatVersion int                 `json:"format_version"`
	Name          string              `json:"name"`
	Author        string              `json:"author"`
	Metadata      map[string]string   `json:"metadata,omitempty"`
	Blocks        []block.Block       `json:"blocks"`
	StartupBlocks []block.Block       `json:"startup_blocks,omitempty"`
	DataSettings  rfxDataSettings     `json:"data_settings"`
	ProxySettings rfxProxySettings    `json:"proxy_settings"`
	RunnerSettings rfxRunnerSettings  `json:"runner_settings"`
	OutputSettings rfxOutputSettings  `json:"output_settings"`
}

type rfxDataSettings struct {
	Separator string   `json:"separator"`
	Slices    []string `json:"slices"`
}

type rfxProxySettings struct {
	Mode                string   `json:"mode"`
	Sources             []string `json:"sources,omitempty"`
	BanDurationSecs     int      `json:"ban_duration_secs"`
	MaxRetriesBeforeBan int      `json:"max_retries_before_ban"`
	ConcurrentPerProxy  int      `json:"concurrent_per_proxy"`
}

type rfxRunnerSettings struct {
	ThreadCount             int      `json:"thread_count"`
	AutomaticThreadCount    bool     `json:"automatic_thread_count"`
	StartThreadsGradually   bool     `json:"start_threads_gradually"`
	GradualDelayMs          int64    `json:"gradual_delay_ms"`
	Skip                    int      `json:"skip"`
	Take                    int      `json:"take"`
	ContinueStatuses        []string `json:"continue_statuses,omitempty"`
	MaxRetries              int      `json:"max_retries"`
	LowerThreadsOnRetry     bool     `json:"lower_threads_on_retry"`
	RetryThreadReductionPct int      `json:"retry_thread_reduction_pct"`
	PauseOnRatelimit        bool     `json:"pause_on_ratelimit"`
	PauseMs                 int64    `json:"pause_ms"`
}

type rfxOutputSettings struct {
	HitFormat      string   `json:"hit_format"`
	OutputFile     string   `json:"output_file,omitempty"`
	CaptureFilters []string `json:"capture_filters,omitempty"`
}

func toWire(p *Pipeline) rfxDocument {
	return rfxDocument{
		FormatVersion: FormatVersion,
		Name:          p.Name,
		Author:        p.Author,
		Metadata:      p.Metadata,
		Blocks:        p.Blocks,
		StartupBlocks: p.StartupBlocks,
		DataSettings: rfxDataSettings{
			Separator: p.DataSettings.Separator,
			Slices:    p.DataSettings.Slices,
		},
		ProxySettings: rfxProxySettings{
			Mode:                string(p.ProxySettings.Mode),
			Sources:             p.ProxySettings.Sources,
			BanDurationSecs:     p.ProxySettings.BanDurationSecs,
			MaxRetriesBeforeBan: p.ProxySettings.MaxRetriesBeforeBan,
			ConcurrentPerProxy:  p.ProxySettings.ConcurrentPerProxy,
		},
		RunnerSettings: rfxRunnerSettings{
			ThreadCount:             p.RunnerSettings.ThreadCount,
			AutomaticThreadCount:    p.RunnerSettings.AutomaticThreadCount,
			StartThreadsGradually:   p.RunnerSettings.StartThreadsGradually,
			GradualDelayMs:          p.RunnerSettings.GradualDelayMs,
			Skip:                    p.RunnerSettings.Skip,
			Take:                    p.RunnerSettings.Take,
			ContinueStatuses:        p.RunnerSettings.ContinueStatuses,
			MaxRetries:              p.RunnerSettings.MaxRetries,
			LowerThreadsOnRetry:     p.RunnerSettings.LowerThreadsOnRetry,
			RetryThreadReductionPct: p.RunnerSettings.RetryThreadReductionPct,
			PauseOnRatelimit:        p.RunnerSettings.PauseOnRatelimit,
			PauseMs:                 p.RunnerSettings.PauseMs,
		},
		OutputSettings: rfxOutputSettings{
			HitFormat:      p.OutputSettings.HitFormat,
			OutputFile:     p.OutputSettings.OutputFile,
			CaptureFilters: p.OutputSettings.CaptureFilters,
		},
	}
}

func fromWire(doc rfxDocument) (*Pipeline, error) {
	if doc.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("pipeline: unsupported format_version %d (want %d)", doc.FormatVersion, FormatVersion)
	}
	return &Pipeline{
		Name:          doc.Name,
		Author:        doc.Author,
		Metadata:      doc.Metadata,
		Blocks:        doc.Blocks,
		StartupBlocks: doc.StartupBlocks,
		DataSettings: DataSettings{
			Separator: doc.DataSettings.Separator,
			Slices:    doc.DataSettings.Slices,
		},
		ProxySettings: ProxySettings{
			Mode:                proxy.Mode(doc.ProxySettings.Mode),
			Sources:             doc.ProxySettings.Sources,
			BanDurationSecs:     doc.ProxySettings.BanDurationSecs,
			MaxRetriesBeforeBan: doc.ProxySettings.MaxRetriesBeforeBan,
			ConcurrentPerProxy:  doc.ProxySettings.ConcurrentPerProxy,
		},
		RunnerSettings: RunnerSettings{
			ThreadCount:             doc.RunnerSettings.ThreadCount,
			AutomaticThreadCount:    doc.RunnerSettings.AutomaticThreadCount,
			StartThreadsGradually:   doc.RunnerSettings.StartThreadsGradually,
			GradualDelayMs:          doc.RunnerSettings.GradualDelayMs,
			Skip:                    doc.RunnerSettings.Skip,
			Take:                    doc.RunnerSettings.Take,
			ContinueStatuses:        doc.RunnerSettings.ContinueStatuses,
			MaxRetries:              doc.RunnerSettings.MaxRetries,
			LowerThreadsOnRetry:     doc.RunnerSettings.LowerThreadsOnRetry,
			RetryThreadReductionPct: doc.RunnerSettings.RetryThreadReductionPct,
			PauseOnRatelimit:        doc.RunnerSettings.PauseOnRatelimit,
			PauseMs:                 doc.RunnerSettings.PauseMs,
		},
		OutputSettings: OutputSettings{
			HitFormat:      doc.OutputSettings.HitFormat,
			OutputFile:     doc.OutputSettings.OutputFile,
			CaptureFilters: doc.OutputSettings.CaptureFilters,
		},
	}, nil
}

// Marshal encodes p as a .rfx document.
func Marshal(p *Pipeline) ([]byte, error) {
	raw, err := json.MarshalIndent(toWire(p), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("pipeline: encoding: %w", err)
	}
	return raw, nil
}

// Unmarshal decodes a .rfx document. Block decoding (via block.Block's
// json.Unmarshaler) fails with a structured error citing the offending
// block_type and id when the document references an unrecognized variant.
func Unmarshal(data []byte) (*Pipeline, error) {
	var doc rfxDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("pipeline: decoding: %w", err)
	}
	return fromWire(doc)
}

// Load reads and decodes the .rfx document at path.
func Load(path string) (*Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading %s: %w", path, err)
	}
	p, err := Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("pipeline: loading %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path as a .rfx document.
func Save(path string, p *Pipeline) error {
	raw, err := Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("pipeline: writing %s: %w", path, err)
	}
	return nil
}
