// Package pipeline defines the Pipeline document — the program a runner
// executes once per input record — and its .rfx JSON persistence.
package pipeline

import (
	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/proxy"
)

// Pipeline is the full program: ordered main blocks plus the settings that
// govern how a runner feeds it input records and proxies.
type Pipeline struct {
	Name     string
	Author   string
	Metadata map[string]string

	Blocks        []block.Block
	StartupBlocks []block.Block

	DataSettings   DataSettings
	ProxySettings  ProxySettings
	RunnerSettings RunnerSettings
	OutputSettings OutputSettings
}

// DataSettings describes how a wordlist line splits into named slots, e.g.
// "user:pass" with Separator=":" and Slices=["USER","PASS"] binds
// input.USER and input.PASS for each record.
type DataSettings struct {
	Separator string
	Slices    []string
}

// ProxySettings mirrors internal/proxy's policy knobs plus the sourcing
// mode (spec.md §3's proxy_settings).
type ProxySettings struct {
	Mode                proxy.Mode
	Sources             []string
	BanDurationSecs     int
	MaxRetriesBeforeBan int
	ConcurrentPerProxy  int
}

// RunnerSettings governs the worker pool and retry/classification policy
// (spec.md §4.F).
type RunnerSettings struct {
	ThreadCount           int
	AutomaticThreadCount  bool
	StartThreadsGradually bool
	GradualDelayMs        int64

	Skip int
	Take int // 0 means "no limit"

	// ContinueStatuses names the BotStatus values that trigger a retry
	// rather than a terminal classification; defaults to ["Retry"] when
	// empty (see runner.DefaultContinueStatuses).
	ContinueStatuses []string
	MaxRetries       int

	LowerThreadsOnRetry     bool
	RetryThreadReductionPct int

	PauseOnRatelimit bool
	PauseMs          int64
}

// OutputSettings controls where hits go once classified Success/Custom.
type OutputSettings struct {
	HitFormat      string
	OutputFile     string
	CaptureFilters []string
}
