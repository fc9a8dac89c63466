// Command ironbullet runs one pipeline headlessly against a wordlist,
// generalizing the teacher's main.go startup sequence (load config, load
// proxies, start metrics/dashboard, start the worker pool, block on
// signals, shut down cleanly) from a fixed session-engine job into a
// pipeline-driven run: load config, load pipeline, load wordlist, run the
// Orchestrator, stream hits to the configured sink, exit 0 on clean
// completion (spec.md §6).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/applog"
	"github.com/ZeraTS/ironbullet-sub001/internal/config"
	"github.com/ZeraTS/ironbullet-sub001/internal/dashboard"
	"github.com/ZeraTS/ironbullet-sub001/internal/engerr"
	"github.com/ZeraTS/ironbullet-sub001/internal/metrics"
	"github.com/ZeraTS/ironbullet-sub001/internal/pipeline"
	"github.com/ZeraTS/ironbullet-sub001/internal/proxy"
	"github.com/ZeraTS/ironbullet-sub001/internal/runner"
	"github.com/ZeraTS/ironbullet-sub001/internal/sidecar"
)

func main() {
	configPath := flag.String("config", "", "path to the runner config JSON (optional; uses defaults if omitted)")
	pipelinePath := flag.String("pipeline", "", "path to the .rfx pipeline file (required)")
	wordlistPath := flag.String("wordlist", "", "path to the newline-delimited input wordlist (required)")
	dashboardAddr := flag.String("dashboard", "", "address for the live dashboard HTTP server, e.g. 127.0.0.1:8787 (optional)")
	flag.Parse()

	log := applog.New(applog.LevelInfo)
	log.Info("ironbullet starting up")

	cfg, err := loadRunnerConfig(*configPath, log)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	if *pipelinePath == "" {
		log.Error("ironbullet: -pipeline is required")
		os.Exit(1)
	}
	p, err := pipeline.Load(*pipelinePath)
	if err != nil {
		log.Errorf("%v", engerr.NewConfigError(*pipelinePath, err))
		os.Exit(1)
	}
	log.Infof("pipeline %q loaded from %q (%d blocks)", p.Name, *pipelinePath, len(p.Blocks))

	if *wordlistPath == "" {
		log.Error("ironbullet: -wordlist is required")
		os.Exit(1)
	}
	records, err := loadWordlist(*wordlistPath, p.DataSettings.Separator, p.DataSettings.Slices)
	if err != nil {
		log.Errorf("%v", engerr.NewConfigError(*wordlistPath, err))
		os.Exit(1)
	}
	log.Infof("loaded %d records from %q", len(records), *wordlistPath)

	proxies, err := buildProxyPool(p, cfg, log)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	sender, closeSender, err := buildSender(cfg, log)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	defer closeSender()

	dataPool := runner.NewDataPool(records, p.RunnerSettings.Skip, p.RunnerSettings.Take)
	orch := runner.NewOrchestrator(p, dataPool, proxies, sender, nil, 256)

	var dash *dashboard.Server
	dashAddr := *dashboardAddr
	if dashAddr == "" {
		dashAddr = cfg.DashboardListenAddr
	}
	if dashAddr != "" {
		exporter := metrics.NewExporter()
		dash = dashboard.New(orch.Stats, exporter, cfg)
		go func() {
			if err := dash.ListenAndServe(dashAddr); err != nil {
				log.Errorf("dashboard server error: %v", err)
			}
		}()
		log.Infof("dashboard listening on %s", dashAddr)
	}

	sink, closeSink, err := openOutputSink(cfg.OutputSinkPath)
	if err != nil {
		log.Errorf("%v", engerr.NewConfigError(cfg.OutputSinkPath, err))
		os.Exit(1)
	}
	defer closeSink()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("received signal %s; stopping after in-flight records finish", sig)
		cancel()
	}()

	hitsDone := make(chan struct{})
	go func() {
		defer close(hitsDone)
		for hit := range orch.Hits {
			fmt.Fprintf(sink, "%s\t%s\t%s\n", hit.Status, hit.DataLine, formatCaptures(hit.Captures))
			if dash != nil {
				dash.AddLog("INFO", fmt.Sprintf("hit: status=%s line=%s", hit.Status, hit.DataLine))
			}
		}
	}()

	summaryDone := make(chan struct{})
	go logSummary(ctx, orch.Stats, log, summaryDone)

	orch.Run(ctx)
	cancel()
	<-hitsDone
	<-summaryDone

	snap := orch.Stats.Snapshot()
	log.Infof("done: attempted=%d success=%d fail=%d ban=%d retry=%d custom=%d error=%d elapsed=%dms",
		snap.Attempted, snap.SuccessCount, snap.FailCount, snap.BanCount,
		snap.RetryCount, snap.CustomCount, snap.ErrorCount, snap.ElapsedMs)
}

func loadRunnerConfig(path string, log *applog.Logger) (*config.RunnerConfig, error) {
	if path == "" {
		log.Info("using default runner configuration")
		return config.DefaultConfig(), nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, engerr.NewConfigError(path, err)
	}
	log.Infof("runner configuration loaded from %q", path)
	return cfg, nil
}

func loadWordlist(path, separator string, slots []string) ([]runner.Record, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-provided path
	if err != nil {
		return nil, fmt.Errorf("wordlist: open %q: %w", path, err)
	}
	defer f.Close()

	var records []runner.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		records = append(records, runner.SplitRecord(line, separator, slots))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("wordlist: read %q: %w", path, err)
	}
	return records, nil
}

func buildProxyPool(p *pipeline.Pipeline, cfg *config.RunnerConfig, log *applog.Logger) (runner.ProxyPool, error) {
	if p.ProxySettings.Mode == proxy.ModeNone {
		return nil, nil
	}

	sources := p.ProxySettings.Sources
	if len(sources) == 0 && cfg.ProxyFile != "" {
		loaded, err := proxy.LoadProxiesFromFile(cfg.ProxyFile)
		if err != nil {
			return nil, engerr.NewConfigError(cfg.ProxyFile, err)
		}
		sources = loaded
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("ironbullet: proxy_settings.mode is %q but no proxy sources were configured", p.ProxySettings.Mode)
	}

	pool := proxy.NewPool(sources, proxy.Options{
		ConcurrentPerProxy:  p.ProxySettings.ConcurrentPerProxy,
		MaxRetriesBeforeBan: p.ProxySettings.MaxRetriesBeforeBan,
		BanDuration:         time.Duration(p.ProxySettings.BanDurationSecs) * time.Second,
	})
	log.Infof("loaded %d proxies, mode=%s", pool.Count(), p.ProxySettings.Mode)
	return pool, nil
}

func buildSender(cfg *config.RunnerConfig, log *applog.Logger) (sidecar.Sender, func(), error) {
	if cfg.SidecarBinaryPath == "" {
		return sidecar.NewInProc(), func() {}, nil
	}
	mgr := sidecar.NewManager(log)
	sender, err := mgr.GetOrStart(cfg.SidecarBinaryPath)
	if err != nil {
		return nil, func() {}, engerr.NewSidecarError("start", err)
	}
	return sender, mgr.Stop, nil
}

func openOutputSink(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) // #nosec G304 -- caller-provided path
	if err != nil {
		return nil, func() {}, err
	}
	return f, func() { f.Close() }, nil
}

func formatCaptures(captures map[string]string) string {
	out := ""
	for k, v := range captures {
		if out != "" {
			out += "|"
		}
		out += k + "=" + v
	}
	return out
}

func logSummary(ctx context.Context, stats *runner.Stats, log *applog.Logger, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := stats.Snapshot()
			log.Infof("progress: attempted=%d success=%d fail=%d cpm=%d threads=%d",
				snap.Attempted, snap.SuccessCount, snap.FailCount, snap.CPM, snap.ThreadsActive)
		}
	}
}
