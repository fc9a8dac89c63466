// Package dashboard adapts the teacher's real-time HTTP dashboard
// (dashboard/server.go) from a fixed total/success/failed session-engine
// view into a runner.Stats/HitResult view of one pipeline job:
//
//   - GET /api/metrics/stream – SSE stream of RunnerStats snapshots (100ms ticks)
//   - GET /api/logs/stream    – SSE stream of log entries, buffered history first
//   - GET /api/config         – the job's RunnerConfig (JSON, read-only)
//   - GET /metrics            – Prometheus exposition (internal/metrics)
//
// The cluster-node matrix and proxy-upload endpoints from the teacher's
// version are dropped: this engine runs one process per job (spec.md's
// Non-goals exclude distributed execution as a scheduling model), so
// there is no cluster to render and no second process to hand a proxy
// file to — proxies load from RunnerConfig.ProxyFile at startup instead.
package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ZeraTS/ironbullet-sub001/internal/config"
	"github.com/ZeraTS/ironbullet-sub001/internal/metrics"
	"github.com/ZeraTS/ironbullet-sub001/internal/runner"
)

// LogEntry is a structured log line streamed to dashboard clients.
type LogEntry struct {
	Timestamp int64  `json:"ts"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

const maxLogs = 10_000

// Server serves the live view of one runner.Orchestrator's job.
type Server struct {
	stats    *runner.Stats
	exporter *metrics.Exporter
	cfg      *config.RunnerConfig

	logMu    sync.Mutex
	logs     []LogEntry
	logSubs  map[chan LogEntry]struct{}
	logSubMu sync.Mutex

	metricsSubs  map[chan runner.Snapshot]struct{}
	metricsSubMu sync.Mutex

	mux *http.ServeMux
}

// New builds a Server over stats (read on every metrics tick and on demand
// via exporter) and cfg (served read-only at /api/config).
func New(stats *runner.Stats, exporter *metrics.Exporter, cfg *config.RunnerConfig) *Server {
	s := &Server{
		stats:       stats,
		exporter:    exporter,
		cfg:         cfg,
		logs:        make([]LogEntry, 0, 512),
		logSubs:     make(map[chan LogEntry]struct{}),
		metricsSubs: make(map[chan runner.Snapshot]struct{}),
		mux:         http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// AddLog appends a log entry to the ring buffer and fans it out to every
// active /api/logs/stream subscriber, dropping it for any subscriber whose
// channel is full rather than blocking the caller.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{Timestamp: time.Now().UnixMilli(), Level: level, Message: message}

	s.logMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}
	s.logMu.Unlock()

	s.logSubMu.Lock()
	for ch := range s.logSubs {
		select {
		case ch <- entry:
		default:
		}
	}
	s.logSubMu.Unlock()
}

// ListenAndServe starts the HTTP server on addr and blocks until the
// process exits. Starts the metrics ticker goroutine first.
func (s *Server) ListenAndServe(addr string) error {
	go s.metricsTicker()
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams are long-lived
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

// ServeHTTP lets a Server be mounted directly or wrapped by a reverse
// proxy/test harness without going through ListenAndServe.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/metrics/stream", s.withCORS(s.handleMetricsStream))
	s.mux.HandleFunc("/api/logs/stream", s.withCORS(s.handleLogsStream))
	s.mux.HandleFunc("/api/config", s.withCORS(s.handleConfig))
	s.mux.Handle("/metrics", s.exporter.Handler())
}

func (s *Server) withCORS(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h(w, r)
	}
}

func (s *Server) metricsTicker() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		snap := s.stats.Snapshot()
		s.exporter.Update(snap)

		s.metricsSubMu.Lock()
		for ch := range s.metricsSubs {
			select {
			case ch <- snap:
			default:
			}
		}
		s.metricsSubMu.Unlock()
	}
}

func (s *Server) handleMetricsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan runner.Snapshot, 16)
	s.metricsSubMu.Lock()
	s.metricsSubs[ch] = struct{}{}
	s.metricsSubMu.Unlock()
	defer func() {
		s.metricsSubMu.Lock()
		delete(s.metricsSubs, ch)
		s.metricsSubMu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			if err := sseWrite(w, snap); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleLogsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logMu.Lock()
	history := make([]LogEntry, len(s.logs))
	copy(history, s.logs)
	s.logMu.Unlock()

	for _, entry := range history {
		if err := sseWrite(w, entry); err != nil {
			return
		}
	}
	flusher.Flush()

	ch := make(chan LogEntry, 256)
	s.logSubMu.Lock()
	s.logSubs[ch] = struct{}{}
	s.logSubMu.Unlock()
	defer func() {
		s.logSubMu.Lock()
		delete(s.logSubs, ch)
		s.logSubMu.Unlock()
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-ch:
			if err := sseWrite(w, entry); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func sseWrite(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.cfg)
}
