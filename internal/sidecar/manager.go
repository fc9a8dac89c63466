package sidecar

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ZeraTS/ironbullet-sub001/internal/applog"
)

// Manager owns the lifecycle of the child-process transport: it resolves
// the sidecar binary's path, spawns it on first use, and hands out the
// same Sender to every caller while the process stays alive.
type Manager struct {
	log *applog.Logger

	mu  sync.Mutex
	mux *Multiplexer
}

// NewManager returns a Manager that has not yet started a sidecar process.
func NewManager(log *applog.Logger) *Manager {
	return &Manager{log: log}
}

// GetOrStart reuses the running sidecar's Sender if the process is still
// alive, otherwise resolves name, pre-flight-checks it, and spawns a fresh
// one.
func (m *Manager) GetOrStart(name string) (Sender, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mux != nil && m.mux.Alive() {
		return m.mux, nil
	}

	path, err := ResolveSidecarPath(name)
	if err != nil {
		return nil, err
	}

	mux, err := StartMultiplexer(path, m.log)
	if err != nil {
		return nil, err
	}
	m.mux = mux
	return mux, nil
}

// Stop terminates the running sidecar process, if any.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mux != nil {
		_ = m.mux.Close()
		m.mux = nil
	}
}

// binaryName returns the platform-appropriate sidecar executable name.
func binaryName(name string) string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

// ResolveSidecarPath implements the pre-flight resolution order from the
// sidecar multiplexer's spec: absolute path, next to the current
// executable, two levels and one level up from the executable under a
// sidecar/ folder, then the current working directory (with and without a
// sidecar/ subfolder). The first candidate that exists and is executable
// wins; otherwise a structured error lists every path tried.
func ResolveSidecarPath(name string) (string, error) {
	name = binaryName(name)

	if filepath.IsAbs(name) {
		if isExecutableFile(name) {
			return name, nil
		}
		return "", fmt.Errorf("sidecar: not found at absolute path %q", name)
	}

	var candidates []string

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(exeDir, name),
			filepath.Join(exeDir, "..", "..", "sidecar", name),
			filepath.Join(exeDir, "..", "sidecar", name),
		)
	}

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates,
			filepath.Join(cwd, "sidecar", name),
			filepath.Join(cwd, name),
		)
	}

	for _, c := range candidates {
		if isExecutableFile(c) {
			abs, err := filepath.Abs(c)
			if err != nil {
				return c, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("sidecar: binary %q not found; tried: %v", name, candidates)
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}

// LookPathFallback resolves a bare binary name via PATH (e.g. a sidecar
// installed system-wide). Nothing in the tree calls it, and
// ResolveSidecarPath does not consult PATH.
func LookPathFallback(name string) (string, error) {
	return exec.LookPath(binaryName(name))
}
