package sidecar

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/ZeraTS/ironbullet-sub001/internal/applog"
	"github.com/ZeraTS/ironbullet-sub001/internal/corrtable"
)

// Multiplexer is the child-process transport: it launches an external HTTP
// binary with piped stdio and exchanges one newline-delimited JSON document
// per message. It tolerates hundreds of concurrently in-flight requests
// via a sharded correlation table and a batched writer.
type Multiplexer struct {
	log *applog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writeQ chan string

	pending *corrtable.Table[pending]

	closeOnce sync.Once
	closed    chan struct{}
}

// StartMultiplexer spawns binPath (already pre-flight-checked by the
// manager) and returns a running Multiplexer. The returned Multiplexer
// owns the child process; call Close to terminate it.
func StartMultiplexer(binPath string, log *applog.Logger) (*Multiplexer, error) {
	cmd := exec.Command(binPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("sidecar: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("sidecar: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("sidecar: spawn %q: %w", binPath, err)
	}

	m := &Multiplexer{
		log:     log,
		cmd:     cmd,
		stdin:   stdin,
		writeQ:  make(chan string, 4096),
		pending: corrtable.New[pending](),
		closed:  make(chan struct{}),
	}

	go m.writerLoop()
	go m.readerLoop(stdout)
	go m.waitLoop()

	return m, nil
}

// writerLoop drains writeQ and batches: after taking one message it
// opportunistically drains any further messages already queued before
// issuing a single flush, so N concurrently-submitted requests cost one
// syscall wave instead of N.
func (m *Multiplexer) writerLoop() {
	w := bufio.NewWriter(m.stdin)
	for line := range m.writeQ {
		if _, err := w.WriteString(line); err != nil {
			return
		}
		if err := w.WriteByte('\n'); err != nil {
			return
		}
	drain:
		for {
			select {
			case next := <-m.writeQ:
				if _, err := w.WriteString(next); err != nil {
					return
				}
				if err := w.WriteByte('\n'); err != nil {
					return
				}
			default:
				break drain
			}
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

// readerLoop parses one Response per line and routes it to the waiting
// caller via the correlation table. Orphan ids (no waiter registered, or
// already delivered) are discarded silently.
func (m *Multiplexer) readerLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			m.log.Debugf("sidecar: malformed response line: %v", err)
			continue
		}
		if ch, ok := m.pending.Remove(resp.ID); ok {
			ch <- resp
		}
	}
	m.shutdown()
}

// waitLoop reaps the child process so it never becomes a zombie, and
// triggers shutdown if the process exits on its own.
func (m *Multiplexer) waitLoop() {
	_ = m.cmd.Wait()
	m.shutdown()
}

// shutdown drops every pending one-shot so their callers observe a closed
// transport instead of blocking forever.
func (m *Multiplexer) shutdown() {
	m.closeOnce.Do(func() {
		close(m.closed)
		for _, ch := range m.pending.Drain() {
			close(ch)
		}
	})
}

// Send implements Sender.
func (m *Multiplexer) Send(ctx context.Context, req Request) (Response, error) {
	ch := make(pending, 1)
	m.pending.Insert(req.ID, ch)

	payload, err := json.Marshal(req)
	if err != nil {
		m.pending.Remove(req.ID)
		return Response{}, fmt.Errorf("sidecar: encode request: %w", err)
	}

	select {
	case m.writeQ <- string(payload):
	case <-m.closed:
		m.pending.Remove(req.ID)
		return Response{}, ErrClosed
	case <-ctx.Done():
		m.pending.Remove(req.ID)
		return Response{}, ctx.Err()
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return Response{}, ErrClosed
		}
		return resp, nil
	case <-ctx.Done():
		m.pending.Remove(req.ID)
		return Response{}, ctx.Err()
	}
}

// Close terminates the child process and releases pending callers.
func (m *Multiplexer) Close() error {
	m.shutdown()
	close(m.writeQ)
	_ = m.stdin.Close()
	if m.cmd.Process != nil {
		return m.cmd.Process.Kill()
	}
	return nil
}

// Alive reports whether the child process is still believed running.
func (m *Multiplexer) Alive() bool {
	select {
	case <-m.closed:
		return false
	default:
		return true
	}
}
