// Package vars implements the pipeline's two-tier variable store: a "data"
// namespace written by HTTP/parse blocks, a "user" namespace written by
// pipeline authors, and a read-only "input" namespace sourced from the
// wordlist record's slices. It also implements the one-pass "<name>"
// template interpolation every block's string inputs go through.
package vars

import (
	"sort"
	"strings"
	"sync"
)

// Store holds one worker's variable state for the duration of a single
// input record. It is exclusively owned by its worker — never shared
// across goroutines — so the mutex here only guards against accidental
// concurrent use (e.g. a block handler spawning a helper goroutine),
// not against contended access.
type Store struct {
	mu       sync.Mutex
	data     map[string]string
	user     map[string]string
	input    map[string]string
	captured map[string]struct{}
}

// New returns an empty Store ready for one record's execution.
func New() *Store {
	return &Store{
		data:     make(map[string]string),
		user:     make(map[string]string),
		input:    make(map[string]string),
		captured: make(map[string]struct{}),
	}
}

// SetData writes into the internal/ephemeral namespace (SOURCE, SOURCE.STATUS,
// per-header/per-cookie entries, legacy aliases, …). Never affects capture.
func (s *Store) SetData(name, value string) {
	s.mu.Lock()
	s.data[name] = value
	s.mu.Unlock()
}

// SetUser writes a pipeline-author variable. Once a name has been captured
// (capture=true on any write), it stays captured on every subsequent write
// regardless of that write's own capture flag — capture is sticky.
func (s *Store) SetUser(name, value string, capture bool) {
	s.mu.Lock()
	s.user[name] = value
	if capture {
		s.captured[name] = struct{}{}
	}
	s.mu.Unlock()
}

// SetInput populates a read-only input.<slot> entry from the wordlist
// record. Never interacts with data or user namespaces.
func (s *Store) SetInput(slot, value string) {
	s.mu.Lock()
	s.input[slot] = value
	s.mu.Unlock()
}

// Get looks up name across user, then data, then input.* (the same order
// interpolate uses), returning ok=false if nothing is bound.
func (s *Store) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(name)
}

func (s *Store) getLocked(name string) (string, bool) {
	if v, ok := s.user[name]; ok {
		return v, true
	}
	if v, ok := s.data[name]; ok {
		return v, true
	}
	if strings.HasPrefix(name, "input.") {
		if v, ok := s.input[strings.TrimPrefix(name, "input.")]; ok {
			return v, true
		}
		return "", false
	}
	if v, ok := s.input[name]; ok {
		return v, true
	}
	return "", false
}

// Snapshot returns a flattened copy of every bound name across all three
// namespaces, used for a BlockResult's variables_after field. User values
// win over data values on name collision, matching Get's lookup order.
func (s *Store) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.data)+len(s.user)+len(s.input))
	for k, v := range s.input {
		out["input."+k] = v
	}
	for k, v := range s.data {
		out[k] = v
	}
	for k, v := range s.user {
		out[k] = v
	}
	return out
}

// Captured returns every user variable ever written with capture=true,
// at its last-written value. Used to build the HitResult.
func (s *Store) Captured() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.captured))
	for name := range s.captured {
		if v, ok := s.user[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Interpolate expands "<name>" occurrences in template left-to-right, in a
// single pass: the expanded text is never rescanned for further "<...>"
// markers. Lookup order per name is user, then data, then input.*; dotted
// names (e.g. "SOURCE.HEADERS.Location") are looked up verbatim as a single
// key, never split into a structural path. A name with no binding is left
// in the output literally, angle brackets included.
func (s *Store) Interpolate(template string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.Grow(len(template))

	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '<')
		if open == -1 {
			b.WriteString(template[i:])
			break
		}
		open += i
		b.WriteString(template[i:open])

		close := strings.IndexByte(template[open+1:], '>')
		if close == -1 {
			b.WriteString(template[open:])
			break
		}
		close += open + 1

		name := template[open+1 : close]
		if name == "" || strings.ContainsAny(name, "<>") {
			// Not a well-formed "<name>" token; emit the '<' literally and
			// keep scanning from just past it.
			b.WriteByte('<')
			i = open + 1
			continue
		}

		if v, ok := s.getLocked(name); ok {
			b.WriteString(v)
		} else {
			b.WriteString(template[open : close+1])
		}
		i = close + 1
	}

	return b.String()
}

// ResolveInput implements a block's input_var resolution rule: if spec is
// exactly one "<name>" wrapper, or matches a stored name verbatim, the
// referenced value is returned; otherwise spec is treated as a literal
// template and interpolated.
func (s *Store) ResolveInput(spec string) string {
	s.mu.Lock()
	if strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") && strings.Count(spec, "<") == 1 {
		name := spec[1 : len(spec)-1]
		if v, ok := s.getLocked(name); ok {
			s.mu.Unlock()
			return v
		}
	}
	if v, ok := s.getLocked(spec); ok {
		s.mu.Unlock()
		return v
	}
	s.mu.Unlock()
	return s.Interpolate(spec)
}

// SortedCapturedNames returns the captured variable names in a stable,
// sorted order — useful for deterministic hit-record rendering in tests
// and output sinks that want a fixed column order.
func (s *Store) SortedCapturedNames() []string {
	captured := s.Captured()
	names := make([]string, 0, len(captured))
	for name := range captured {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
