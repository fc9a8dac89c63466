// Package payload detects when a target API's JSON response shape drifts
// out from under a running pipeline: a login endpoint renaming a field,
// dropping one, or changing a type silently breaks every ParseJSON/KeyCheck
// block downstream of it without the pipeline itself ever erroring. A
// Validator learns the field/type schema of the first response it sees and
// flags any later response that no longer matches.
package payload

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MismatchKind classifies the type of schema difference detected.
type MismatchKind string

const (
	MismatchKindMissing    MismatchKind = "MISSING_FIELD"
	MismatchKindAdded      MismatchKind = "ADDED_FIELD"
	MismatchKindTypeChange MismatchKind = "TYPE_CHANGE"
)

// Mismatch describes a single structural difference between the baseline
// schema and a current API response.
type Mismatch struct {
	Kind         MismatchKind
	Field        string
	BaselineType string // empty for MismatchKindAdded
	CurrentType  string // empty for MismatchKindMissing
}

func (m Mismatch) String() string {
	switch m.Kind {
	case MismatchKindMissing:
		return fmt.Sprintf("schema drift [%s] field %q missing (was %s)", m.Kind, m.Field, m.BaselineType)
	case MismatchKindAdded:
		return fmt.Sprintf("schema drift [%s] field %q added (type %s)", m.Kind, m.Field, m.CurrentType)
	case MismatchKindTypeChange:
		return fmt.Sprintf("schema drift [%s] field %q type changed %s -> %s", m.Kind, m.Field, m.BaselineType, m.CurrentType)
	default:
		return fmt.Sprintf("schema drift [%s] field %q", m.Kind, m.Field)
	}
}

// schema maps dot-separated field paths to their JSON type names.
type schema map[string]string

// Validator learns the structure of one endpoint's JSON response and
// detects subsequent changes. Safe for concurrent use.
type Validator struct {
	baseline schema
	mu       sync.RWMutex
}

// NewValidator creates a Validator with no baseline.
func NewValidator() *Validator {
	return &Validator{}
}

// Learn parses data as a JSON object and stores its field schema as the new
// baseline, replacing any previous one.
func (v *Validator) Learn(data []byte) error {
	s, err := extractSchema(data)
	if err != nil {
		return fmt.Errorf("payload: learn schema: %w", err)
	}
	v.mu.Lock()
	v.baseline = s
	v.mu.Unlock()
	return nil
}

// HasBaseline reports whether a baseline schema has been established.
func (v *Validator) HasBaseline() bool {
	v.mu.RLock()
	ok := v.baseline != nil
	v.mu.RUnlock()
	return ok
}

// Validate compares data against the baseline and returns any mismatches.
// If no baseline exists yet, it learns data as the baseline and returns no
// mismatches — the first response a pipeline sees can't have drifted.
func (v *Validator) Validate(data []byte) ([]Mismatch, error) {
	current, err := extractSchema(data)
	if err != nil {
		return nil, fmt.Errorf("payload: validate: %w", err)
	}

	v.mu.Lock()
	if v.baseline == nil {
		v.baseline = current
		v.mu.Unlock()
		return nil, nil
	}
	baseline := copySchema(v.baseline)
	v.mu.Unlock()

	return diffSchemas(baseline, current), nil
}

// Reset clears the baseline, allowing Learn/Validate to start fresh.
func (v *Validator) Reset() {
	v.mu.Lock()
	v.baseline = nil
	v.mu.Unlock()
}

func extractSchema(data []byte) (schema, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", raw)
	}
	s := make(schema)
	flattenSchema(obj, "", s)
	return s, nil
}

func flattenSchema(obj map[string]interface{}, prefix string, s schema) {
	for k, v := range obj {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			s[path] = "object"
			flattenSchema(val, path, s)
		case []interface{}:
			s[path] = "array"
		case string:
			s[path] = "string"
		case float64:
			s[path] = "number"
		case bool:
			s[path] = "bool"
		case nil:
			s[path] = "null"
		default:
			s[path] = "unknown"
		}
	}
}

func diffSchemas(baseline, current schema) []Mismatch {
	var mismatches []Mismatch

	for field, bType := range baseline {
		cType, ok := current[field]
		if !ok {
			mismatches = append(mismatches, Mismatch{Kind: MismatchKindMissing, Field: field, BaselineType: bType})
			continue
		}
		if cType != bType {
			mismatches = append(mismatches, Mismatch{Kind: MismatchKindTypeChange, Field: field, BaselineType: bType, CurrentType: cType})
		}
	}
	for field, cType := range current {
		if _, ok := baseline[field]; !ok {
			mismatches = append(mismatches, Mismatch{Kind: MismatchKindAdded, Field: field, CurrentType: cType})
		}
	}

	sort.Slice(mismatches, func(i, j int) bool {
		if mismatches[i].Field != mismatches[j].Field {
			return mismatches[i].Field < mismatches[j].Field
		}
		return string(mismatches[i].Kind) < string(mismatches[j].Kind)
	})
	return mismatches
}

func copySchema(s schema) schema {
	if s == nil {
		return nil
	}
	out := make(schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FormatMismatches joins mismatches into a multi-line log-ready string.
// Returns "" for an empty slice.
func FormatMismatches(mismatches []Mismatch) string {
	if len(mismatches) == 0 {
		return ""
	}
	lines := make([]string, len(mismatches))
	for i, m := range mismatches {
		lines[i] = m.String()
	}
	return strings.Join(lines, "\n")
}

// WatcherSet holds one Validator per HttpRequest block id, shared across
// every worker and record in a job so a schema learned from worker 1's
// first request is checked against by every other worker hitting the same
// endpoint. Created once per Orchestrator, threaded into each Context.
type WatcherSet struct {
	mu       sync.Mutex
	watchers map[string]*Validator
}

// NewWatcherSet returns an empty WatcherSet.
func NewWatcherSet() *WatcherSet {
	return &WatcherSet{watchers: make(map[string]*Validator)}
}

// Check validates body's JSON schema against blockID's baseline, learning it
// on first use. A non-JSON or non-object body is ignored (returns nil)
// rather than erroring — not every HttpRequest response is JSON, and this
// is a diagnostic aid, not a pipeline-correctness gate.
func (w *WatcherSet) Check(blockID string, body []byte) []Mismatch {
	w.mu.Lock()
	v, ok := w.watchers[blockID]
	if !ok {
		v = NewValidator()
		w.watchers[blockID] = v
	}
	w.mu.Unlock()

	mismatches, err := v.Validate([]byte(body))
	if err != nil {
		return nil
	}
	return mismatches
}
