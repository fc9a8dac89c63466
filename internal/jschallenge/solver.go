// Package jschallenge evaluates the small JavaScript expressions of the
// LambdaParser block and Parse's Lambda mode (a dynamic math expression,
// a string transform over a response value).
//
// Evaluation happens in-process with the otto pure-Go interpreter — no
// headless browser, no external process, no network call of its own. The
// VM is seeded with a minimal window/document/navigator stub so ordinary
// challenge scripts that reference those globals don't throw a
// ReferenceError, and the current Variable Store snapshot is exposed as
// plain JS globals so an expression can read the session's variables.
// Assignments made inside the VM are not written back to the Variable Store.
package jschallenge

import (
	"fmt"
	"sync"

	"github.com/robertkrimen/otto"
)

// Solver is the JS evaluation interface OttoSolver implements.
type Solver interface {
	Eval(script string) (string, error)
	SetVar(name, value string)
	GetCookie() (string, error)
	SetCookie(cookie string) error
}

// OttoSolver implements Solver with one otto VM per instance. It is safe
// for concurrent use via an internal mutex. The engine builds a fresh
// OttoSolver for every LambdaParser or Parse Lambda evaluation, so
// assignments to window/document globals never carry from one evaluation
// to the next.
type OttoSolver struct {
	vm *otto.Otto
	mu sync.Mutex
}

// NewOttoSolver creates an OttoSolver with a browser-stub environment and
// the given vars snapshot pre-loaded as JS globals. userAgent seeds
// navigator.userAgent; if empty a generic fallback is used so scripts that
// branch on it still get a well-formed string.
func NewOttoSolver(userAgent string, vars map[string]string) (*OttoSolver, error) {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; pipeline-runner/1.0)"
	}
	vm := otto.New()

	bootstrap := fmt.Sprintf(`
var window = this;
var document = { cookie: "" };
var navigator = { userAgent: %q };
var vars = {};
`, userAgent)
	if _, err := vm.Run(bootstrap); err != nil {
		return nil, fmt.Errorf("jschallenge: bootstrap JS globals: %w", err)
	}

	s := &OttoSolver{vm: vm}
	for name, value := range vars {
		s.SetVar(name, value)
	}
	return s, nil
}

// Eval executes script and returns the string representation of the value
// produced by its last expression.
func (s *OttoSolver) Eval(script string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, err := s.vm.Run(script)
	if err != nil {
		return "", fmt.Errorf("jschallenge: eval: %w", err)
	}
	result, err := val.ToString()
	if err != nil {
		return "", fmt.Errorf("jschallenge: convert result to string: %w", err)
	}
	return result, nil
}

// SetVar exposes a Variable Store entry to the VM as vars.<name> (and, for
// identifier-safe names, as a bare global too, since many real-world
// challenge snippets reference short bare names directly rather than
// through a vars object). Assignment failures are swallowed: a var name
// that collides with a JS reserved word does not abort the evaluation, it
// just isn't reachable as a bare global.
func (s *OttoSolver) SetVar(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	varsObj, err := s.vm.Get("vars")
	if err == nil {
		_ = varsObj.Object().Set(name, value)
	}
	if isIdentifier(name) {
		_ = s.vm.Set(name, value)
	}
}

// GetCookie retrieves document.cookie from the JS environment. Challenge
// scripts that seed cookies via `document.cookie = "..."` store them here.
// Nothing copies the result into a session's cookie jar.
func (s *OttoSolver) GetCookie() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, err := s.vm.Get("document")
	if err != nil {
		return "", fmt.Errorf("jschallenge: get document: %w", err)
	}
	cookieVal, err := val.Object().Get("cookie")
	if err != nil {
		return "", fmt.Errorf("jschallenge: get document.cookie: %w", err)
	}
	return cookieVal.String(), nil
}

// SetCookie injects a cookie string into document.cookie before running a
// challenge that expects an existing cookie to be present.
func (s *OttoSolver) SetCookie(cookie string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	script := fmt.Sprintf("document.cookie = %q;", cookie)
	if _, err := s.vm.Run(script); err != nil {
		return fmt.Errorf("jschallenge: set document.cookie: %w", err)
	}
	return nil
}

// isIdentifier reports whether name is safe to use as a bare JS global
// identifier (ASCII letter/underscore start, alphanumeric/underscore rest).
// Variable Store keys are dotted/free-form user strings, so most need the
// vars.<name> form instead.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
