package jschallenge

import "testing"

func TestOttoSolverEvalExpression(t *testing.T) {
	s, err := NewOttoSolver("", nil)
	if err != nil {
		t.Fatalf("NewOttoSolver: %v", err)
	}
	got, err := s.Eval("1 + 2 * 3")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != "7" {
		t.Fatalf("Eval = %q, want 7", got)
	}
}

func TestOttoSolverNavigatorUserAgent(t *testing.T) {
	s, err := NewOttoSolver("TestAgent/1.0", nil)
	if err != nil {
		t.Fatalf("NewOttoSolver: %v", err)
	}
	got, err := s.Eval("navigator.userAgent")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != "TestAgent/1.0" {
		t.Fatalf("navigator.userAgent = %q, want TestAgent/1.0", got)
	}
}

func TestOttoSolverCookieRoundTrip(t *testing.T) {
	s, err := NewOttoSolver("", nil)
	if err != nil {
		t.Fatalf("NewOttoSolver: %v", err)
	}
	if err := s.SetCookie("session=abc123"); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	got, err := s.GetCookie()
	if err != nil {
		t.Fatalf("GetCookie: %v", err)
	}
	if got != "session=abc123" {
		t.Fatalf("GetCookie = %q, want session=abc123", got)
	}
}

func TestOttoSolverSetVarExposesDottedAndBareAccess(t *testing.T) {
	s, err := NewOttoSolver("", map[string]string{
		"token":        "tok-1",
		"data.nested":  "tok-2",
	})
	if err != nil {
		t.Fatalf("NewOttoSolver: %v", err)
	}

	got, err := s.Eval("vars['token']")
	if err != nil {
		t.Fatalf("Eval vars.token: %v", err)
	}
	if got != "tok-1" {
		t.Fatalf("vars.token = %q, want tok-1", got)
	}

	got, err = s.Eval("token")
	if err != nil {
		t.Fatalf("Eval bare token: %v", err)
	}
	if got != "tok-1" {
		t.Fatalf("bare token = %q, want tok-1", got)
	}

	got, err = s.Eval("vars['data.nested']")
	if err != nil {
		t.Fatalf("Eval vars['data.nested']: %v", err)
	}
	if got != "tok-2" {
		t.Fatalf("vars['data.nested'] = %q, want tok-2", got)
	}
}

func TestOttoSolverSetVarAfterConstruction(t *testing.T) {
	s, err := NewOttoSolver("", nil)
	if err != nil {
		t.Fatalf("NewOttoSolver: %v", err)
	}
	s.SetVar("challenge", "42")
	got, err := s.Eval("Number(vars['challenge']) + 1")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != "43" {
		t.Fatalf("Eval = %q, want 43", got)
	}
}

func TestOttoSolverEvalSyntaxErrorReturnsError(t *testing.T) {
	s, err := NewOttoSolver("", nil)
	if err != nil {
		t.Fatalf("NewOttoSolver: %v", err)
	}
	if _, err := s.Eval("this is not valid js {{{"); err == nil {
		t.Fatal("Eval with invalid syntax: want error, got nil")
	}
}
