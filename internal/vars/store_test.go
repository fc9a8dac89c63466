package vars

import "testing"

func TestCaptureStickiness(t *testing.T) {
	s := New()
	s.SetUser("x", "first", true)
	s.SetUser("x", "second", false)

	captured := s.Captured()
	v, ok := captured["x"]
	if !ok {
		t.Fatalf("expected x to remain captured after a non-capturing overwrite")
	}
	if v != "second" {
		t.Fatalf("expected captured value to reflect the last write, got %q", v)
	}
}

func TestInterpolateOnePass(t *testing.T) {
	s := New()
	s.SetUser("A", "<B>", false)
	s.SetUser("B", "c", false)

	got := s.Interpolate("<A>")
	if got != "<B>" {
		t.Fatalf("expected one-pass expansion to stop at %q, got %q", "<B>", got)
	}
}

func TestInterpolateDottedNameVerbatim(t *testing.T) {
	s := New()
	s.SetData("SOURCE.COOKIES.sid", "xyz")

	got := s.Interpolate("<SOURCE.COOKIES.sid>-<missing>")
	want := "xyz-<missing>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestInterpolateLookupOrder(t *testing.T) {
	s := New()
	s.SetInput("USER", "from-input")
	s.SetData("USER", "from-data")
	s.SetUser("USER", "from-user", false)

	if got := s.Interpolate("<USER>"); got != "from-user" {
		t.Fatalf("user namespace should win, got %q", got)
	}

	s2 := New()
	s2.SetInput("USER", "from-input")
	s2.SetData("USER", "from-data")
	if got := s2.Interpolate("<USER>"); got != "from-data" {
		t.Fatalf("data namespace should win over input, got %q", got)
	}
}

func TestInterpolateInputSlot(t *testing.T) {
	s := New()
	s.SetInput("PASS", "hunter2")
	if got := s.Interpolate("<input.PASS>"); got != "hunter2" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveInputSingleWrapperYieldsReferencedValue(t *testing.T) {
	s := New()
	s.SetUser("TOKEN", "abc123", false)
	if got := s.ResolveInput("<TOKEN>"); got != "abc123" {
		t.Fatalf("got %q, want abc123", got)
	}
}

func TestResolveInputLiteralIsInterpolated(t *testing.T) {
	s := New()
	s.SetUser("NAME", "alice", false)
	if got := s.ResolveInput("hello <NAME>"); got != "hello alice" {
		t.Fatalf("got %q", got)
	}
}

func TestSnapshotIncludesAllNamespaces(t *testing.T) {
	s := New()
	s.SetInput("USER", "bob")
	s.SetData("SOURCE", "<html/>")
	s.SetUser("TOKEN", "t", true)

	snap := s.Snapshot()
	if snap["input.USER"] != "bob" || snap["SOURCE"] != "<html/>" || snap["TOKEN"] != "t" {
		t.Fatalf("snapshot missing expected entries: %+v", snap)
	}
}

func TestSetDataNeverAffectsCapture(t *testing.T) {
	s := New()
	s.SetData("SOURCE", "body")
	if len(s.Captured()) != 0 {
		t.Fatalf("data writes must never mark anything captured")
	}
}
