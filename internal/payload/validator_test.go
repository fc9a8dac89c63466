package payload_test

import (
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/payload"
)

var sampleLoginResponse = []byte(`{
	"status": "ok",
	"token": "abc123",
	"meta": {
		"expires_in": 3600
	},
	"remember_me": true,
	"note": null
}`)

func TestLearnThenHasBaseline(t *testing.T) {
	v := payload.NewValidator()
	if v.HasBaseline() {
		t.Error("expected no baseline before Learn")
	}
	if err := v.Learn(sampleLoginResponse); err != nil {
		t.Fatalf("Learn error: %v", err)
	}
	if !v.HasBaseline() {
		t.Error("expected baseline after Learn")
	}
}

func TestLearnInvalidJSON(t *testing.T) {
	v := payload.NewValidator()
	if err := v.Learn([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLearnNonObject(t *testing.T) {
	v := payload.NewValidator()
	if err := v.Learn([]byte(`[1,2,3]`)); err == nil {
		t.Error("expected error for JSON array (non-object)")
	}
}

func TestValidateNoMismatches(t *testing.T) {
	v := payload.NewValidator()
	if err := v.Learn(sampleLoginResponse); err != nil {
		t.Fatal(err)
	}
	mismatches, err := v.Validate(sampleLoginResponse)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("expected 0 mismatches, got %d: %v", len(mismatches), mismatches)
	}
}

func TestValidateDetectsMissingAddedAndTypeChange(t *testing.T) {
	v := payload.NewValidator()
	if err := v.Learn(sampleLoginResponse); err != nil {
		t.Fatal(err)
	}

	changed := []byte(`{
		"status": 200,
		"session_id": "xyz",
		"meta": {
			"expires_in": 3600
		},
		"note": null
	}`)

	mismatches, err := v.Validate(changed)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	var sawMissing, sawAdded, sawTypeChange bool
	for _, m := range mismatches {
		switch m.Kind {
		case payload.MismatchKindMissing:
			if m.Field == "token" || m.Field == "remember_me" {
				sawMissing = true
			}
		case payload.MismatchKindAdded:
			if m.Field == "session_id" {
				sawAdded = true
			}
		case payload.MismatchKindTypeChange:
			if m.Field == "status" {
				sawTypeChange = true
			}
		}
	}
	if !sawMissing || !sawAdded || !sawTypeChange {
		t.Errorf("expected missing+added+type-change mismatches, got %+v", mismatches)
	}
}

func TestValidateWithoutLearnEstablishesBaseline(t *testing.T) {
	v := payload.NewValidator()
	mismatches, err := v.Validate(sampleLoginResponse)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if len(mismatches) != 0 {
		t.Errorf("first Validate call should establish baseline with no mismatches, got %v", mismatches)
	}
	if !v.HasBaseline() {
		t.Error("expected baseline to be set after first Validate")
	}
}

func TestWatcherSetChecksPerBlockID(t *testing.T) {
	ws := payload.NewWatcherSet()

	if m := ws.Check("login-request", sampleLoginResponse); len(m) != 0 {
		t.Fatalf("first check for a block id should establish baseline, got %v", m)
	}

	drifted := []byte(`{"status": "ok"}`)
	mismatches := ws.Check("login-request", drifted)
	if len(mismatches) == 0 {
		t.Error("expected mismatches after schema drift on same block id")
	}

	// A different block id has its own independent baseline.
	if m := ws.Check("other-request", drifted); len(m) != 0 {
		t.Errorf("different block id should not inherit login-request's baseline, got %v", m)
	}
}

func TestWatcherSetIgnoresNonJSONBody(t *testing.T) {
	ws := payload.NewWatcherSet()
	if m := ws.Check("html-request", []byte("<html></html>")); m != nil {
		t.Errorf("non-JSON body should be ignored, got %v", m)
	}
}
