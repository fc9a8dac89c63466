package block

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBlockRoundTripsThroughJSON(t *testing.T) {
	original := Block{
		ID:    "b1",
		Type:  TypeHttpRequest,
		Label: "login request",
		Settings: &HttpRequestSettings{
			Method: "POST",
			URL:    "https://example.com/login",
		},
	}

	raw, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"block_type":"HttpRequest"`) {
		t.Fatalf("expected block_type discriminator in wire form, got %s", raw)
	}

	var decoded Block
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != "b1" || decoded.Type != TypeHttpRequest || decoded.Label != "login request" {
		t.Fatalf("decoded envelope mismatch: %+v", decoded)
	}
	settings, ok := decoded.Settings.(*HttpRequestSettings)
	if !ok {
		t.Fatalf("decoded settings type = %T, want *HttpRequestSettings", decoded.Settings)
	}
	if settings.Method != "POST" || settings.URL != "https://example.com/login" {
		t.Fatalf("decoded settings mismatch: %+v", settings)
	}
}

func TestBlockUnmarshalRejectsUnknownBlockType(t *testing.T) {
	raw := []byte(`{"id":"b2","block_type":"NotARealBlock","settings":{}}`)
	var decoded Block
	err := json.Unmarshal(raw, &decoded)
	if err == nil {
		t.Fatal("expected an error for an unrecognized block_type")
	}
	if !strings.Contains(err.Error(), "b2") || !strings.Contains(err.Error(), "NotARealBlock") {
		t.Fatalf("error should cite the block id and tag, got: %v", err)
	}
}

func TestBlockListRoundTrips(t *testing.T) {
	blocks := []Block{
		{ID: "a", Type: TypeLog, Settings: &LogSettings{Message: "hi"}},
		{ID: "b", Type: TypeDelay, Settings: &DelaySettings{MinMs: 100, MaxMs: 100}},
	}
	raw, err := json.Marshal(blocks)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded []Block
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Type != TypeLog || decoded[1].Type != TypeDelay {
		t.Fatalf("decoded list mismatch: %+v", decoded)
	}
}
