package pipeline

import (
	"strings"
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
	"github.com/ZeraTS/ironbullet-sub001/internal/proxy"
)

func samplePipeline() *Pipeline {
	return &Pipeline{
		Name:   "login-check",
		Author: "tester",
		Blocks: []block.Block{
			{ID: "b1", Type: block.TypeHttpRequest, Settings: &block.HttpRequestSettings{
				Method: "POST",
				URL:    "https://example.com/login",
			}},
			{ID: "b2", Type: block.TypeKeyCheck, Settings: &block.KeyCheckSettings{
				Keychains: []block.Keychain{{
					Status:     "Success",
					Conditions: []block.Condition{{Source: "<SOURCE>", Comparator: block.CompContains, Value: "welcome"}},
				}},
			}},
		},
		DataSettings: DataSettings{Separator: ":", Slices: []string{"USER", "PASS"}},
		ProxySettings: ProxySettings{
			Mode:            proxy.ModeRotate,
			BanDurationSecs: 600,
		},
		RunnerSettings: RunnerSettings{
			ThreadCount: 50,
			MaxRetries:  2,
		},
		OutputSettings: OutputSettings{HitFormat: "data_line"},
	}
}

func TestMarshalUnmarshalRoundTrips(t *testing.T) {
	original := samplePipeline()

	raw, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"format_version": 1`) {
		t.Fatalf("expected format_version in output, got %s", raw)
	}

	decoded, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Name != original.Name || len(decoded.Blocks) != 2 {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	if decoded.ProxySettings.Mode != proxy.ModeRotate {
		t.Fatalf("proxy mode = %q, want Rotate", decoded.ProxySettings.Mode)
	}
	if _, ok := decoded.Blocks[1].Settings.(*block.KeyCheckSettings); !ok {
		t.Fatalf("second block settings type = %T, want *block.KeyCheckSettings", decoded.Blocks[1].Settings)
	}
}

func TestUnmarshalRejectsWrongFormatVersion(t *testing.T) {
	raw := []byte(`{"format_version":99,"name":"x","blocks":[],"data_settings":{},"proxy_settings":{},"runner_settings":{},"output_settings":{}}`)
	if _, err := Unmarshal(raw); err == nil {
		t.Fatal("expected an error for an unsupported format_version")
	}
}

func TestUnmarshalSurfacesUnknownBlockType(t *testing.T) {
	raw := []byte(`{"format_version":1,"name":"x","blocks":[{"id":"bad","block_type":"NoSuchBlock","settings":{}}],"data_settings":{},"proxy_settings":{},"runner_settings":{},"output_settings":{}}`)
	_, err := Unmarshal(raw)
	if err == nil {
		t.Fatal("expected an error for an unrecognized block_type")
	}
	if !strings.Contains(err.Error(), "NoSuchBlock") {
		t.Fatalf("error should cite the offending tag, got: %v", err)
	}
}

func TestLoadSaveRoundTripsThroughFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sample.rfx"

	original := samplePipeline()
	if err := Save(path, original); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != original.Name || loaded.RunnerSettings.ThreadCount != original.RunnerSettings.ThreadCount {
		t.Fatalf("file round trip mismatch: %+v", loaded)
	}
}
