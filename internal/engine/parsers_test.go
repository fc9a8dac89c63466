package engine

import (
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
)

func TestRunParseLRNonRecursiveReturnsFirstMatch(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	ec.Vars.SetData("BODY", "id=1 foo id=2 bar id=3")

	b := block.Block{
		Type: block.TypeParseLR,
		Settings: &block.ParseSettings{
			InputVar:   "<BODY>",
			LeftDelim:  "id=",
			RightDelim: " ",
			OutputVar:  "ID",
		},
	}
	result := block.Result{}
	if err := handleParseLR(ec, b, &result); err != nil {
		t.Fatalf("parse(lr) returned error: %v", err)
	}
	if v, _ := ec.Vars.Get("ID"); v != "1" {
		t.Errorf("ID = %q, want %q", v, "1")
	}
}

func TestRunParseLRRecursiveReturnsJSONArray(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	ec.Vars.SetData("BODY", "id=1 foo id=2 bar id=3")

	b := block.Block{
		Type: block.TypeParseLR,
		Settings: &block.ParseSettings{
			InputVar:   "<BODY>",
			LeftDelim:  "id=",
			RightDelim: " ",
			Recursive:  true,
			OutputVar:  "IDS",
		},
	}
	result := block.Result{}
	if err := handleParseLR(ec, b, &result); err != nil {
		t.Fatalf("parse(lr) returned error: %v", err)
	}
	want := `["1","2"]`
	if v, _ := ec.Vars.Get("IDS"); v != want {
		t.Errorf("IDS = %q, want %q", v, want)
	}
}

func TestRunParseLRRecursiveNoMatchesReturnsEmptyArray(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	ec.Vars.SetData("BODY", "nothing to see here")

	b := block.Block{
		Type: block.TypeParseLR,
		Settings: &block.ParseSettings{
			InputVar:   "<BODY>",
			LeftDelim:  "id=",
			RightDelim: " ",
			Recursive:  true,
			OutputVar:  "IDS",
		},
	}
	result := block.Result{}
	if err := handleParseLR(ec, b, &result); err != nil {
		t.Fatalf("parse(lr) returned error: %v", err)
	}
	if v, _ := ec.Vars.Get("IDS"); v != "[]" {
		t.Errorf("IDS = %q, want %q", v, "[]")
	}
}

func TestRunParseLRRejectsEmptyDelimiters(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	ec.Vars.SetData("BODY", "id=1")

	b := block.Block{
		Type: block.TypeParseLR,
		Settings: &block.ParseSettings{
			InputVar:  "<BODY>",
			OutputVar: "ID",
		},
	}
	result := block.Result{}
	if err := handleParseLR(ec, b, &result); err == nil {
		t.Error("expected an error for empty left/right delimiters")
	}
}
