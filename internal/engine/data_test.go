package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/block"
)

func TestFileSystemWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	ec := newTestContext(&fakeSender{})

	writeBlock := block.Block{
		Type: block.TypeFileWrite,
		Settings: &block.FileSystemSettings{
			Path:    path,
			Content: "hello",
		},
	}
	result := block.Result{}
	if err := handleFileSystem(block.FsFileWrite)(ec, writeBlock, &result); err != nil {
		t.Fatalf("filewrite returned error: %v", err)
	}

	readBlock := block.Block{
		Type: block.TypeFileRead,
		Settings: &block.FileSystemSettings{
			Path:      path,
			OutputVar: "CONTENT",
		},
	}
	if err := handleFileSystem(block.FsFileRead)(ec, readBlock, &result); err != nil {
		t.Fatalf("fileread returned error: %v", err)
	}
	if v, _ := ec.Vars.Get("CONTENT"); v != "hello" {
		t.Errorf("CONTENT = %q, want hello", v)
	}
}

func TestFileSystemAppendAddsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.txt")
	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ec := newTestContext(&fakeSender{})

	b := block.Block{
		Type: block.TypeFileAppend,
		Settings: &block.FileSystemSettings{
			Path:    path,
			Content: "second\n",
		},
	}
	result := block.Result{}
	if err := handleFileSystem(block.FsFileAppend)(ec, b, &result); err != nil {
		t.Fatalf("fileappend returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("file contents = %q, want appended content", string(data))
	}
}

func TestFileSystemExistsReportsBooleanString(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.txt")
	ec := newTestContext(&fakeSender{})

	b := block.Block{
		Type: block.TypeFileExists,
		Settings: &block.FileSystemSettings{
			Path:      missing,
			OutputVar: "EXISTS",
		},
	}
	result := block.Result{}
	if err := handleFileSystem(block.FsFileExists)(ec, b, &result); err != nil {
		t.Fatalf("fileexists returned error: %v", err)
	}
	if v, _ := ec.Vars.Get("EXISTS"); v != "false" {
		t.Errorf("EXISTS = %q, want false", v)
	}
}

func TestFileSystemGetFilesInFolder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	ec := newTestContext(&fakeSender{})

	b := block.Block{
		Type: block.TypeGetFilesInFolder,
		Settings: &block.FileSystemSettings{
			Path:      dir,
			OutputVar: "FILES",
		},
	}
	result := block.Result{}
	if err := handleFileSystem(block.FsGetFilesInFolder)(ec, b, &result); err != nil {
		t.Fatalf("getfilesinfolder returned error: %v", err)
	}
	v, _ := ec.Vars.Get("FILES")
	if v == "" {
		t.Error("expected FILES to list the two written files")
	}
}

func TestFileSystemRejectsWrongSettingsType(t *testing.T) {
	ec := newTestContext(&fakeSender{})
	b := block.Block{
		Type:     block.TypeFileRead,
		Settings: &block.LogSettings{Message: "wrong type"},
	}
	result := block.Result{}
	if err := handleFileSystem(block.FsFileRead)(ec, b, &result); err == nil {
		t.Error("expected a settings type mismatch error")
	}
}
