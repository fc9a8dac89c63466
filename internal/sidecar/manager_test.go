package sidecar

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveSidecarPathAbsolute(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "reqflow-sidecar")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveSidecarPath(bin)
	if err != nil {
		t.Fatalf("ResolveSidecarPath: %v", err)
	}
	if got != bin {
		t.Fatalf("got %q, want %q", got, bin)
	}
}

func TestResolveSidecarPathCwdFallback(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "sidecar", "reqflow-sidecar")
	if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	oldwd, _ := os.Getwd()
	defer os.Chdir(oldwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveSidecarPath("reqflow-sidecar")
	if err != nil {
		t.Fatalf("ResolveSidecarPath: %v", err)
	}
	want, _ := filepath.Abs(bin)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveSidecarPathNotFound(t *testing.T) {
	dir := t.TempDir()
	oldwd, _ := os.Getwd()
	defer os.Chdir(oldwd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := ResolveSidecarPath("definitely-not-a-real-sidecar-binary"); err == nil {
		t.Fatal("expected error for missing sidecar binary")
	}
}
