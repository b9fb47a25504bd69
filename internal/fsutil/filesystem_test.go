package fsutil

import (
	"io"
	"testing"
)

func TestMemoryFileSystemWriteRead(t *testing.T) {
	m := NewMemoryFileSystem()

	if err := m.WriteFile("out/mask.png", []byte("abc"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := m.ReadFile("out/mask.png")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("ReadFile = %q, want %q", data, "abc")
	}

	if !m.Exists("out/mask.png") {
		t.Error("Exists = false after write")
	}
}

func TestMemoryFileSystemCreatePublishesOnClose(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("cell.gds")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := m.Open("cell.gds")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}
}

func TestMemoryFileSystemMissingFile(t *testing.T) {
	m := NewMemoryFileSystem()

	if _, err := m.Open("nope"); err == nil {
		t.Error("Open of missing file should fail")
	}
	if _, err := m.ReadFile("nope"); err == nil {
		t.Error("ReadFile of missing file should fail")
	}
	if err := m.Remove("nope"); err == nil {
		t.Error("Remove of missing file should fail")
	}
	if m.Exists("nope") {
		t.Error("Exists should be false for missing file")
	}
}

func TestMemoryFileSystemMkdirAll(t *testing.T) {
	m := NewMemoryFileSystem()

	if err := m.MkdirAll("a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, d := range []string{"a", "a/b", "a/b/c"} {
		if !m.Exists(d) {
			t.Errorf("directory %q should exist", d)
		}
		info, err := m.Stat(d)
		if err != nil {
			t.Fatalf("Stat(%q) failed: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("Stat(%q).IsDir() = false", d)
		}
	}
}
