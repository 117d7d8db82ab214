package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	location, err := store.Save(context.Background(), "abcd1234.jpg", []byte("image-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Files shard into a subdirectory named after the first two characters.
	want := filepath.Join(dir, "ab", "abcd1234.jpg")
	if location != want {
		t.Errorf("location: got %q, want %q", location, want)
	}

	data, err := os.ReadFile(location)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("content: got %q", data)
	}
}

func TestFSStoreShortName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	location, err := store.Save(context.Background(), "x", []byte("b"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(location, dir) {
		t.Errorf("location outside store dir: %q", location)
	}
}

func TestFSStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "archive")
	if _, err := NewFSStore(dir); err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("archive dir not created: %v", err)
	}
}
