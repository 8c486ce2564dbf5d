package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewKey(t *testing.T) {
	t.Run("appends extension", func(t *testing.T) {
		key := NewKey(".jpg")
		if !strings.HasSuffix(key, ".jpg") {
			t.Errorf("expected .jpg suffix, got %s", key)
		}
	})

	t.Run("adds missing dot", func(t *testing.T) {
		key := NewKey("png")
		if !strings.HasSuffix(key, ".png") {
			t.Errorf("expected .png suffix, got %s", key)
		}
	})

	t.Run("keys are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			key := NewKey(".jpg")
			if seen[key] {
				t.Fatalf("duplicate key generated: %s", key)
			}
			seen[key] = true
		}
	})
}

func TestFileSystemStore_Save(t *testing.T) {
	t.Run("saves object to disk", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileSystemStore(dir)

		data := bytes.NewReader([]byte("image bytes"))
		n, err := store.Save("abc123.jpg", data)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n != 11 {
			t.Errorf("expected 11 bytes written, got %d", n)
		}

		content, err := os.ReadFile(filepath.Join(dir, "abc123.jpg"))
		if err != nil {
			t.Fatalf("failed to read saved object: %v", err)
		}
		if string(content) != "image bytes" {
			t.Errorf("expected 'image bytes', got %q", content)
		}
	})

	t.Run("rejects path-traversal keys", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileSystemStore(dir)

		if _, err := store.Save("../escape.jpg", bytes.NewReader([]byte("x"))); err == nil {
			t.Error("expected error for traversal key")
		}
		if _, err := store.Save("", bytes.NewReader([]byte("x"))); err == nil {
			t.Error("expected error for empty key")
		}
	})
}

func TestFileSystemStore_Path(t *testing.T) {
	t.Run("returns path for existing object", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileSystemStore(dir)

		filePath := filepath.Join(dir, "test123.jpg")
		os.WriteFile(filePath, []byte("data"), 0644)

		path, err := store.Path("test123.jpg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if path != filePath {
			t.Errorf("expected %s, got %s", filePath, path)
		}
	})

	t.Run("returns error for missing object", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileSystemStore(dir)

		if _, err := store.Path("nonexistent.jpg"); err == nil {
			t.Error("expected error for nonexistent object")
		}
	})
}

func TestFileSystemStore_Delete(t *testing.T) {
	t.Run("deletes existing object", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileSystemStore(dir)

		filePath := filepath.Join(dir, "del123.jpg")
		os.WriteFile(filePath, []byte("data"), 0644)

		if err := store.Delete("del123.jpg"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(filePath); !os.IsNotExist(err) {
			t.Error("expected object to be deleted")
		}
	})

	t.Run("no error for missing object", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileSystemStore(dir)

		if err := store.Delete("nonexistent.jpg"); err != nil {
			t.Errorf("expected no error for missing object, got: %v", err)
		}
	})
}

func TestFileSystemStore_EnsureDir(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "images")
		store := NewFileSystemStore(dir)

		if err := store.EnsureDir(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected a directory")
		}
	})

	t.Run("succeeds if directory exists", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileSystemStore(dir)

		if err := store.EnsureDir(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
