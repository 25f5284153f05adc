package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestWriteFileAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "file.txt")

	if err := WriteFile(path, []byte("hello")); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}

func TestWriteFileReplacesExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := WriteFile(path, []byte("new")); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("expected new, got %q", string(got))
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleaned up, got %d entries", len(entries))
	}
}

func TestWriteFileIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	wrote, err := WriteFileIfMissing(path, []byte("first"))
	if err != nil || !wrote {
		t.Fatalf("expected first write, got wrote=%v err=%v", wrote, err)
	}
	wrote, err = WriteFileIfMissing(path, []byte("second"))
	if err != nil || wrote {
		t.Fatalf("expected existing file kept, got wrote=%v err=%v", wrote, err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "first" {
		t.Fatalf("expected first, got %q", got)
	}
}

func TestWriteFileConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.txt")
	const writes = 50

	var wg sync.WaitGroup
	for i := 0; i < writes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := WriteFile(path, []byte("same")); err != nil {
				t.Errorf("write file: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(got) != "same" {
		t.Fatalf("unexpected contents: %q", got)
	}
}

func TestEmptyPathRejected(t *testing.T) {
	if err := WriteFile("  ", nil); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
