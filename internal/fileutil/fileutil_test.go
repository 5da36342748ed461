package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestListFilesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mkv", "a.MKV", "notes.txt", "c.mk3d"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.mkv"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListFiles(dir, []string{".mkv"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != "a.MKV,b.mkv" {
		t.Fatalf("unexpected files: %v", got)
	}
}

func TestListFilesMissingDir(t *testing.T) {
	if _, err := ListFiles(filepath.Join(t.TempDir(), "missing"), []string{".mkv"}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestDirSizeRecursesAndToleratesMissing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "one"), make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "nested")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "two"), make([]byte, 32), 0o644); err != nil {
		t.Fatal(err)
	}

	size, err := DirSize(dir)
	if err != nil {
		t.Fatal(err)
	}
	if size != 42 {
		t.Fatalf("unexpected size %d", size)
	}

	size, err = DirSize(filepath.Join(dir, "missing"))
	if err != nil || size != 0 {
		t.Fatalf("missing dir should be empty, got %d %v", size, err)
	}
}

func TestFilesSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 5), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b"), make([]byte, 7), 0o644); err != nil {
		t.Fatal(err)
	}
	size, err := FilesSize(dir, []string{"a", "b"})
	if err != nil || size != 12 {
		t.Fatalf("unexpected size %d %v", size, err)
	}
	if _, err := FilesSize(dir, []string{"missing"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFreeSpace(t *testing.T) {
	free, err := FreeSpace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if free == 0 {
		t.Fatal("expected some free space in temp dir")
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content mismatch: %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}
