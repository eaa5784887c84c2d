package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func exerciseFileSystem(t *testing.T, fsys FileSystem, root string) {
	t.Helper()

	dir := filepath.Join(root, "eval", "idle,0,8,crc8,a.txt,80,0,0")
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if !fsys.Exists(dir) {
		t.Errorf("Exists(%s) = false after MkdirAll", dir)
	}

	results := filepath.Join(dir, "results.json")
	if err := fsys.WriteFile(results, []byte(`{"ok":true}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	other := filepath.Join(root, "eval", "results.json")
	if err := fsys.WriteFile(other, []byte(`{}`), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := fsys.WriteFile(filepath.Join(dir, "finish.txt"), nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := fsys.ReadFile(results)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("ReadFile = %q", got)
	}

	found, err := fsys.FindFiles(filepath.Join(root, "eval"), "results.json")
	if err != nil {
		t.Fatalf("FindFiles: %v", err)
	}
	if len(found) != 2 || found[0] != results || found[1] != other {
		t.Errorf("FindFiles = %v, want [%s %s]", found, results, other)
	}

	_, err = fsys.ReadFile(filepath.Join(root, "missing"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(missing) err = %v, want ErrNotExist", err)
	}
}

func TestOSFileSystem(t *testing.T) {
	exerciseFileSystem(t, OSFileSystem{}, t.TempDir())
}

func TestMemoryFileSystem(t *testing.T) {
	exerciseFileSystem(t, NewMemoryFileSystem(), "/work")
}

func TestMemoryFileSystem_ReadReturnsCopy(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.WriteFile("a", []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	data, _ := m.ReadFile("a")
	data[0] = 'z'
	again, _ := m.ReadFile("a")
	if string(again) != "abc" {
		t.Errorf("ReadFile = %q after mutating earlier result", again)
	}
}
