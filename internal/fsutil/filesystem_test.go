package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fsys := OSFileSystem{}

	if !fsys.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}
	if fsys.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_OpenAppendKeepsContent(t *testing.T) {
	fsys := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "blips.txt")

	if err := fsys.WriteFile(path, []byte("first\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	for _, line := range []string{"second\n", "third\n"} {
		w, err := fsys.OpenAppend(path)
		if err != nil {
			t.Fatalf("OpenAppend failed: %v", err)
		}
		if _, err := io.WriteString(w, line); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "first\nsecond\nthird\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.WriteFile("/test.txt", []byte("hello, world"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello, world" {
		t.Errorf("expected %q, got %q", "hello, world", data)
	}

	f, err := mfs.Open("/test.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "hello, world" {
		t.Errorf("Open returned %q", got)
	}
	info, err := f.Stat()
	if err != nil || info.Size() != 12 {
		t.Errorf("Stat() = %v, %v; want size 12", info, err)
	}
}

func TestMemoryFileSystem_Append(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.WriteFile("out.txt", []byte("a\n"), 0644)

	w, err := mfs.OpenAppend("out.txt")
	if err != nil {
		t.Fatalf("OpenAppend failed: %v", err)
	}
	io.WriteString(w, "b\n")
	w.Close()

	if _, err := w.Write([]byte("late")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("write after close: got %v, want fs.ErrClosed", err)
	}

	data, _ := mfs.ReadFile("out.txt")
	if string(data) != "a\nb\n" {
		t.Errorf("unexpected content %q", data)
	}

	w, _ = mfs.OpenAppend("new.txt")
	w.Close()
	if !mfs.Exists("new.txt") {
		t.Error("OpenAppend should create the file")
	}
}

func TestMemoryFileSystem_LimitWrites(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.LimitWrites(5)

	w, _ := mfs.OpenAppend("out.txt")
	defer w.Close()

	n, err := io.WriteString(w, "abc")
	if err != nil || n != 3 {
		t.Fatalf("first write = %d, %v", n, err)
	}
	n, err = io.WriteString(w, "defg")
	if !errors.Is(err, ErrWriteLimit) {
		t.Fatalf("expected ErrWriteLimit, got %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 bytes written, got %d", n)
	}
	data, _ := mfs.ReadFile("out.txt")
	if string(data) != "abcde" {
		t.Errorf("partial write should remain, got %q", data)
	}
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.Open("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open: got %v", err)
	}
	if _, err := mfs.ReadFile("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile: got %v", err)
	}
	if _, err := mfs.Stat("nope"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat: got %v", err)
	}
}
