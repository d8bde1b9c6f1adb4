package fsops

import (
	"io"
	"io/fs"
	"testing"
)

func TestMemFSCreateWriteReadRoundTrip(t *testing.T) {
	m := NewMemFS()
	f, err := m.Open("/a.txt", O_WRONLY|O_CREATE|O_TRUNC)
	if err != nil {
		t.Fatalf("Open for create: %v", err)
	}
	if _, err := f.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	f, err = m.Open("/a.txt", O_RDONLY)
	if err != nil {
		t.Fatalf("Open for read: %v", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("data = %q, want %q", data, "hello")
	}
}

func TestMemFSOpenMissingWithoutCreateFails(t *testing.T) {
	m := NewMemFS()
	if _, err := m.Open("/missing", O_RDONLY); err == nil {
		t.Fatal("expected an error opening a missing file read-only")
	}
}

func TestMemFSMkdirThenExistsRejected(t *testing.T) {
	m := NewMemFS()
	if err := m.Mkdir("/d"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := m.Mkdir("/d"); err == nil {
		t.Fatal("expected Mkdir on an existing directory to fail")
	}
}

func TestMemFSMkdirRejectsExistingEmptyFile(t *testing.T) {
	m := NewMemFS()
	f, err := m.Open("/empty", O_WRONLY|O_CREATE)
	if err != nil {
		t.Fatalf("Open for create: %v", err)
	}
	f.Close()

	if err := m.Mkdir("/empty"); err == nil {
		t.Fatal("Mkdir must reject a path that already names a zero-length file")
	}
}

func TestMemFSReadDirListsFilesAndSubdirs(t *testing.T) {
	m := NewMemFS()
	m.PutFile("/dir/a.txt", []byte("x"))
	m.PutFile("/dir/b.txt", []byte("yy"))
	if err := m.Mkdir("/dir/sub"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	// PutFile doesn't register parent directories, so mark /dir present
	// directly for this test.
	m.dirs["/dir"] = true

	entries, err := m.ReadDir("/dir")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ReadDir returned %d entries, want 3: %+v", len(entries), entries)
	}
}

func TestMemFSRenameFile(t *testing.T) {
	m := NewMemFS()
	m.PutFile("/old.txt", []byte("z"))
	if err := m.Rename("/old.txt", "/new.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := m.Stat("/old.txt"); !errorsIsNotExist(err) {
		t.Fatal("old path should no longer exist")
	}
	if _, err := m.Stat("/new.txt"); err != nil {
		t.Fatalf("new path should exist: %v", err)
	}
}

func TestMemFSCRC32(t *testing.T) {
	m := NewMemFS()
	m.PutFile("/a.txt", []byte("hello"))
	crc, err := m.CRC32("/a.txt")
	if err != nil {
		t.Fatalf("CRC32: %v", err)
	}
	if crc == 0 {
		t.Fatal("expected a non-zero CRC32 for non-empty content")
	}
}

func errorsIsNotExist(err error) bool {
	return err != nil && err == fs.ErrNotExist
}
