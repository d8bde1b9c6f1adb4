package fsops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOSFSOpenStatRoundTrip(t *testing.T) {
	root := t.TempDir()
	osfs, err := NewOSFS(root)
	if err != nil {
		t.Fatalf("NewOSFS: %v", err)
	}

	f, err := osfs.Open("/a.txt", O_WRONLY|O_CREATE|O_TRUNC)
	if err != nil {
		t.Fatalf("Open for create: %v", err)
	}
	if _, err := f.Write([]byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	info, err := osfs.Stat("/a.txt")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size != 2 {
		t.Fatalf("Size = %d, want 2", info.Size)
	}
}

func TestOSFSRejectsPathEscape(t *testing.T) {
	root := t.TempDir()
	osfs, err := NewOSFS(root)
	if err != nil {
		t.Fatalf("NewOSFS: %v", err)
	}
	if _, err := osfs.Open("/../escaped.txt", O_RDONLY); err == nil {
		t.Fatal("expected an error opening a path that climbs above root")
	}
}

func TestOSFSReadDirSortsAndSizesEntries(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("xy"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	osfs, err := NewOSFS(root)
	if err != nil {
		t.Fatalf("NewOSFS: %v", err)
	}
	entries, err := osfs.ReadDir("/")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[0].Size != 1 {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
	if entries[1].Name != "b.txt" || entries[1].Size != 2 {
		t.Fatalf("entries[1] = %+v", entries[1])
	}
	if entries[2].Name != "sub" || !entries[2].IsDir {
		t.Fatalf("entries[2] = %+v", entries[2])
	}
}
