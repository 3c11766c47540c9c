//go:build !windows

package metaio

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestPosixLstatDiscriminatesTypes(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(filePath, []byte("hi"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	linkPath := filepath.Join(dir, "link")
	if err := os.Symlink(filePath, linkPath); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	a := New()

	t.Run("regular file", func(t *testing.T) {
		info, err := a.Lstat(filePath)
		if err != nil {
			t.Fatalf("Lstat: %v", err)
		}
		if info.Type != TypeFile || !info.IsRegularFile {
			t.Errorf("got Type=%v IsRegularFile=%v, want file/true", info.Type, info.IsRegularFile)
		}
	})

	t.Run("symlink via lstat", func(t *testing.T) {
		info, err := a.Lstat(linkPath)
		if err != nil {
			t.Fatalf("Lstat: %v", err)
		}
		if info.Type != TypeLink {
			t.Errorf("got Type=%v, want link", info.Type)
		}
	})

	t.Run("symlink resolved via stat", func(t *testing.T) {
		info, err := a.Stat(linkPath)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if info.Type != TypeFile {
			t.Errorf("got Type=%v, want file", info.Type)
		}
	})

	t.Run("directory", func(t *testing.T) {
		info, err := a.Lstat(dir)
		if err != nil {
			t.Fatalf("Lstat: %v", err)
		}
		if info.Type != TypeDirectory {
			t.Errorf("got Type=%v, want directory", info.Type)
		}
	})
}

func TestPosixForceLinkSharesInode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dest := filepath.Join(dir, "dest.txt")

	a := New()
	if err := a.ForceLink(src, dest); err != nil {
		t.Fatalf("ForceLink: %v", err)
	}

	srcStat, err := os.Stat(src)
	if err != nil {
		t.Fatalf("Stat src: %v", err)
	}
	destStat, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("Stat dest: %v", err)
	}

	srcIno := srcStat.Sys().(*syscall.Stat_t).Ino
	destIno := destStat.Sys().(*syscall.Stat_t).Ino
	if srcIno != destIno {
		t.Errorf("expected shared inode, got src=%d dest=%d", srcIno, destIno)
	}
}

func TestPosixForceLinkReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dest := filepath.Join(dir, "dest.txt")
	if err := os.WriteFile(dest, []byte("stale"), 0644); err != nil {
		t.Fatalf("WriteFile dest: %v", err)
	}

	a := New()
	if err := a.ForceLink(src, dest); err != nil {
		t.Fatalf("ForceLink: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("got %q, want %q", data, "payload")
	}
}

func TestPosixForceSymlinkReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "link")
	if err := os.Symlink("old-target", dest); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	a := New()
	if err := a.ForceSymlink("new-target", dest); err != nil {
		t.Fatalf("ForceSymlink: %v", err)
	}

	got, err := a.Readlink(dest)
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if got != "new-target" {
		t.Errorf("got %q, want %q", got, "new-target")
	}
}

func TestPosixUtime(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	want := time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC)
	a := New()
	if err := a.Utime(p, want, want); err != nil {
		t.Fatalf("Utime: %v", err)
	}

	info, err := a.Stat(p)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.Mtime.Equal(want) {
		t.Errorf("got Mtime=%v, want %v", info.Mtime, want)
	}
}
