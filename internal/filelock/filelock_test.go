package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNewFileLock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	lock := NewFileLock(lockPath)
	if lock == nil {
		t.Fatal("NewFileLock should not return nil")
	}

	if lock.Path() != lockPath {
		t.Errorf("Expected lock path %s, got %s", lockPath, lock.Path())
	}
}

func TestLockUnlock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	lock := NewFileLock(lockPath)

	if err := lock.TryLock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}

	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("Lock file %s should stay in place: %v", lockPath, err)
	}
}

// TestLockHandoffKeepsExclusion verifies that after a holder releases the
// lock to a waiter that already had the file open, a third contender is
// still excluded.
func TestLockHandoffKeepsExclusion(t *testing.T) {
	dir := t.TempDir()

	holder := NewDirLock(dir)
	if err := holder.TryLock(); err != nil {
		t.Fatalf("Holder should acquire lock: %v", err)
	}

	// The waiter opens the lock file while the holder still owns it
	waiter := NewDirLock(dir)
	if err := waiter.TryLock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("Expected ErrLocked for waiter, got %v", err)
	}

	if err := holder.Unlock(); err != nil {
		t.Fatalf("Failed to release holder lock: %v", err)
	}
	if err := waiter.TryLock(); err != nil {
		t.Fatalf("Waiter should acquire lock after release: %v", err)
	}
	defer waiter.Unlock()

	third := NewDirLock(dir)
	if err := third.TryLock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("Third contender must be excluded while waiter holds the lock, got %v", err)
	}
}

func TestTryLock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	holder := NewFileLock(lockPath)
	if err := holder.TryLock(); err != nil {
		t.Fatalf("First TryLock should succeed: %v", err)
	}

	contender := NewFileLock(lockPath)
	err := contender.TryLock()
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("Expected ErrLocked, got %v", err)
	}

	if err := holder.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}

	if err := contender.TryLock(); err != nil {
		t.Fatalf("TryLock after release should succeed: %v", err)
	}
	contender.Unlock()
}

func TestDirLockPath(t *testing.T) {
	dir := t.TempDir()

	path := DirLockPath(dir)
	if filepath.Dir(path) != filepath.Clean(os.TempDir()) {
		t.Errorf("Lock should live in the temp dir, got %s", path)
	}
	if !strings.HasPrefix(filepath.Base(path), "prunefiles-") || !strings.HasSuffix(path, ".lock") {
		t.Errorf("Unexpected lock file name %s", path)
	}

	if DirLockPath(dir+string(filepath.Separator)) != path {
		t.Error("Trailing separator should map to the same lock")
	}
	if DirLockPath(filepath.Join(dir, "sub", "..")) != path {
		t.Error("Uncleaned path should map to the same lock")
	}
	if DirLockPath(filepath.Join(dir, "other")) == path {
		t.Error("Different folders should not share a lock")
	}
}

func TestDirLockExcludesSecondRun(t *testing.T) {
	dir := t.TempDir()

	first := NewDirLock(dir)
	if err := first.TryLock(); err != nil {
		t.Fatalf("First lock should succeed: %v", err)
	}
	defer first.Unlock()

	second := NewDirLock(dir)
	if err := second.TryLock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("Expected ErrLocked, got %v", err)
	}

	// The lock never lands inside the pruned folder
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty folder, found %d entries", len(entries))
	}
}

func TestAtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report.yaml")

	content := []byte("run_id: abc\n")
	if err := AtomicWrite(path, content); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("Expected content %q, got %q", content, data)
	}
}

func TestAtomicWriteOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report.txt")

	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(path, []byte("new")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("Expected 'new', got %q", data)
	}
}

func TestAtomicWritePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report.txt")

	if err := AtomicWrite(path, []byte("x")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected permissions 0644, got %o", info.Mode().Perm())
	}
}

func TestAtomicWriteNoTempFileLeftBehind(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report.txt")

	for i := 0; i < 3; i++ {
		if err := AtomicWrite(path, []byte("content")); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".tmp-") {
			t.Errorf("Temp file left behind: %s", entry.Name())
		}
	}
}

func TestAtomicWriteCreateDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "reports", "nested", "report.txt")

	if err := AtomicWrite(path, []byte("content")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("File not created: %v", err)
	}
}

func TestConcurrentAtomicWrites(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report.txt")

	const goroutines = 10
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if err := AtomicWrite(path, []byte("same content")); err != nil {
				t.Errorf("AtomicWrite failed: %v", err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "same content" {
		t.Errorf("Unexpected content %q", data)
	}
}
