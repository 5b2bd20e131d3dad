package lock

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

const lockPath = "/data/taskstodo/lock"

func TestAcquireRelease(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := New(fs, lockPath)

	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	info, err := fs.Stat(lockPath)
	if err != nil {
		t.Fatalf("lock marker not created: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("lock marker size = %d, want 0", info.Size())
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if held, _ := l.Held(); held {
		t.Error("lock should not be held after Release")
	}
}

func TestAcquire_AlreadyHeld(t *testing.T) {
	fs := afero.NewMemMapFs()
	first := New(fs, lockPath)
	second := New(fs, lockPath)

	if err := first.Acquire(); err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}

	err := second.Acquire()
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Acquire() error = %v, want ErrAlreadyRunning", err)
	}

	// The failed acquire must not remove the existing marker.
	if held, _ := first.Held(); !held {
		t.Error("marker should still exist after failed Acquire")
	}
}

func TestRelease_Missing(t *testing.T) {
	l := New(afero.NewMemMapFs(), lockPath)
	if err := l.Release(); err != nil {
		t.Errorf("Release() on missing marker error = %v", err)
	}
}

func TestBreak(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := New(fs, lockPath)

	broken, err := l.Break()
	if err != nil || broken {
		t.Fatalf("Break() on free lock = (%v, %v), want (false, nil)", broken, err)
	}

	_ = afero.WriteFile(fs, lockPath, nil, 0o644)
	broken, err = l.Break()
	if err != nil || !broken {
		t.Fatalf("Break() on stale lock = (%v, %v), want (true, nil)", broken, err)
	}
	if err := l.Acquire(); err != nil {
		t.Errorf("Acquire() after Break error = %v", err)
	}
}
