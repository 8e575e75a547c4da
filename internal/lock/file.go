package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// File holds locks as flock(2) locks on files in a directory. Locks only cover processes
// on the same host and are released when the holder exits, so ttl is not used.
type File struct {
	dir string

	mu    sync.Mutex
	locks map[string]*flock.Flock
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return &File{dir: dir, locks: make(map[string]*flock.Flock)}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, strings.NewReplacer(":", "_", "/", "_").Replace(key)+".lock")
}

func (f *File) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.locks[key]; held {
		return false, nil
	}

	fl := flock.New(f.path(key))
	ok, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	f.locks[key] = fl
	return true, nil
}

func (f *File) Release(_ context.Context, key string) error {
	f.mu.Lock()
	fl, ok := f.locks[key]
	delete(f.locks, key)
	f.mu.Unlock()
	if !ok {
		return nil
	}
	if err := fl.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}
