package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPublicPrefix is the URL path local artifacts are served under.
const DefaultPublicPrefix = "/audio/"

// Local keeps artifacts in a directory on disk.
type Local struct {
	root   string
	prefix string
}

// NewLocal creates a Local store rooted at dir, creating it if needed. Saved artifacts are
// published as prefix + name.
func NewLocal(dir, prefix string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create audio directory: %w", err)
	}
	if prefix == "" {
		prefix = DefaultPublicPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Local{root: abs, prefix: prefix}, nil
}

// Root is the directory artifacts are written to.
func (l *Local) Root() string { return l.root }

func (l *Local) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return filepath.Join(l.root, name), nil
}

// Save writes data through a temporary file so readers never see a partial artifact.
func (l *Local) Save(_ context.Context, name string, data []byte, _ string) (string, error) {
	full, err := l.resolve(name)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(l.root, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return l.prefix + name, nil
}

// Delete removes the artifact. A missing file is not an error.
func (l *Local) Delete(_ context.Context, location string) error {
	full, err := l.resolve(nameFromLocation(location))
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
