package test

import (
	"path/filepath"
	"runtime"
)

// ProjectRoot is the module root, used by tests that read files such as
// configs/briefcaster.example.toml.
func ProjectRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
