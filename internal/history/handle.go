package history

import (
	"io"
	"os"
	"sync"
)

// Handle owns a staged copy of a binary result, the one resource in
// the client that needs explicit lifetime discipline. The controller
// releases it when a newer result supersedes it or when the controller
// closes; Release is guarded so it runs at most once no matter how the
// paths interleave.
type Handle struct {
	path string
	once sync.Once
	err  error
}

func newHandle(path string) *Handle { return &Handle{path: path} }

// Path returns the staged file's location.
func (h *Handle) Path() string { return h.path }

// Open returns a reader over the staged bytes.
func (h *Handle) Open() (io.ReadCloser, error) { return os.Open(h.path) }

// Release removes the staged file. Only the first call does work;
// later calls return the first call's result.
func (h *Handle) Release() error {
	h.once.Do(func() { h.err = os.Remove(h.path) })
	return h.err
}
