package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUnknownRecord = errors.New("history: unknown record id")
	ErrRecordSettled = errors.New("history: record already settled")
)

// Options configure a Controller.
type Options struct {
	// DownloadDir is where finished results are saved under their
	// derived filename.
	DownloadDir string
	// StagingDir is where result handles stage their bytes; "" uses
	// the system temp directory.
	StagingDir string
	Now        func() time.Time
	Logger     *zap.Logger
}

// Controller owns the ledger and the lifetime of the current result
// handle. It is the only writer of ledger entries; readers get copies.
// All methods are safe for concurrent use, and settling one entry
// never touches another: mutation is keyed strictly by id.
type Controller struct {
	mu      sync.Mutex
	opts    Options
	records []*Record
	seq     uint64
	current *Handle
}

// New builds a Controller. Results are saved under opts.DownloadDir.
func New(opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{opts: opts}
}

// Begin opens a pending entry for command and prepends it to the
// ledger, newest first. Ids are derived from the submission timestamp
// with a monotonic counter suffix so same-tick submissions stay
// distinct. The returned copy carries the id used to settle the entry
// later.
func (c *Controller) Begin(command string) Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Now()
	c.seq++
	rec := &Record{
		ID:        fmt.Sprintf("%d-%d", now.UnixMilli(), c.seq),
		Command:   command,
		CreatedAt: now,
		Status:    StatusPending,
		Filename:  PendingFilename,
	}
	c.records = append([]*Record{rec}, c.records...)
	c.opts.Logger.Debug("submission opened",
		zap.String("id", rec.ID),
		zap.String("command", command))
	return *rec
}

// Finish settles the entry with id as finished: it derives the output
// filename, stages the result bytes behind a fresh handle, saves a
// copy through that handle into the download directory, then mutates
// the entry in place. The previously current handle is released on
// supersession. A staging or save failure leaves the entry pending so
// the caller can fail it with the real elapsed time.
func (c *Controller) Finish(id string, data []byte, seconds float64) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.find(id)
	if rec == nil {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	if rec.Status.Settled() {
		return *rec, fmt.Errorf("%w: %s", ErrRecordSettled, id)
	}

	filename := DeriveFilename(rec.Command, c.opts.Now())
	h, err := c.stage(data)
	if err != nil {
		return *rec, fmt.Errorf("stage result: %w", err)
	}
	if err := c.save(h, filename); err != nil {
		_ = h.Release()
		return *rec, fmt.Errorf("save result: %w", err)
	}

	rec.Status = StatusFinished
	rec.DownloadPath = h.Path()
	rec.Filename = filename
	rec.ExecutionSeconds = seconds

	if c.current != nil {
		_ = c.current.Release()
	}
	c.current = h

	c.opts.Logger.Info("submission finished",
		zap.String("id", id),
		zap.String("command", rec.Command),
		zap.String("filename", filename),
		zap.Float64("seconds", seconds))
	return *rec, nil
}

// Fail settles the entry with id as errored, recording the elapsed
// wall-clock seconds and the fixed failure marker. The error message
// itself travels to the caller, never onto the ledger.
func (c *Controller) Fail(id string, seconds float64) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.find(id)
	if rec == nil {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	if rec.Status.Settled() {
		return *rec, fmt.Errorf("%w: %s", ErrRecordSettled, id)
	}

	rec.Status = StatusError
	rec.Filename = FailedFilename
	rec.ExecutionSeconds = seconds

	c.opts.Logger.Info("submission failed",
		zap.String("id", id),
		zap.String("command", rec.Command),
		zap.Float64("seconds", seconds))
	return *rec, nil
}

// Records returns a newest-first snapshot of the ledger.
func (c *Controller) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	for i, r := range c.records {
		out[i] = *r
	}
	return out
}

// Len returns the number of ledger entries.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Current returns the handle staged by the most recent finished
// submission, nil when none is alive.
func (c *Controller) Current() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SavedPath returns where a finished record's results were saved, ""
// for entries that never finished.
func (c *Controller) SavedPath(rec Record) string {
	if rec.Status != StatusFinished {
		return ""
	}
	return filepath.Join(c.opts.DownloadDir, rec.Filename)
}

// Close releases the current handle. Call it when the owning scope
// ends; the ledger itself needs no teardown.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	err := c.current.Release()
	c.current = nil
	return err
}

func (c *Controller) find(id string) *Record {
	for _, r := range c.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (c *Controller) stage(data []byte) (*Handle, error) {
	dir := c.opts.StagingDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(dir, "pdbengine-*.zip")
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, err
	}
	return newHandle(f.Name()), nil
}

// save copies the staged result into the download directory under name.
func (c *Controller) save(h *Handle, name string) error {
	if err := os.MkdirAll(c.opts.DownloadDir, 0o755); err != nil {
		return err
	}
	src, err := h.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(filepath.Join(c.opts.DownloadDir, name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
