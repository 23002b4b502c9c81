// Package session wires the schema catalog, form state, execution
// gateway, and history controller behind the surface the TUI and CLI
// consume. It owns the submission lifecycle: open a ledger entry
// before the request leaves, settle it exactly once when the gateway
// answers.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/XRed8X/PDB-Engine/internal/catalog"
	"github.com/XRed8X/PDB-Engine/internal/command"
	"github.com/XRed8X/PDB-Engine/internal/form"
	"github.com/XRed8X/PDB-Engine/internal/gateway"
	"github.com/XRed8X/PDB-Engine/internal/history"
)

// ErrNoCommand is returned by Submit when nothing is selected.
var ErrNoCommand = errors.New("session: no command selected")

// Executor performs one engine round trip. The gateway client
// satisfies it; tests substitute their own.
type Executor interface {
	Execute(ctx context.Context, req command.Request) (*gateway.Outcome, error)
}

// Session is safe for concurrent use. Overlapping submissions are
// legal: each one settles only the ledger entry it opened.
type Session struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	form    *form.State
	exec    Executor
	history *history.Controller
	log     *zap.Logger

	inFlight   int
	lastError  string
	lastOK     bool
	suggestion string
}

// New builds a Session over an immutable catalog.
func New(cat *catalog.Catalog, exec Executor, hist *history.Controller, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		catalog: cat,
		form:    form.NewState(),
		exec:    exec,
		history: hist,
		log:     log,
	}
}

// Commands lists the catalog's command names in declaration order.
func (s *Session) Commands() []string { return s.catalog.Names() }

// SelectCommand makes name the active command, rebuilding the form
// from its schema. An unknown name clears the active configuration and
// records a nearest-match suggestion; it never fails.
func (s *Session) SelectCommand(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.catalog.Lookup(name)
	if !ok {
		s.form.Select(nil)
		s.suggestion = s.catalog.Nearest(name)
		s.log.Warn("unknown command selected",
			zap.String("command", name),
			zap.String("suggestion", s.suggestion))
		return
	}
	s.suggestion = ""
	s.form.Select(cfg)
}

// UpdateField replaces one field's value. A successful edit clears any
// surfaced error or success indicator, since it invalidates the prior
// submission's outcome.
func (s *Session) UpdateField(name string, v form.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.form.Update(name, v); err != nil {
		return err
	}
	s.lastError = ""
	s.lastOK = false
	return nil
}

// SetText sets a text argument.
func (s *Session) SetText(name, text string) error {
	return s.UpdateField(name, form.Value{Kind: form.KindText, Text: text})
}

// SetFile sets the structure argument; nil clears it.
func (s *Session) SetFile(name string, ref *form.FileRef) error {
	return s.UpdateField(name, form.Value{Kind: form.KindFile, File: ref})
}

// SetFlag toggles a boolean flag.
func (s *Session) SetFlag(name string, on bool) error {
	return s.UpdateField(name, form.Value{Kind: form.KindFlag, Flag: on})
}

// Submit runs the active command against the engine. The pending
// ledger entry exists before the request leaves; by return it has
// settled to finished or error. Every gateway failure is converted to
// the error path here, with the engine's own message preserved when it
// reported one.
func (s *Session) Submit(ctx context.Context) (history.Record, error) {
	s.mu.Lock()
	req := command.Build(s.form)
	if req.Command == "" {
		s.mu.Unlock()
		return history.Record{}, ErrNoCommand
	}
	rec := s.history.Begin(req.Command)
	s.inFlight++
	s.lastError = ""
	s.lastOK = false
	s.mu.Unlock()

	start := time.Now()
	out, err := s.exec.Execute(ctx, req)
	elapsed := time.Since(start).Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	if err != nil {
		settled, _ := s.history.Fail(rec.ID, elapsed)
		s.lastError = err.Error()
		s.log.Warn("submission failed",
			zap.String("id", rec.ID),
			zap.String("command", req.Command),
			zap.Error(err))
		return settled, err
	}

	settled, err := s.history.Finish(rec.ID, out.Data, out.ExecutionSeconds)
	if err != nil {
		// the result arrived but could not be materialized locally
		settled, _ = s.history.Fail(rec.ID, elapsed)
		s.lastError = err.Error()
		s.log.Error("result could not be saved",
			zap.String("id", rec.ID),
			zap.String("command", req.Command),
			zap.Error(err))
		return settled, err
	}

	s.lastOK = true
	return settled, nil
}

// SelectedCommand returns the active command name, "" when none.
func (s *Session) SelectedCommand() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Command()
}

// ActiveConfig returns the active command's schema entry, nil when
// none is selected.
func (s *Session) ActiveConfig() *catalog.CommandConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Config()
}

// FieldValue returns the current value for one field.
func (s *Session) FieldValue(name string) (form.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Value(name)
}

// Fields returns the active field names in schema order.
func (s *Session) Fields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Fields()
}

// Preview renders the command-line preview for the current form.
func (s *Session) Preview() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return command.Preview(s.form)
}

// Suggestion returns the nearest known command recorded by the last
// unknown SelectCommand, "" otherwise.
func (s *Session) Suggestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggestion
}

// InFlight reports whether any submission is outstanding.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// LastError returns the message surfaced by the most recent failed
// submission, "" when the last outcome was not a failure or an edit
// cleared it.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// LastSuccess reports whether the most recent submission succeeded and
// no edit has cleared the indicator since.
func (s *Session) LastSuccess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOK
}

// Records returns a newest-first snapshot of the ledger.
func (s *Session) Records() []history.Record { return s.history.Records() }

// CurrentHandle returns the live result handle, nil when none.
func (s *Session) CurrentHandle() *history.Handle { return s.history.Current() }

// SavedPath returns where a finished record's results were saved.
func (s *Session) SavedPath(rec history.Record) string { return s.history.SavedPath(rec) }

// Close releases the current result handle.
func (s *Session) Close() error { return s.history.Close() }
