// Package form models the live input state for one selected engine
// command. Every field holds a tagged variant value so serialization
// can match exhaustively on kind instead of inspecting types at
// runtime.
package form

import (
	"errors"
	"fmt"

	"github.com/XRed8X/PDB-Engine/internal/catalog"
)

// Kind discriminates what a field value holds.
type Kind int

const (
	KindText Kind = iota
	KindFile
	KindFlag
)

// FileRef points at a structure file chosen for upload. Name is the
// filename serialized projections emit; Path is the local file the
// gateway reads bytes from.
type FileRef struct {
	Name string
	Path string
}

// Value is a tagged variant: exactly one of Text, File, or Flag is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Text string
	File *FileRef
	Flag bool
}

// Empty reports whether the value would be omitted from serialized
// output: empty text, absent file, or a false flag.
func (v Value) Empty() bool {
	switch v.Kind {
	case KindText:
		return v.Text == ""
	case KindFile:
		return v.File == nil || v.File.Name == ""
	case KindFlag:
		return !v.Flag
	}
	return true
}

var (
	ErrUnknownField = errors.New("form: unknown field")
	ErrKindMismatch = errors.New("form: value kind mismatch")
)

// structureArgument is the one argument the engine accepts as an
// uploaded file; the service maps the upload onto it server-side.
const structureArgument = "pdb"

// State holds the field values for the currently selected command.
// Selecting a command rebuilds it in full; nothing survives a switch.
type State struct {
	cfg    *catalog.CommandConfig
	values map[string]Value
}

// NewState returns a state with no command selected.
func NewState() *State { return &State{} }

// Select makes cfg the active command and reinitializes every field:
// arguments start as empty text (the structure argument as an absent
// file reference), flags start false. Select(nil) clears the active
// configuration.
func (s *State) Select(cfg *catalog.CommandConfig) {
	if cfg == nil {
		s.cfg = nil
		s.values = nil
		return
	}
	vals := make(map[string]Value, len(cfg.Arguments)+len(cfg.Flags))
	for _, a := range cfg.Arguments {
		if a == structureArgument {
			vals[a] = Value{Kind: KindFile}
		} else {
			vals[a] = Value{Kind: KindText}
		}
	}
	for _, f := range cfg.Flags {
		vals[f] = Value{Kind: KindFlag}
	}
	s.cfg = cfg
	s.values = vals
}

// Config returns the active command's config, nil when none.
func (s *State) Config() *catalog.CommandConfig { return s.cfg }

// Command returns the active command name, "" when none.
func (s *State) Command() string {
	if s.cfg == nil {
		return ""
	}
	return s.cfg.Name
}

// Update replaces one field's value. The field must exist and the new
// value's kind must match the field's declared kind; all other fields
// are untouched.
func (s *State) Update(name string, v Value) error {
	cur, ok := s.values[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if cur.Kind != v.Kind {
		return fmt.Errorf("%w: %q", ErrKindMismatch, name)
	}
	s.values[name] = v
	return nil
}

// SetText sets a text argument.
func (s *State) SetText(name, text string) error {
	return s.Update(name, Value{Kind: KindText, Text: text})
}

// SetFile sets the structure argument; nil clears it.
func (s *State) SetFile(name string, ref *FileRef) error {
	return s.Update(name, Value{Kind: KindFile, File: ref})
}

// SetFlag toggles a boolean flag.
func (s *State) SetFlag(name string, on bool) error {
	return s.Update(name, Value{Kind: KindFlag, Flag: on})
}

// Value returns the current value for name.
func (s *State) Value(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Fields returns the field names in schema order: arguments first,
// then flags.
func (s *State) Fields() []string {
	if s.cfg == nil {
		return nil
	}
	out := make([]string, 0, len(s.cfg.Arguments)+len(s.cfg.Flags))
	out = append(out, s.cfg.Arguments...)
	out = append(out, s.cfg.Flags...)
	return out
}

// Len returns the number of fields.
func (s *State) Len() int { return len(s.values) }
