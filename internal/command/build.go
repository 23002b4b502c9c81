// Package command derives the two projections of a filled form: the
// human-readable command-line preview and the structured request the
// gateway sends. Both are pure functions of the schema and the form
// state.
package command

import (
	"strings"

	"github.com/XRed8X/PDB-Engine/internal/form"
)

// Base is the token that introduces the command name on the engine's
// command line.
const Base = "--command="

// Request is the wire-level projection of a filled form. Arguments
// holds only non-empty values, with a file argument contributing its
// filename; Flags lists the true flags in declaration order. File
// points at the upload source and never appears in the JSON body.
type Request struct {
	Command   string            `json:"command"`
	Arguments map[string]string `json:"arguments"`
	Flags     []string          `json:"flags"`
	File      *form.FileRef     `json:"-"`
}

// Preview renders the command line the engine would see. Arguments and
// flags follow the schema's declared order regardless of edit order;
// empty values and false flags are omitted entirely. No selected
// command yields "".
func Preview(st *form.State) string {
	cfg := st.Config()
	if cfg == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(Base)
	b.WriteString(cfg.Name)
	for _, a := range cfg.Arguments {
		v, ok := st.Value(a)
		if !ok || v.Empty() {
			continue
		}
		b.WriteString(" --")
		b.WriteString(a)
		b.WriteString("=")
		b.WriteString(argString(v))
	}
	for _, f := range cfg.Flags {
		v, ok := st.Value(f)
		if !ok || v.Empty() {
			continue
		}
		b.WriteString(" --")
		b.WriteString(f)
	}
	return b.String()
}

// Build derives the structured request with the same inclusion rules as
// Preview. No selected command yields the zero Request.
func Build(st *form.State) Request {
	cfg := st.Config()
	if cfg == nil {
		return Request{}
	}
	req := Request{
		Command:   cfg.Name,
		Arguments: make(map[string]string, len(cfg.Arguments)),
		Flags:     make([]string, 0, len(cfg.Flags)),
	}
	for _, a := range cfg.Arguments {
		v, ok := st.Value(a)
		if !ok || v.Empty() {
			continue
		}
		req.Arguments[a] = argString(v)
		if v.Kind == form.KindFile {
			req.File = v.File
		}
	}
	for _, f := range cfg.Flags {
		v, ok := st.Value(f)
		if !ok || v.Empty() {
			continue
		}
		req.Flags = append(req.Flags, f)
	}
	return req
}

// argString is the string a non-empty argument contributes: its text,
// or for a file reference its filename. Bytes stay out of projections.
func argString(v form.Value) string {
	if v.Kind == form.KindFile {
		return v.File.Name
	}
	return v.Text
}
