package form

import (
	"errors"
	"testing"

	"github.com/XRed8X/PDB-Engine/internal/catalog"
)

func designConfig() *catalog.CommandConfig {
	return &catalog.CommandConfig{
		Name:      "ProteinDesign",
		Arguments: []string{"pdb", "chain"},
		Flags:     []string{"verbose"},
	}
}

func TestSelectInitializesDefaults(t *testing.T) {
	s := NewState()
	s.Select(designConfig())

	if got := s.Command(); got != "ProteinDesign" {
		t.Fatalf("command = %q, want %q", got, "ProteinDesign")
	}
	v, ok := s.Value("pdb")
	if !ok || v.Kind != KindFile || v.File != nil {
		t.Fatalf("pdb default = %+v, want absent file reference", v)
	}
	v, ok = s.Value("chain")
	if !ok || v.Kind != KindText || v.Text != "" {
		t.Fatalf("chain default = %+v, want empty text", v)
	}
	v, ok = s.Value("verbose")
	if !ok || v.Kind != KindFlag || v.Flag {
		t.Fatalf("verbose default = %+v, want false flag", v)
	}
}

func TestSelectSwitchPurgesStaleState(t *testing.T) {
	a := &catalog.CommandConfig{Name: "A", Arguments: []string{"pdb", "resi"}, Flags: []string{"debug"}}
	b := &catalog.CommandConfig{Name: "B", Arguments: []string{"seq"}, Flags: []string{"dry_run"}}

	s := NewState()
	s.Select(a)
	if err := s.SetText("resi", "42"); err != nil {
		t.Fatalf("set resi: %v", err)
	}
	if err := s.SetFlag("debug", true); err != nil {
		t.Fatalf("set debug: %v", err)
	}

	s.Select(b)
	want := map[string]bool{"seq": true, "dry_run": true}
	fields := s.Fields()
	if len(fields) != len(want) {
		t.Fatalf("field count = %d, want %d", len(fields), len(want))
	}
	for _, f := range fields {
		if !want[f] {
			t.Fatalf("unexpected field %q after switch", f)
		}
	}
	if _, ok := s.Value("resi"); ok {
		t.Fatal("stale field resi survived command switch")
	}

	// switching back starts from defaults, not remembered values
	s.Select(a)
	v, _ := s.Value("resi")
	if v.Text != "" {
		t.Fatalf("resi after reselect = %q, want empty", v.Text)
	}
	v, _ = s.Value("debug")
	if v.Flag {
		t.Fatal("debug after reselect = true, want false")
	}
}

func TestSelectNilClearsConfiguration(t *testing.T) {
	s := NewState()
	s.Select(designConfig())
	s.Select(nil)
	if s.Command() != "" || s.Config() != nil || s.Len() != 0 {
		t.Fatalf("cleared state = (%q, %v, %d), want empty", s.Command(), s.Config(), s.Len())
	}
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	s := NewState()
	s.Select(designConfig())
	err := s.SetText("nope", "x")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("err = %v, want ErrUnknownField", err)
	}
}

func TestUpdateRejectsKindMismatch(t *testing.T) {
	s := NewState()
	s.Select(designConfig())
	if err := s.SetText("verbose", "yes"); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("text into flag: err = %v, want ErrKindMismatch", err)
	}
	if err := s.SetFlag("chain", true); !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("flag into text: err = %v, want ErrKindMismatch", err)
	}
}

func TestUpdateReplacesExactlyOneField(t *testing.T) {
	s := NewState()
	s.Select(designConfig())
	if err := s.SetFile("pdb", &FileRef{Name: "1abc.pdb", Path: "/tmp/1abc.pdb"}); err != nil {
		t.Fatalf("set pdb: %v", err)
	}
	if err := s.SetText("chain", "A"); err != nil {
		t.Fatalf("set chain: %v", err)
	}

	v, _ := s.Value("pdb")
	if v.File == nil || v.File.Name != "1abc.pdb" {
		t.Fatalf("pdb = %+v, want 1abc.pdb reference", v)
	}
	v, _ = s.Value("verbose")
	if v.Flag {
		t.Fatal("verbose mutated by unrelated updates")
	}
}

func TestValueEmpty(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Value{Kind: KindText}, true},
		{Value{Kind: KindText, Text: "A"}, false},
		{Value{Kind: KindFile}, true},
		{Value{Kind: KindFile, File: &FileRef{Name: "x.pdb"}}, false},
		{Value{Kind: KindFlag}, true},
		{Value{Kind: KindFlag, Flag: true}, false},
	}
	for i, tc := range cases {
		if got := tc.v.Empty(); got != tc.want {
			t.Fatalf("case %d: Empty() = %v, want %v", i, got, tc.want)
		}
	}
}
