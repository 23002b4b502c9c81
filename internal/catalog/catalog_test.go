package catalog

import (
	"strings"
	"testing"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c := Default()
	if c.Len() != 35 {
		t.Fatalf("command count = %d, want %d", c.Len(), 35)
	}
	for _, name := range []string{"ProteinDesign", "BuildMutant", "RepairStructure", "ComputeStability", "SelectResWithin"} {
		if _, ok := c.Lookup(name); !ok {
			t.Fatalf("missing command %q", name)
		}
	}
	cfg, _ := c.Lookup("ProteinDesign")
	if len(cfg.Arguments) == 0 || cfg.Arguments[0] != "pdb" {
		t.Fatalf("ProteinDesign arguments = %v, want pdb first", cfg.Arguments)
	}
}

func TestNamesPreserveDeclarationOrder(t *testing.T) {
	c, err := Load(strings.NewReader(`{"commands": [
		{"name": "Zeta", "arguments": ["pdb"], "flags": []},
		{"name": "Alpha", "arguments": ["pdb"], "flags": ["verbose"]},
		{"name": "Mid", "arguments": [], "flags": []}
	]}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	names := c.Names()
	want := []string{"Zeta", "Alpha", "Mid"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestLookupUnknownYieldsNoConfig(t *testing.T) {
	c := Default()
	cfg, ok := c.Lookup("NotACommand")
	if ok || cfg != nil {
		t.Fatalf("Lookup unknown = (%v, %v), want (nil, false)", cfg, ok)
	}
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name    string
		entries []CommandConfig
	}{
		{"duplicate command", []CommandConfig{
			{Name: "A", Arguments: []string{"pdb"}},
			{Name: "A", Arguments: []string{"pdb"}},
		}},
		{"duplicate argument", []CommandConfig{
			{Name: "A", Arguments: []string{"pdb", "pdb"}},
		}},
		{"flag collides with argument", []CommandConfig{
			{Name: "A", Arguments: []string{"verbose"}, Flags: []string{"verbose"}},
		}},
		{"unnamed command", []CommandConfig{
			{Name: "", Arguments: []string{"pdb"}},
		}},
	}
	for _, tc := range cases {
		if _, err := New(tc.entries); err == nil {
			t.Fatalf("%s: expected error, got nil", tc.name)
		}
	}
}

func TestNearestSuggestsCloseCommand(t *testing.T) {
	c := Default()
	cases := map[string]string{
		"ProteinDsign":  "ProteinDesign",
		"proteindesign": "ProteinDesign",
		"buildmutnt":    "BuildMutant",
		"Minimze":       "Minimize",
		"qqqqqqqq":      "",
		"":              "",
	}
	for in, want := range cases {
		if got := c.Nearest(in); got != want {
			t.Fatalf("Nearest(%q) = %q, want %q", in, got, want)
		}
	}
}
