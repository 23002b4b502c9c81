// Package catalog holds the engine command schema: which commands exist
// and which arguments and flags each one accepts. The catalog is loaded
// once and read-only afterwards; callers treat returned configs as
// immutable.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// CommandConfig describes one engine command: its name plus the ordered
// argument and flag names it accepts.
type CommandConfig struct {
	Name      string   `json:"name"`
	Arguments []string `json:"arguments"`
	Flags     []string `json:"flags"`
}

// Catalog maps command names to their configs, preserving declaration
// order for enumeration.
type Catalog struct {
	names  []string
	byName map[string]*CommandConfig
}

// New validates entries and builds a catalog from them. Command names
// must be unique; within a command, argument and flag names must be
// unique and must not collide with each other.
func New(entries []CommandConfig) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*CommandConfig, len(entries))}
	for i := range entries {
		e := entries[i]
		if e.Name == "" {
			return nil, fmt.Errorf("catalog: command %d has no name", i)
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate command %q", e.Name)
		}
		seen := make(map[string]bool, len(e.Arguments)+len(e.Flags))
		for _, a := range e.Arguments {
			if seen[a] {
				return nil, fmt.Errorf("catalog: %s: duplicate argument %q", e.Name, a)
			}
			seen[a] = true
		}
		for _, f := range e.Flags {
			if seen[f] {
				return nil, fmt.Errorf("catalog: %s: flag %q collides with another field", e.Name, f)
			}
			seen[f] = true
		}
		c.names = append(c.names, e.Name)
		c.byName[e.Name] = &entries[i]
	}
	return c, nil
}

type catalogFile struct {
	Commands []CommandConfig `json:"commands"`
}

// Load reads a catalog from its JSON form: an ordered array of command
// entries under a "commands" key.
func Load(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(f.Commands)
}

// LoadFile reads a catalog from the JSON file at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Names returns the command names in declaration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Lookup returns the config for name. Unknown names yield (nil, false),
// the "no active configuration" state; they never error.
func (c *Catalog) Lookup(name string) (*CommandConfig, bool) {
	cfg, ok := c.byName[name]
	return cfg, ok
}

// Len returns the number of commands.
func (c *Catalog) Len() int { return len(c.names) }
