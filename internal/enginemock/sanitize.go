package enginemock

import "strings"

// sanitizeFilename applies the engine's upload name policy. Anything
// outside [A-Za-z0-9._-] becomes '_', a missing .pdb suffix is added,
// and overlong names are clipped to keep the stem under 95 runes.
func sanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()

	if !strings.HasSuffix(strings.ToLower(out), ".pdb") {
		out += ".pdb"
	}

	if len(out) > 100 {
		if i := strings.LastIndexByte(out, '.'); i >= 0 {
			stem, ext := out[:i], out[i+1:]
			if len(stem) > 95 {
				stem = stem[:95]
			}
			out = stem + "." + ext
		} else {
			out = out[:100]
		}
	}
	return out
}
