// Package history owns the execution ledger: one record per
// submission, newest first, each settled in place exactly once. It
// also manages the staged result files behind finished entries and the
// automatic save into the downloads directory.
package history

import (
	"strings"
	"time"
)

// Status tracks a submission through its lifecycle: pending until the
// gateway answers, then finished or error, both terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusFinished Status = "finished"
	StatusError    Status = "error"
)

// Settled reports whether no further transitions are allowed.
func (s Status) Settled() bool { return s == StatusFinished || s == StatusError }

// Placeholder filenames for entries that have no real output name.
const (
	PendingFilename = "Processing..."
	FailedFilename  = "Failed"
)

// Record is one row of execution history. DownloadPath points at the
// staged result while its handle is alive; Filename is the derived
// output name once finished.
type Record struct {
	ID               string
	Command          string
	CreatedAt        time.Time
	Status           Status
	DownloadPath     string
	Filename         string
	ExecutionSeconds float64
}

// DeriveFilename builds the output archive name for a finished run:
// the lowercased command, a sanitized timestamp, and the fixed archive
// extension.
func DeriveFilename(command string, t time.Time) string {
	return strings.ToLower(command) + "_results_" + sanitizeTimestamp(t) + ".zip"
}

// sanitizeTimestamp renders t in RFC 3339 with every separator
// normalized to '-', leaving only filename-safe bytes.
func sanitizeTimestamp(t time.Time) string {
	var b strings.Builder
	for _, r := range t.UTC().Format(time.RFC3339) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
