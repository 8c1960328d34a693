package server

import (
	"path/filepath"

	"github.com/lox/holdem-arena/internal/fileutil"
)

// Status tokens external monitors poll for.
const (
	StatusRunning = "RUNNING"
	StatusDone    = "DONE"
)

// StatusWriter maintains the match status file. The file holds exactly
// one token so a monitor can read it without parsing.
type StatusWriter struct {
	path string
}

// NewStatusWriter targets name inside dir.
func NewStatusWriter(dir, name string) *StatusWriter {
	if dir == "" {
		dir = "."
	}
	return &StatusWriter{path: filepath.Join(dir, name)}
}

// Path returns the status file location.
func (w *StatusWriter) Path() string { return w.path }

// Running marks the match as in progress.
func (w *StatusWriter) Running() error { return w.write(StatusRunning) }

// Done marks the match as finished.
func (w *StatusWriter) Done() error { return w.write(StatusDone) }

func (w *StatusWriter) write(token string) error {
	return fileutil.WriteFileAtomic(w.path, []byte(token), 0o644)
}
