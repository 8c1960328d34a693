// Package handlog persists one JSON document per completed hand to
// the output directory. Records are written whole and atomically, so
// a reader polling the directory never sees a partial hand.
package handlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/fileutil"
	"github.com/lox/holdem-arena/internal/game"
)

// Filename returns the record name for a hand index, game_log_0.json
// for the first hand of a match.
func Filename(index int) string {
	return fmt.Sprintf("game_log_%d.json", index)
}

// Writer persists hand records into one directory.
type Writer struct {
	dir    string
	logger *log.Logger
}

// NewWriter creates dir if needed and returns a writer over it.
func NewWriter(dir string, logger *log.Logger) (*Writer, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &Writer{dir: dir, logger: logger.WithPrefix("handlog")}, nil
}

// Dir returns the directory records are written to.
func (w *Writer) Dir() string { return w.dir }

// Write persists rec as game_log_<hand_index>.json. Marshaling is
// deterministic, so identical records produce identical files.
func (w *Writer) Write(rec *game.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal hand %d: %w", rec.HandIndex, err)
	}
	data = append(data, '\n')

	path := filepath.Join(w.dir, Filename(rec.HandIndex))
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("persist hand %d: %w", rec.HandIndex, err)
	}
	w.logger.Debug("Wrote hand record", "path", path, "events", len(rec.Events))
	return nil
}

// Read loads a previously written record, mostly for tests and
// tooling.
func Read(path string) (*game.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec game.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &rec, nil
}
