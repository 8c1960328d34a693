package handlog

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/game"
)

func sampleRecord() *game.Record {
	return &game.Record{
		HandIndex: 3,
		HandID:    "01h5n0et5q6mt3v7ms1234abcd",
		Button:    1,
		Seats: []game.SeatRecord{
			{Seat: 1, Name: "alice", Stack: 1000},
			{Seat: 2, Name: "bob", Stack: 1000},
		},
		SmallBlind: game.BlindRecord{Seat: 1, Amount: 5},
		BigBlind:   game.BlindRecord{Seat: 2, Amount: 10},
		HoleCards: []game.DealRecord{
			{Seat: 1, Cards: []string{"Ah", "Kh"}},
			{Seat: 2, Cards: []string{"2c", "7d"}},
		},
		Events: []game.Event{
			{Street: "Preflop", Type: game.EventPostBlind, Seat: 1, Amount: 5, ToTotal: 5},
			{Street: "Preflop", Type: game.EventPostBlind, Seat: 2, Amount: 10, ToTotal: 10},
			{Street: "Preflop", Type: game.EventAction, Seat: 1, Action: "Fold"},
		},
		Board: []string{},
		Pots: []game.PotRecord{
			{Amount: 10, Eligible: []int{2}, Winners: []int{2}, Shares: map[int]int{2: 10}},
		},
		Returned: []game.ReturnRecord{{Seat: 2, Amount: 5}},
		Results: []game.SeatResult{
			{Seat: 1, Delta: -5, Stack: 995},
			{Seat: 2, Delta: 5, Stack: 1005},
		},
	}
}

func TestWriteAndReadBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWriter(dir, log.New(os.Stderr))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	rec := sampleRecord()
	if err := w.Write(rec); err != nil {
		t.Fatalf("Write: %v", err)
	}

	path := filepath.Join(dir, "game_log_3.json")
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestWriteDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWriter(dir, log.New(os.Stderr))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.Write(sampleRecord()); err != nil {
		t.Fatalf("first write: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, Filename(3)))
	if err != nil {
		t.Fatalf("read first: %v", err)
	}

	if err := w.Write(sampleRecord()); err != nil {
		t.Fatalf("second write: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, Filename(3)))
	if err != nil {
		t.Fatalf("read second: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("identical records produced different bytes")
	}
}

func TestNewWriterCreatesDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out", "hands")
	if _, err := NewWriter(dir, log.New(os.Stderr)); err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output dir missing: %v", err)
	}
}

func TestFilename(t *testing.T) {
	t.Parallel()

	if got := Filename(0); got != "game_log_0.json" {
		t.Errorf("Filename(0) = %q", got)
	}
	if got := Filename(41); got != "game_log_41.json" {
		t.Errorf("Filename(41) = %q", got)
	}
}
