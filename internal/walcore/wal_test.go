package walcore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAppendAndReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	w, err := Open(path, FsyncAlways)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	cmds := []Command{
		{Kind: CmdPlaceLimit, OrderID: 1001, UserID: 1, Side: 1, Price: 100, Quantity: 5},
		{Kind: CmdPlaceMarket, OrderID: 2001, UserID: 2, Side: 0, Quantity: 10},
		{Kind: CmdCancel, OrderID: 1001, UserID: 1},
	}
	for i, c := range cmds {
		if err := w.Append(uint64(i+1), c); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []Record
	result, err := Replay(path, func(r Record) { got = append(got, r) })
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.RecordCount != len(cmds) {
		t.Fatalf("record count = %d, want %d", result.RecordCount, len(cmds))
	}
	if result.LastSequence != uint64(len(cmds)) {
		t.Fatalf("last sequence = %d, want %d", result.LastSequence, len(cmds))
	}
	if result.TruncatedBytes != 0 {
		t.Errorf("unexpected truncation: %d bytes", result.TruncatedBytes)
	}
	for i, rec := range got {
		if rec.Command != cmds[i] {
			t.Errorf("record %d = %+v, want %+v", i, rec.Command, cmds[i])
		}
	}
}

func TestReplayMissingFileIsEmptyBook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.log")

	called := false
	result, err := Replay(path, func(Record) { called = true })
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if called {
		t.Error("apply should never be called for a missing WAL")
	}
	if result.RecordCount != 0 || result.LastSequence != 0 {
		t.Errorf("result = %+v, want zero value", result)
	}
}

func TestReplayTruncatesTornTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wal.log")

	w, err := Open(path, FsyncAlways)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := w.Append(1, Command{Kind: CmdPlaceLimit, OrderID: 1, UserID: 1, Side: 0, Price: 100, Quantity: 5}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	intactSize, err := fileSize(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	// Simulate a crash mid-write of a second record: append a length
	// prefix that claims more payload bytes than actually follow it.
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := f.Write([]byte{0x2A, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03}); err != nil {
		t.Fatalf("write torn tail: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var replayed int
	result, err := Replay(path, func(Record) { replayed++ })
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed != 1 {
		t.Fatalf("replayed %d records, want 1", replayed)
	}
	if result.TruncatedBytes == 0 {
		t.Error("expected a nonzero truncation")
	}

	finalSize, err := fileSize(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if finalSize != intactSize {
		t.Errorf("file size after truncation = %d, want %d", finalSize, intactSize)
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
