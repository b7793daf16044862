package walcore

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// FsyncMode controls whether Append fsyncs after every write. Always is
// the default and is required to guarantee an acknowledged command
// survives a crash; Never exists for throughput-sensitive testing and is
// never the default.
type FsyncMode uint8

const (
	FsyncAlways FsyncMode = iota
	FsyncNever
)

const lengthPrefixSize = 4

// Writer is the durable append target for accepted commands. It never
// rewrites or truncates during normal operation — truncation only
// happens once, at startup, via Replay repairing a torn tail left by a
// prior crash.
//
// Grounded on wal.go's WAL/NewWAL — this repo drops that draft's segment
// rotation (SegmentSize/SegmentDuration/segment index), since this engine
// is configured with exactly one wal_path and no rotation concept, and
// keeps its Append-then-Sync discipline. Open takes the path and fsync
// mode directly rather than a config struct with defaults.
type Writer struct {
	file *os.File
	mode FsyncMode
}

// Open opens (creating if absent) the WAL file at path for appending.
// Callers must run Replay against the same path before constructing a
// Writer, so that any torn tail from a previous crash is repaired first.
func Open(path string, mode FsyncMode) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "walcore: open")
	}
	return &Writer{file: f, mode: mode}, nil
}

// Append serializes (seq, cmd) into one frame, writes it, and — unless
// configured otherwise — fsyncs before returning. A returned error is
// fatal to the processor: it can no longer guarantee anything it accepts
// from here on is durable.
func (w *Writer) Append(seq uint64, cmd Command) error {
	payload := EncodeRecord(seq, cmd)
	frame := make([]byte, lengthPrefixSize+len(payload))
	binary.LittleEndian.PutUint32(frame[:lengthPrefixSize], uint32(len(payload)))
	copy(frame[lengthPrefixSize:], payload)

	if _, err := w.file.Write(frame); err != nil {
		return errors.Wrap(err, "walcore: append write")
	}
	if w.mode == FsyncAlways {
		if err := w.file.Sync(); err != nil {
			return errors.Wrap(err, "walcore: append fsync")
		}
	}
	return nil
}

func (w *Writer) Close() error {
	return w.file.Close()
}

// ReplayResult summarizes one Replay pass, for the recovery component and
// its logging.
type ReplayResult struct {
	LastSequence   uint64
	RecordCount    int
	TruncatedBytes int64 // > 0 if a torn tail was found and removed
}

// Replay streams every intact record at path in order, calling apply for
// each, then reports the highest sequence seen. A short read, a length
// header that overflows the remaining file size, or a CRC mismatch are
// all treated as a torn tail: the file is truncated to the last known
// good record boundary and replay stops there. A missing file is not an
// error — it means an empty book at sequence 0.
//
// Grounded on reader.go's Next()/Record() loop for the read-one-frame
// shape and infra/wal/entry/replay.go for the "stream records, track the
// max sequence, stop cleanly at the first bad boundary" control flow.
func Replay(path string, apply func(Record)) (ReplayResult, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return ReplayResult{}, nil
	}
	if err != nil {
		return ReplayResult{}, errors.Wrap(err, "walcore: replay open")
	}
	defer f.Close()

	var result ReplayResult
	var goodOffset int64
	var lastSeq uint64
	haveLastSeq := false

	lenBuf := make([]byte, lengthPrefixSize)
	for {
		if _, err := io.ReadFull(f, lenBuf); err != nil {
			break // clean EOF or short read at the very start of a frame
		}
		length := binary.LittleEndian.Uint32(lenBuf)

		payload := make([]byte, length)
		if _, err := io.ReadFull(f, payload); err != nil {
			break // torn tail mid-payload
		}

		rec, err := DecodeRecord(payload)
		if err != nil {
			break // CRC mismatch or malformed payload
		}
		if haveLastSeq && rec.Sequence <= lastSeq {
			break // sequences must be strictly increasing; anything else is corruption
		}

		apply(rec)
		lastSeq = rec.Sequence
		haveLastSeq = true
		result.RecordCount++
		goodOffset += int64(lengthPrefixSize) + int64(length)
	}

	if info, statErr := f.Stat(); statErr == nil && info.Size() > goodOffset {
		result.TruncatedBytes = info.Size() - goodOffset
		if err := os.Truncate(path, goodOffset); err != nil {
			return result, errors.Wrap(err, "walcore: truncate torn tail")
		}
	}

	result.LastSequence = lastSeq
	return result, nil
}
