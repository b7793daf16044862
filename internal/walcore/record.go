package walcore

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
)

// CommandKind tags which of the three transport-agnostic operations a
// Command carries.
type CommandKind uint8

const (
	CmdPlaceLimit CommandKind = iota + 1
	CmdPlaceMarket
	CmdCancel
)

// Command is the fixed-width, on-disk encoding of PlaceLimit, PlaceMarket,
// or Cancel. Price is unused (zero) for PlaceMarket and Cancel; Quantity
// is unused (zero) for Cancel.
type Command struct {
	Kind     CommandKind
	OrderID  uint64
	UserID   uint64
	Side     uint8
	Price    uint64
	Quantity uint64
}

const commandEncodedLen = 1 + 8 + 8 + 1 + 8 + 8 // 34 bytes

// Record is one durable (sequence, command) tuple.
type Record struct {
	Sequence uint64
	Command  Command
}

var errShortPayload = errors.New("walcore: payload shorter than a record")
var errCRCMismatch = errors.New("walcore: crc mismatch")

// EncodeRecord produces the payload bytes for one WAL frame: sequence,
// then the fixed-width command encoding, then a trailing CRC-32 computed
// over both. The caller is responsible for prefixing this with the u32
// length that makes up the outer frame.
//
// Grounded on encode.go's BinarySerializer.Encode, which builds the same
// shape (fixed fields via binary.Write, then a CRC) for its own record
// type; this repo folds the CRC into the payload itself instead of a
// separate outer field so the on-disk frame is a plain
// "[u32 length][payload bytes]" two-field layout.
func EncodeRecord(seq uint64, cmd Command) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(8 + commandEncodedLen + 4)

	binary.Write(buf, binary.LittleEndian, seq)
	buf.WriteByte(byte(cmd.Kind))
	binary.Write(buf, binary.LittleEndian, cmd.OrderID)
	binary.Write(buf, binary.LittleEndian, cmd.UserID)
	buf.WriteByte(cmd.Side)
	binary.Write(buf, binary.LittleEndian, cmd.Price)
	binary.Write(buf, binary.LittleEndian, cmd.Quantity)

	crc := crc32.ChecksumIEEE(buf.Bytes())
	binary.Write(buf, binary.LittleEndian, crc)
	return buf.Bytes()
}

// DecodeRecord is the inverse of EncodeRecord. It verifies the trailing
// CRC before trusting any field, so a torn or bit-flipped write is
// reported rather than silently misread.
func DecodeRecord(payload []byte) (Record, error) {
	if len(payload) != 8+commandEncodedLen+4 {
		return Record{}, errShortPayload
	}
	body, crcBytes := payload[:len(payload)-4], payload[len(payload)-4:]
	want := binary.LittleEndian.Uint32(crcBytes)
	got := crc32.ChecksumIEEE(body)
	if got != want {
		return Record{}, errCRCMismatch
	}

	r := Record{Sequence: binary.LittleEndian.Uint64(body[0:8])}
	body = body[8:]
	r.Command.Kind = CommandKind(body[0])
	r.Command.OrderID = binary.LittleEndian.Uint64(body[1:9])
	r.Command.UserID = binary.LittleEndian.Uint64(body[9:17])
	r.Command.Side = body[17]
	r.Command.Price = binary.LittleEndian.Uint64(body[18:26])
	r.Command.Quantity = binary.LittleEndian.Uint64(body[26:34])
	return r, nil
}
