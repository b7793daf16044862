package snapshotstore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"

	"clobcore/internal/orderbook"
)

const keyPrefix = "snapshot/"

// Store is a durable, sequence-keyed history of book snapshots. Every
// Put call durably persists one more entry; nothing is ever deleted
// automatically, since recovery only ever needs the latest one and old
// entries are cheap to keep for forensics. Operators wanting retention
// limits prune with Prune.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) the pebble database at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false,
	})
	if err != nil {
		return nil, errors.Wrap(err, "snapshotstore: open")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "snapshotstore: close")
}

// Put durably writes the live order set as of seq, syncing before it
// returns: a snapshot that did not reach disk must never be reported as
// present.
func (s *Store) Put(seq orderbook.Sequence, orders []orderbook.OrderSnapshot) error {
	key := keyFor(seq)
	val := encodeSnapshot(orders)
	return errors.Wrap(s.db.Set(key, val, pebble.Sync), "snapshotstore: put")
}

// Latest returns the highest-sequence snapshot stored, and ok=false if
// the store is empty (a brand-new engine with no snapshots yet).
func (s *Store) Latest() (seq orderbook.Sequence, orders []orderbook.OrderSnapshot, ok bool, err error) {
	iter, iterErr := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if iterErr != nil {
		return 0, nil, false, errors.Wrap(iterErr, "snapshotstore: new iter")
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, nil, false, nil
	}
	seq, err = parseKey(iter.Key())
	if err != nil {
		return 0, nil, false, errors.Wrap(err, "snapshotstore: parse key")
	}
	orders, err = decodeSnapshot(iter.Value())
	if err != nil {
		return 0, nil, false, errors.Wrap(err, "snapshotstore: decode")
	}
	return seq, orders, true, nil
}

// Prune removes every snapshot strictly older than keepFrom; snapshots at
// keepFrom or later are kept. A keepFrom above the latest snapshot's
// sequence removes every snapshot, including the one recovery would use.
func (s *Store) Prune(keepFrom orderbook.Sequence) error {
	return errors.Wrap(
		s.db.DeleteRange([]byte(keyPrefix), keyFor(keepFrom), pebble.Sync),
		"snapshotstore: prune",
	)
}

func keyFor(seq orderbook.Sequence) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, uint64(seq)))
}

func parseKey(k []byte) (orderbook.Sequence, error) {
	var n uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(k, []byte(keyPrefix))), "%d", &n)
	return orderbook.Sequence(n), err
}

const orderEncodedLen = 8 + 8 + 1 + 8 + 8 + 8 + 8 // 49 bytes

func encodeSnapshot(orders []orderbook.OrderSnapshot) []byte {
	buf := make([]byte, 4+len(orders)*orderEncodedLen)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(orders)))
	off := 4
	for _, o := range orders {
		binary.LittleEndian.PutUint64(buf[off:], uint64(o.OrderID))
		binary.LittleEndian.PutUint64(buf[off+8:], uint64(o.UserID))
		buf[off+16] = byte(o.Side)
		binary.LittleEndian.PutUint64(buf[off+17:], uint64(o.Price))
		binary.LittleEndian.PutUint64(buf[off+25:], uint64(o.Remaining))
		binary.LittleEndian.PutUint64(buf[off+33:], uint64(o.Original))
		binary.LittleEndian.PutUint64(buf[off+41:], uint64(o.Arrival))
		off += orderEncodedLen
	}
	return buf
}

func decodeSnapshot(val []byte) ([]orderbook.OrderSnapshot, error) {
	if len(val) < 4 {
		return nil, errors.New("snapshotstore: truncated snapshot header")
	}
	count := binary.LittleEndian.Uint32(val[:4])
	want := 4 + int(count)*orderEncodedLen
	if len(val) != want {
		return nil, errors.New("snapshotstore: truncated snapshot body")
	}

	orders := make([]orderbook.OrderSnapshot, count)
	off := 4
	for i := range orders {
		o := &orders[i]
		o.OrderID = orderbook.OrderID(binary.LittleEndian.Uint64(val[off:]))
		o.UserID = orderbook.UserID(binary.LittleEndian.Uint64(val[off+8:]))
		o.Side = orderbook.Side(val[off+16])
		o.Price = orderbook.Price(binary.LittleEndian.Uint64(val[off+17:]))
		o.Remaining = orderbook.Quantity(binary.LittleEndian.Uint64(val[off+25:]))
		o.Original = orderbook.Quantity(binary.LittleEndian.Uint64(val[off+33:]))
		o.Arrival = orderbook.Sequence(binary.LittleEndian.Uint64(val[off+41:]))
		off += orderEncodedLen
	}
	return orders, nil
}
