package feed

import (
	"encoding/binary"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"marketfeed/internal/clock"
)

// Decoder is a sequential, zero-copy reader over a memory-mapped feed
// file. It is single-threaded and not safe for concurrent use: callers
// must pass a *Decoder, never copy the struct by value, and must not
// touch it after Close.
type Decoder struct {
	data []byte
	pos  int

	once sync.Once
	file *os.File
}

// NewDecoder opens path, memory-maps it read-only for its entire
// length, and returns a Decoder positioned at the start of the file.
func NewDecoder(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newInputError("open", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, newInputError("stat", path, err)
	}
	size := st.Size()
	if size == 0 {
		f.Close()
		return nil, newInputError("map", path, errEmptyInput)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, newInputError("mmap", path, err)
	}

	return &Decoder{data: data, file: f}, nil
}

// errEmptyInput is a sentinel wrapped into InputError when the feed
// file exists but has zero length.
var errEmptyInput = errEmpty{}

type errEmpty struct{}

func (errEmpty) Error() string { return "empty feed file" }

// Size returns the total number of mapped bytes.
func (d *Decoder) Size() int { return len(d.data) }

// Position returns the current cursor offset.
func (d *Decoder) Position() int { return d.pos }

// HasNext reports whether the cursor has unread bytes remaining.
func (d *Decoder) HasNext() bool { return d.pos < len(d.data) }

// Reset rewinds the cursor to the start of the mapping, making a fresh
// decode pass byte-for-byte identical to the first (P2).
func (d *Decoder) Reset() { d.pos = 0 }

// recordLen returns the fixed length for a known tag byte, or 0 for an
// unrecognized tag.
func recordLen(tag byte) int {
	switch tag {
	case tagAdd:
		return lenAdd
	case tagModify:
		return lenModify
	case tagExec:
		return lenExec
	case tagDelete:
		return lenDelete
	default:
		return 0
	}
}

// Next decodes and returns the next event. It never errors: framing
// and validation failures both surface as a KindInvalid event, and the
// caller decides whether to treat that as a skip or as fatal.
func (d *Decoder) Next() Event {
	if d.pos >= len(d.data) {
		return Event{Kind: KindInvalid}
	}

	tag := d.data[d.pos]
	n := recordLen(tag)
	if n == 0 {
		// Unknown tag: resync by skipping exactly one byte.
		d.pos++
		return Event{Kind: KindInvalid}
	}
	if d.pos+n > len(d.data) {
		// Truncated trailing record: do not advance past end.
		return Event{Kind: KindInvalid}
	}

	rec := d.data[d.pos : d.pos+n]
	ts := clock.NowUs()

	switch tag {
	case tagAdd:
		side := Side(rec[23])
		qty := binary.LittleEndian.Uint32(rec[32:36])
		if (side != Buy && side != Sell) || qty == 0 {
			return Event{Kind: KindInvalid}
		}
		var sym Symbol
		copy(sym[:], rec[17:23])
		ev := Event{
			Kind: KindAddOrder,
			Add: AddOrder{
				TsUs:    binary.LittleEndian.Uint64(rec[1:9]),
				OrderID: binary.LittleEndian.Uint64(rec[9:17]),
				Symbol:  sym,
				Side:    side,
				PxNano:  int64(binary.LittleEndian.Uint64(rec[24:32])),
				Qty:     qty,
			},
			DecodeTimestampUs: ts,
		}
		d.pos += n
		return ev

	case tagModify:
		newQty := binary.LittleEndian.Uint32(rec[25:29])
		if newQty == 0 {
			return Event{Kind: KindInvalid}
		}
		ev := Event{
			Kind: KindModifyOrder,
			Modify: ModifyOrder{
				TsUs:      binary.LittleEndian.Uint64(rec[1:9]),
				OrderID:   binary.LittleEndian.Uint64(rec[9:17]),
				NewPxNano: int64(binary.LittleEndian.Uint64(rec[17:25])),
				NewQty:    newQty,
			},
			DecodeTimestampUs: ts,
		}
		d.pos += n
		return ev

	case tagExec:
		execQty := binary.LittleEndian.Uint32(rec[17:21])
		if execQty == 0 {
			return Event{Kind: KindInvalid}
		}
		ev := Event{
			Kind: KindExecuteOrder,
			Execute: ExecuteOrder{
				TsUs:    binary.LittleEndian.Uint64(rec[1:9]),
				OrderID: binary.LittleEndian.Uint64(rec[9:17]),
				ExecQty: execQty,
			},
			DecodeTimestampUs: ts,
		}
		d.pos += n
		return ev

	case tagDelete:
		ev := Event{
			Kind: KindDeleteOrder,
			Delete: DeleteOrder{
				TsUs:    binary.LittleEndian.Uint64(rec[1:9]),
				OrderID: binary.LittleEndian.Uint64(rec[9:17]),
			},
			DecodeTimestampUs: ts,
		}
		d.pos += n
		return ev
	}

	// Unreachable: recordLen already filtered to known tags.
	d.pos++
	return Event{Kind: KindInvalid}
}

// Close releases the memory mapping and the underlying file handle.
// Safe to call more than once.
func (d *Decoder) Close() error {
	var err error
	d.once.Do(func() {
		if d.data != nil {
			err = unix.Munmap(d.data)
			d.data = nil
		}
		if cerr := d.file.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
