package wal

import (
	"encoding/binary"
	"io"
)

// HeaderSize is the fixed size of a WAL record frame: an 8-byte little
// endian transaction id followed by an 8-byte little endian payload length.
// There is no on-disk magic number, version, or checksum; the reader relies
// on sequential framing and tolerates a truncated trailing record left by a
// crash mid-write.
const HeaderSize = 16

// WALHeader is the in-memory view of a record's frame fields.
type WALHeader struct {
	TxnID      uint64
	PayloadLen uint64
}

// WALEntry is a single record: the frame plus its payload. CRC32 is computed
// over the payload when the entry is read, but is never written to disk — it
// exists only so callers in the same process can detect payload corruption
// introduced between encode and decode (ValidateCRC32).
type WALEntry struct {
	Header  WALHeader
	Payload []byte
	CRC32   uint32
}

func (h *WALHeader) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], h.TxnID)
	binary.LittleEndian.PutUint64(buf[8:16], h.PayloadLen)
}

func (h *WALHeader) Decode(buf []byte) {
	h.TxnID = binary.LittleEndian.Uint64(buf[0:8])
	h.PayloadLen = binary.LittleEndian.Uint64(buf[8:16])
}

// WriteTo writes the frame header followed by the payload and returns the
// number of bytes written.
func (e *WALEntry) WriteTo(w io.Writer) (int64, error) {
	var headerBuf [HeaderSize]byte
	e.Header.Encode(headerBuf[:])

	n, err := w.Write(headerBuf[:])
	if err != nil {
		return int64(n), err
	}

	m, err := w.Write(e.Payload)
	return int64(n + m), err
}
