package wal

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrInvalidPayloadLen = errors.New("invalid or excessive payload length")
)

// WALReader reads WAL records sequentially.
type WALReader struct {
	file   *os.File
	offset int64
}

// NewWALReader opens a reader over an existing log file.
func NewWALReader(path string) (*WALReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return &WALReader{file: f}, nil
}

// ReadEntry reads the next record. It returns io.EOF once the log is
// exhausted at a clean record boundary. A header or payload truncated by a
// crash mid-write (a partial frame at the tail of the file) is treated the
// same as io.EOF rather than as an error — recovery stops at the last
// complete record.
func (r *WALReader) ReadEntry() (*WALEntry, error) {
	headerBuf := make([]byte, HeaderSize)
	n, err := io.ReadFull(r.file, headerBuf)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err == io.ErrUnexpectedEOF || n < HeaderSize {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading WAL header: %w", err)
	}

	var header WALHeader
	header.Decode(headerBuf)

	if header.PayloadLen > 1024*1024*1024 { // 1GB sanity cap
		return nil, ErrInvalidPayloadLen
	}

	entry := AcquireEntry()
	entry.Header = header

	if uint64(cap(entry.Payload)) < header.PayloadLen {
		entry.Payload = make([]byte, header.PayloadLen)
	} else {
		entry.Payload = entry.Payload[:header.PayloadLen]
	}

	n, err = io.ReadFull(r.file, entry.Payload)
	if err != nil {
		ReleaseEntry(entry)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// Payload truncated mid-write: stop recovery here.
			return nil, io.EOF
		}
		return nil, err
	}

	entry.CRC32 = CalculateCRC32(entry.Payload)

	r.offset += int64(HeaderSize) + int64(n)
	return entry, nil
}

// Close closes the underlying file.
func (r *WALReader) Close() error {
	return r.file.Close()
}
