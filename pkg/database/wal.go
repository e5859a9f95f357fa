package database

import (
	"io"

	ierrors "github.com/fowlerlee/geeqodb/pkg/errors"
	"github.com/fowlerlee/geeqodb/pkg/wal"
)

// walHandle wraps a wal.WALWriter with the façade's in-memory current
// position: on every successful append it advances by 16 + len(payload),
// the fixed frame header size plus the payload itself.
type walHandle struct {
	writer   *wal.WALWriter
	position int64
}

func openWAL(path string) (*walHandle, error) {
	opts := wal.DefaultOptions()
	opts.SyncPolicy = wal.SyncEveryWrite
	w, err := wal.NewWALWriter(path, opts)
	if err != nil {
		return nil, &ierrors.OpenFailedError{Path: path, Reason: err.Error()}
	}
	return &walHandle{writer: w}, nil
}

func (h *walHandle) close() error {
	if err := h.writer.Close(); err != nil {
		return &ierrors.WriteFailedError{Reason: err.Error()}
	}
	return nil
}

// appendWAL frames (txnID, payload) with the wire-level record shape, writes
// it, and advances the in-memory position on success.
func (db *Database) appendWAL(txnID uint64, payload string) error {
	entry := wal.AcquireEntry()
	defer wal.ReleaseEntry(entry)

	entry.Header.TxnID = txnID
	body := []byte(payload)
	entry.Header.PayloadLen = uint64(len(body))
	entry.Payload = append(entry.Payload[:0], body...)

	if err := db.wal.writer.WriteEntry(entry); err != nil {
		return &ierrors.WriteFailedError{Reason: err.Error()}
	}
	db.wal.position += int64(wal.HeaderSize) + int64(len(body))
	db.metrs.WALBytesTotal.Add(float64(wal.HeaderSize) + float64(len(body)))
	return nil
}

// walReplayReader reads WAL records sequentially for recovery, reusing
// pkg/wal's truncated-trailing-record tolerance.
type walReplayReader struct {
	r *wal.WALReader
}

func newWALReplayReader(path string) (*walReplayReader, error) {
	r, err := wal.NewWALReader(path)
	if err != nil {
		return nil, err
	}
	return &walReplayReader{r: r}, nil
}

// next decodes the next record's payload as a string, or returns io.EOF
// once the log is exhausted (including at a truncated trailing record).
func (r *walReplayReader) next() (string, error) {
	entry, err := r.r.ReadEntry()
	if err != nil {
		if err == io.EOF {
			return "", io.EOF
		}
		return "", err
	}
	payload := string(entry.Payload)
	wal.ReleaseEntry(entry)
	return payload, nil
}

func (r *walReplayReader) Close() error {
	return r.r.Close()
}
