package wal

import (
	"io"
	"os"
	"testing"
)

func TestCompactSegmentRoundTrip(t *testing.T) {
	src := "test_compact_src.log"
	archived := "test_compact_archived.zst"
	restored := "test_compact_restored.log"
	defer os.Remove(src)
	defer os.Remove(archived)
	defer os.Remove(restored)

	w, err := NewWALWriter(src, Options{SyncPolicy: SyncEveryWrite})
	if err != nil {
		t.Fatalf("NewWALWriter failed: %v", err)
	}
	for i, payload := range [][]byte{[]byte("one"), []byte("two"), []byte("three")} {
		e := AcquireEntry()
		e.Header.TxnID = uint64(i + 1)
		e.Header.PayloadLen = uint64(len(payload))
		e.Payload = append(e.Payload, payload...)
		if err := w.WriteEntry(e); err != nil {
			t.Fatalf("WriteEntry failed: %v", err)
		}
		ReleaseEntry(e)
	}
	w.Close()

	n, err := CompactSegment(src, archived)
	if err != nil {
		t.Fatalf("CompactSegment failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 records compacted, got %d", n)
	}

	if err := DecompactSegment(archived, restored); err != nil {
		t.Fatalf("DecompactSegment failed: %v", err)
	}

	r, err := NewWALReader(restored)
	if err != nil {
		t.Fatalf("NewWALReader on restored failed: %v", err)
	}
	defer r.Close()

	var got [][]byte
	for {
		e, err := r.ReadEntry()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadEntry failed: %v", err)
		}
		payloadCopy := append([]byte(nil), e.Payload...)
		got = append(got, payloadCopy)
		ReleaseEntry(e)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 restored records, got %d", len(got))
	}
	want := []string{"one", "two", "three"}
	for i, w := range want {
		if string(got[i]) != w {
			t.Errorf("record %d = %q, want %q", i, got[i], w)
		}
	}
}
