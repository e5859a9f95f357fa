package wal

import (
	"io"
	"os"

	"github.com/DataDog/zstd"
)

// CompactSegment reads every still-valid record from src (stopping at the
// first truncated trailing record, same tolerance as WALReader.ReadEntry)
// and writes a zstd-compressed copy to dst, trading read-back speed for
// on-disk size. The WAL writer keeps a single file and never rotates, and
// nothing else in the engine calls this function.
func CompactSegment(srcPath, dstPath string) (int, error) {
	r, err := NewWALReader(srcPath)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	out, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	zw := zstd.NewWriter(out)
	defer zw.Close()

	count := 0
	for {
		entry, err := r.ReadEntry()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}

		if _, err := entry.WriteTo(zw); err != nil {
			ReleaseEntry(entry)
			return count, err
		}
		ReleaseEntry(entry)
		count++
	}

	return count, nil
}

// DecompactSegment reverses CompactSegment, expanding a zstd-compressed
// archive back into a plain sequence of framed records that WALReader can
// scan directly.
func DecompactSegment(srcPath, dstPath string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	zr := zstd.NewReader(in)
	defer zr.Close()

	out, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, zr)
	return err
}
