package rowstore

import (
	"encoding/binary"
	"io"
	"os"
)

// Iterator walks every row version across all segments in append order,
// independent of any version chain.
type Iterator struct {
	store       *Store
	segmentIdx  int
	currentFile *os.File
	currentPos  int64
}

func (s *Store) NewIterator() (*Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.segments) == 0 {
		return nil, io.EOF
	}

	seg := s.segments[0]
	f, err := os.Open(seg.path)
	if err != nil {
		return nil, err
	}

	return &Iterator{
		store:       s,
		segmentIdx:  0,
		currentFile: f,
		currentPos:  headerSize,
	}, nil
}

// Next returns the next row version, its header, and its global offset.
// Returns io.EOF once every segment is exhausted.
func (it *Iterator) Next() ([]byte, *VersionHeader, int64, error) {
	for {
		it.store.mu.RLock()
		if it.segmentIdx >= len(it.store.segments) {
			it.store.mu.RUnlock()
			return nil, nil, 0, io.EOF
		}
		seg := it.store.segments[it.segmentIdx]
		startOffset := seg.startOffset
		it.store.mu.RUnlock()

		globalOffset := startOffset + it.currentPos

		if _, err := it.currentFile.Seek(it.currentPos, 0); err != nil {
			return nil, nil, 0, err
		}

		headerBuf := make([]byte, entryHeaderSize)
		if _, err := io.ReadFull(it.currentFile, headerBuf); err != nil {
			if err == io.EOF {
				if err := it.nextSegment(); err != nil {
					return nil, nil, 0, err
				}
				continue
			}
			return nil, nil, 0, err
		}

		rowLen := binary.LittleEndian.Uint32(headerBuf[0:4])
		valid := headerBuf[4]
		createdByTxn := binary.LittleEndian.Uint64(headerBuf[5:13])
		deletedByTxn := binary.LittleEndian.Uint64(headerBuf[13:21])
		prevOffset := int64(binary.LittleEndian.Uint64(headerBuf[21:29]))

		row := make([]byte, rowLen)
		if _, err := io.ReadFull(it.currentFile, row); err != nil {
			return nil, nil, 0, err
		}

		it.currentPos += int64(entryHeaderSize + int(rowLen))

		header := &VersionHeader{
			Valid:        valid == 1,
			CreatedByTxn: createdByTxn,
			DeletedByTxn: deletedByTxn,
			PrevOffset:   prevOffset,
		}
		return row, header, globalOffset, nil
	}
}

func (it *Iterator) nextSegment() error {
	it.currentFile.Close()
	it.segmentIdx++

	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if it.segmentIdx >= len(it.store.segments) {
		return io.EOF
	}

	seg := it.store.segments[it.segmentIdx]
	f, err := os.Open(seg.path)
	if err != nil {
		return err
	}
	it.currentFile = f
	it.currentPos = headerSize
	return nil
}

func (it *Iterator) Close() {
	if it.currentFile != nil {
		it.currentFile.Close()
	}
}
