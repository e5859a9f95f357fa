// Package rowstore is the segmented, append-only store of row versions
// backing the catalog: each row version is tagged with the transaction
// that created it and, once superseded, the transaction that deleted it.
package rowstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	segmentMagic          = 0x524f5753 // "ROWS"
	segmentVersion        = 1
	headerSize            = 14 // Magic(4) + Version(2) + NextOffset(8)
	entryHeaderSize       = 29 // Length(4) + Valid(1) + CreatedByTxn(8) + DeletedByTxn(8) + PrevOffset(8)
	defaultMaxSegmentSize = 64 * 1024 * 1024
)

// VersionHeader precedes every row version on disk.
type VersionHeader struct {
	Valid        bool
	CreatedByTxn uint64
	DeletedByTxn uint64 // meaningful only when Valid is false
	PrevOffset   int64  // previous version in the chain, -1 if none
}

type segment struct {
	id          int
	path        string
	startOffset int64
	size        int64
	file        *os.File
}

// Store manages row-version storage split across size-bounded segments.
type Store struct {
	basePath       string
	segments       []*segment
	activeSegment  *segment
	nextOffset     int64
	maxSegmentSize int64
	mu             sync.RWMutex
}

// Open opens or creates a row store rooted at path (a file path prefix;
// actual files are named "{path}_NNN.data").
func Open(path string) (*Store, error) {
	s := &Store{
		basePath:       path,
		segments:       make([]*segment, 0),
		maxSegmentSize: defaultMaxSegmentSize,
	}

	var globalOffset int64
	id := 1
	for {
		segPath := fmt.Sprintf("%s_%03d.data", path, id)
		file, err := os.OpenFile(segPath, os.O_RDWR, 0666)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("opening segment %s: %w", segPath, err)
		}

		info, err := file.Stat()
		if err != nil {
			file.Close()
			return nil, err
		}

		seg := &segment{id: id, path: segPath, startOffset: globalOffset, size: info.Size(), file: file}
		s.segments = append(s.segments, seg)
		globalOffset += info.Size()
		id++
	}

	if len(s.segments) == 0 {
		if err := s.createSegment(1, 0); err != nil {
			return nil, err
		}
		return s, nil
	}

	s.activeSegment = s.segments[len(s.segments)-1]
	if err := s.loadActiveSegmentState(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) createSegment(id int, startOffset int64) error {
	segPath := fmt.Sprintf("%s_%03d.data", s.basePath, id)
	file, err := os.OpenFile(segPath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return fmt.Errorf("creating segment %s: %w", segPath, err)
	}

	seg := &segment{id: id, path: segPath, startOffset: startOffset, file: file}
	s.segments = append(s.segments, seg)
	s.activeSegment = seg

	if err := s.writeHeader(seg); err != nil {
		return err
	}
	seg.size = int64(headerSize)
	s.nextOffset = startOffset + int64(headerSize)
	return nil
}

func (s *Store) writeHeader(seg *segment) error {
	if _, err := seg.file.Seek(0, 0); err != nil {
		return err
	}
	if err := binary.Write(seg.file, binary.LittleEndian, uint32(segmentMagic)); err != nil {
		return err
	}
	if err := binary.Write(seg.file, binary.LittleEndian, uint16(segmentVersion)); err != nil {
		return err
	}
	if err := binary.Write(seg.file, binary.LittleEndian, int64(headerSize)); err != nil {
		return err
	}
	return seg.file.Sync()
}

func (s *Store) loadActiveSegmentState() error {
	if _, err := s.activeSegment.file.Seek(0, 0); err != nil {
		return err
	}

	var magic uint32
	if err := binary.Read(s.activeSegment.file, binary.LittleEndian, &magic); err != nil {
		return err
	}
	if magic != segmentMagic {
		return fmt.Errorf("invalid segment magic in segment %d", s.activeSegment.id)
	}

	var version uint16
	if err := binary.Read(s.activeSegment.file, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != segmentVersion {
		return fmt.Errorf("unsupported segment version: %d", version)
	}

	var localNextOffset int64
	if err := binary.Read(s.activeSegment.file, binary.LittleEndian, &localNextOffset); err != nil {
		return err
	}
	s.nextOffset = s.activeSegment.startOffset + localNextOffset

	stat, _ := s.activeSegment.file.Stat()
	if stat.Size() > localNextOffset {
		// A write landed on disk but the header update didn't — trust the
		// file size and repair the header.
		s.nextOffset = s.activeSegment.startOffset + stat.Size()
		_ = s.updateNextOffset()
	}
	return nil
}

func (s *Store) updateNextOffset() error {
	seg := s.activeSegment
	if _, err := seg.file.Seek(6, 0); err != nil {
		return err
	}
	localOffset := s.nextOffset - seg.startOffset
	return binary.Write(seg.file, binary.LittleEndian, localOffset)
}

// Append writes a new row version and returns its global offset.
func (s *Store) Append(row []byte, createdByTxn uint64, prevOffset int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	neededSize := int64(entryHeaderSize + len(row))
	currentLocalOffset := s.nextOffset - s.activeSegment.startOffset

	if currentLocalOffset+neededSize > s.maxSegmentSize {
		newID := s.activeSegment.id + 1
		if err := s.createSegment(newID, s.nextOffset); err != nil {
			return 0, fmt.Errorf("rotating segment: %w", err)
		}
	}

	offset := s.nextOffset
	seg := s.activeSegment
	localOffset := offset - seg.startOffset

	if _, err := seg.file.Seek(localOffset, 0); err != nil {
		return 0, err
	}

	rowLen := uint32(len(row))
	if err := binary.Write(seg.file, binary.LittleEndian, rowLen); err != nil {
		return 0, err
	}
	if err := binary.Write(seg.file, binary.LittleEndian, uint8(1)); err != nil {
		return 0, err
	}
	if err := binary.Write(seg.file, binary.LittleEndian, createdByTxn); err != nil {
		return 0, err
	}
	if err := binary.Write(seg.file, binary.LittleEndian, uint64(0)); err != nil {
		return 0, err
	}
	if err := binary.Write(seg.file, binary.LittleEndian, prevOffset); err != nil {
		return 0, err
	}
	if _, err := seg.file.Write(row); err != nil {
		return 0, err
	}

	s.nextOffset += int64(entryHeaderSize + int(rowLen))
	seg.size = s.nextOffset - seg.startOffset

	if err := s.updateNextOffset(); err != nil {
		return 0, err
	}
	return offset, nil
}

func (s *Store) segmentForOffset(offset int64) (*segment, error) {
	for _, seg := range s.segments {
		if offset >= seg.startOffset && offset < seg.startOffset+seg.size {
			return seg, nil
		}
	}
	if offset < s.nextOffset && offset >= s.activeSegment.startOffset {
		return s.activeSegment, nil
	}
	return nil, fmt.Errorf("segment not found for offset %d", offset)
}

// Read retrieves a row version and its header from the given offset.
func (s *Store) Read(offset int64) ([]byte, *VersionHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seg, err := s.segmentForOffset(offset)
	if err != nil {
		return nil, nil, err
	}

	localOffset := offset - seg.startOffset
	if _, err := seg.file.Seek(localOffset, 0); err != nil {
		return nil, nil, err
	}

	var rowLen uint32
	if err := binary.Read(seg.file, binary.LittleEndian, &rowLen); err != nil {
		return nil, nil, err
	}
	var valid uint8
	if err := binary.Read(seg.file, binary.LittleEndian, &valid); err != nil {
		return nil, nil, err
	}
	var createdByTxn uint64
	if err := binary.Read(seg.file, binary.LittleEndian, &createdByTxn); err != nil {
		return nil, nil, err
	}
	var deletedByTxn uint64
	if err := binary.Read(seg.file, binary.LittleEndian, &deletedByTxn); err != nil {
		return nil, nil, err
	}
	var prevOffset int64
	if err := binary.Read(seg.file, binary.LittleEndian, &prevOffset); err != nil {
		return nil, nil, err
	}

	header := &VersionHeader{
		Valid:        valid == 1,
		CreatedByTxn: createdByTxn,
		DeletedByTxn: deletedByTxn,
		PrevOffset:   prevOffset,
	}

	row := make([]byte, rowLen)
	if _, err := io.ReadFull(seg.file, row); err != nil {
		return nil, nil, err
	}
	return row, header, nil
}

// MarkDeleted tags the row version at offset as superseded by deletedByTxn.
func (s *Store) MarkDeleted(offset int64, deletedByTxn uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, err := s.segmentForOffset(offset)
	if err != nil {
		return err
	}

	localOffset := offset - seg.startOffset
	validOffset := localOffset + 4
	deletedByTxnOffset := localOffset + 4 + 1 + 8

	if _, err := seg.file.Seek(validOffset, 0); err != nil {
		return err
	}
	if err := binary.Write(seg.file, binary.LittleEndian, uint8(0)); err != nil {
		return err
	}

	if _, err := seg.file.Seek(deletedByTxnOffset, 0); err != nil {
		return err
	}
	return binary.Write(seg.file, binary.LittleEndian, deletedByTxn)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, seg := range s.segments {
		if seg.file != nil {
			if err := seg.file.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Store) Path() string { return s.basePath }
