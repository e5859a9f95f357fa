package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fowlerlee/geeqodb/pkg/types"
)

// Checkpoint constants mirror a simple magic/version/header scheme: a fixed
// header followed by a flat (key, rowID) entry list, since an Index here is
// always a signed-integer key to row id mapping with no node-tree shape to
// preserve across a dump/reload.
const (
	checkpointMagic   uint32 = 0x43484b50 // "CHKP"
	checkpointVersion uint8  = 1
)

type checkpointHeader struct {
	Magic      uint32
	Version    uint8
	Kind       uint8
	Unique     bool
	LastLSN    uint64
	NumEntries uint64
}

// CheckpointManager durably snapshots an Index's entries to a basePath
// directory, one file per (table, index, LSN), keeping only the most
// recent snapshot per (table, index) pair.
type CheckpointManager struct {
	basePath string
	mu       sync.Mutex
}

// NewCheckpointManager returns a manager rooted at basePath, which must
// already exist.
func NewCheckpointManager(basePath string) *CheckpointManager {
	return &CheckpointManager{basePath: basePath}
}

func (cm *CheckpointManager) fileName(table, indexName string, lsn uint64) string {
	return fmt.Sprintf("checkpoint_%s_%s_%d.chk", table, indexName, lsn)
}

// CreateCheckpoint serializes idx's full entry set to an atomically-renamed
// file tagged with lsn, then removes older checkpoints for this (table,
// index) pair.
func (cm *CheckpointManager) CreateCheckpoint(table, indexName string, idx Index, lsn uint64) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, err := serializeIndex(idx, lsn)
	if err != nil {
		return fmt.Errorf("serializing index checkpoint: %w", err)
	}

	path := filepath.Join(cm.basePath, cm.fileName(table, indexName, lsn))
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp checkpoint file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming checkpoint file: %w", err)
	}
	return cm.cleanOldCheckpoints(table, indexName, lsn)
}

func (cm *CheckpointManager) cleanOldCheckpoints(table, indexName string, keepLSN uint64) error {
	files, err := os.ReadDir(cm.basePath)
	if err != nil {
		return err
	}
	prefix := fmt.Sprintf("checkpoint_%s_%s_", table, indexName)
	for _, f := range files {
		if !strings.HasPrefix(f.Name(), prefix) || !strings.HasSuffix(f.Name(), ".chk") {
			continue
		}
		lsnStr := strings.TrimSuffix(strings.TrimPrefix(f.Name(), prefix), ".chk")
		lsn, err := strconv.ParseUint(lsnStr, 10, 64)
		if err == nil && lsn < keepLSN {
			os.Remove(filepath.Join(cm.basePath, f.Name()))
		}
	}
	return nil
}

// LoadLatestCheckpoint rebuilds an Index from the newest checkpoint file on
// disk for (table, indexName), returning the LSN it was taken at. Returns
// os.ErrNotExist if no checkpoint exists.
func (cm *CheckpointManager) LoadLatestCheckpoint(table, indexName string) (Index, uint64, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	files, err := os.ReadDir(cm.basePath)
	if err != nil {
		return nil, 0, err
	}

	prefix := fmt.Sprintf("checkpoint_%s_%s_", table, indexName)
	var maxLSN uint64
	var latestFile string
	found := false
	for _, f := range files {
		if !strings.HasPrefix(f.Name(), prefix) || !strings.HasSuffix(f.Name(), ".chk") {
			continue
		}
		lsnStr := strings.TrimSuffix(strings.TrimPrefix(f.Name(), prefix), ".chk")
		lsn, err := strconv.ParseUint(lsnStr, 10, 64)
		if err == nil && (!found || lsn >= maxLSN) {
			maxLSN = lsn
			latestFile = f.Name()
			found = true
		}
	}
	if !found {
		return nil, 0, os.ErrNotExist
	}

	data, err := os.ReadFile(filepath.Join(cm.basePath, latestFile))
	if err != nil {
		return nil, 0, err
	}
	return deserializeIndex(data)
}

func serializeIndex(idx Index, lsn uint64) ([]byte, error) {
	unique := false
	if oti, ok := idx.(*OrderedTreeIndex); ok {
		unique = oti.tree.UniqueKey
	} else if ski, ok := idx.(*SkiplistIndex); ok {
		unique = ski.unique
	}

	header := checkpointHeader{
		Magic:      checkpointMagic,
		Version:    checkpointVersion,
		Kind:       uint8(idx.Kind()),
		Unique:     unique,
		LastLSN:    lsn,
		NumEntries: uint64(idx.Count()),
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}

	var walkErr error
	idx.Scan(nil, func(key types.IntKey, rowID int64) bool {
		if err := binary.Write(buf, binary.LittleEndian, int64(key)); err != nil {
			walkErr = err
			return false
		}
		if err := binary.Write(buf, binary.LittleEndian, rowID); err != nil {
			walkErr = err
			return false
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return buf.Bytes(), nil
}

func deserializeIndex(data []byte) (Index, uint64, error) {
	r := bytes.NewReader(data)
	var header checkpointHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, 0, err
	}
	if header.Magic != checkpointMagic {
		return nil, 0, fmt.Errorf("invalid index checkpoint magic")
	}

	idx, err := New(Kind(header.Kind), header.Unique)
	if err != nil {
		return nil, 0, err
	}

	for i := uint64(0); i < header.NumEntries; i++ {
		var key int64
		var rowID int64
		if err := binary.Read(r, binary.LittleEndian, &key); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, err
		}
		if err := binary.Read(r, binary.LittleEndian, &rowID); err != nil {
			return nil, 0, err
		}
		if err := idx.Insert(types.IntKey(key), rowID); err != nil {
			return nil, 0, err
		}
	}
	return idx, header.LastLSN, nil
}
