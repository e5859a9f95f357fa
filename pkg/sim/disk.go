package sim

import (
	ierrors "github.com/fowlerlee/geeqodb/pkg/errors"
)

// Disk is an in-memory path→bytes store that models the latency and
// failure modes a real disk exhibits, so recovery and corruption tests run
// deterministically against the scheduler's virtual clock and PRNG.
type Disk struct {
	sched          *Scheduler
	files          map[string][]byte
	readDelayMin   int64
	readDelayMax   int64
	writeDelayMin  int64
	writeDelayMax  int64
	readErrorProb  float64
	writeErrorProb float64
	corruptionProb float64
}

// NewDisk creates a disk driven by sched with the given delay ranges,
// independent read/write error probabilities, and a per-byte corruption
// probability applied at read time.
func NewDisk(sched *Scheduler, readDelayMin, readDelayMax, writeDelayMin, writeDelayMax int64, readErrorProb, writeErrorProb, corruptionProb float64) *Disk {
	return &Disk{
		sched:          sched,
		files:          make(map[string][]byte),
		readDelayMin:   readDelayMin,
		readDelayMax:   readDelayMax,
		writeDelayMin:  writeDelayMin,
		writeDelayMax:  writeDelayMax,
		readErrorProb:  readErrorProb,
		writeErrorProb: writeErrorProb,
		corruptionProb: corruptionProb,
	}
}

// Write schedules a delayed write of data to path, invoking done with the
// outcome once the simulated write completes.
func (d *Disk) Write(path string, data []byte, done func(error)) {
	delay := d.sched.Rand().IntRange(d.writeDelayMin, d.writeDelayMax)
	buf := append([]byte(nil), data...)
	d.sched.Schedule(delay, 0, func(s *Scheduler, ctx any) {
		if d.sched.Rand().Float64() < d.writeErrorProb {
			done(&ierrors.DiskWriteErrorError{Path: path, Reason: "simulated write failure"})
			return
		}
		d.files[path] = buf
		done(nil)
	}, nil)
}

// Read schedules a delayed read of path, invoking done with the bytes (a
// copy, independently corrupted per this call per corruptionProb) or an
// error once the simulated read completes.
func (d *Disk) Read(path string, done func([]byte, error)) {
	delay := d.sched.Rand().IntRange(d.readDelayMin, d.readDelayMax)
	d.sched.Schedule(delay, 0, func(s *Scheduler, ctx any) {
		if d.sched.Rand().Float64() < d.readErrorProb {
			done(nil, &ierrors.DiskReadErrorError{Path: path, Reason: "simulated read failure"})
			return
		}
		stored, ok := d.files[path]
		if !ok {
			done(nil, &ierrors.FileNotFoundError{Path: path})
			return
		}
		out := append([]byte(nil), stored...)
		for i := range out {
			if d.sched.Rand().Float64() < d.corruptionProb {
				out[i] ^= 0xFF
			}
		}
		done(out, nil)
	}, nil)
}

// InjectCorruption flips a single random byte of path's stored content, if
// any exists and is non-empty.
func (d *Disk) InjectCorruption(path string) {
	data, ok := d.files[path]
	if !ok || len(data) == 0 {
		return
	}
	idx := d.sched.Rand().IntRange(0, int64(len(data)-1))
	data[idx] ^= 0xFF
}
