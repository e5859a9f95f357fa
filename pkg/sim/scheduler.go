// Package sim is a seeded, single-threaded discrete-event simulation
// harness used by tests to drive recovery and concurrency scenarios
// against a virtual clock instead of wall-clock time.
package sim

import "container/heap"

// Callback is a unit of simulated work. ctx is whatever the scheduling
// call attached (a message payload, a disk operation closure's argument).
type Callback func(s *Scheduler, ctx any)

type task struct {
	time     int64
	priority int64
	seq      int64 // insertion order, breaks (time, priority) ties
	id       uint64
	callback Callback
	ctx      any
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }
func (q taskQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}
func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *taskQueue) Push(x any)   { *q = append(*q, x.(*task)) }
func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	*q = old[:n-1]
	return t
}

// Scheduler is the simulation's virtual clock, task queue, and the sole
// source of randomness for everything that runs on it (Network, Disk).
type Scheduler struct {
	clock      int64
	drift      float64
	queue      taskQueue
	nextSeq    int64
	nextTaskID uint64
	rng        *rng
}

// NewScheduler creates a scheduler with its virtual clock at 0 and a PRNG
// seeded deterministically from seed.
func NewScheduler(seed uint64) *Scheduler {
	s := &Scheduler{drift: 1.0, rng: newRNG(seed)}
	heap.Init(&s.queue)
	return s
}

// Now returns the virtual clock scaled by the configured drift factor.
func (s *Scheduler) Now() int64 {
	return int64(float64(s.clock) * s.drift)
}

// SetDrift sets the multiplicative drift factor applied when a node reads
// the current time through Now.
func (s *Scheduler) SetDrift(drift float64) {
	s.drift = drift
}

// Schedule enqueues callback to run at s.clock+delay (delay >= 0), at the
// given priority (lower runs first among tasks at the same time), and
// returns the task's id for diagnostics.
func (s *Scheduler) Schedule(delay, priority int64, callback Callback, ctx any) uint64 {
	s.nextTaskID++
	s.nextSeq++
	heap.Push(&s.queue, &task{
		time:     s.clock + delay,
		priority: priority,
		seq:      s.nextSeq,
		id:       s.nextTaskID,
		callback: callback,
		ctx:      ctx,
	})
	return s.nextTaskID
}

// Step pops and runs exactly one task, advancing the clock to its
// scheduled time. Returns false if the queue is empty.
func (s *Scheduler) Step() bool {
	if s.queue.Len() == 0 {
		return false
	}
	t := heap.Pop(&s.queue).(*task)
	s.clock = t.time
	t.callback(s, t.ctx)
	return true
}

// Run pops tasks in (time, priority, insertion order) until the queue is
// empty or the next task's time exceeds maxTime, in which case that task
// is pushed back and Run returns. A nil maxTime (use RunUnbounded) drains
// the queue entirely.
func (s *Scheduler) Run(maxTime int64) {
	for s.queue.Len() > 0 {
		t := s.queue[0]
		if t.time > maxTime {
			return
		}
		heap.Pop(&s.queue)
		s.clock = t.time
		t.callback(s, t.ctx)
	}
}

// RunUnbounded drains the queue with no time ceiling.
func (s *Scheduler) RunUnbounded() {
	for s.Step() {
	}
}

// Rand exposes the scheduler's PRNG so Network and Disk draw their
// randomness from the same reproducible source.
func (s *Scheduler) Rand() *rng {
	return s.rng
}

// Pending reports the number of not-yet-run tasks.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}
