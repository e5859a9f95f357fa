package sim

import "sort"

// Handler processes a message delivered to a node.
type Handler func(from, to string, payload any)

// Network is a simulated message bus: handlers are keyed by node id,
// partitions silently drop cross-partition traffic, and surviving
// messages are delivered after a random delay drawn from the scheduler's
// shared PRNG.
type Network struct {
	sched       *Scheduler
	handlers    map[string]Handler
	partitions  [][]string
	delayMin    int64
	delayMax    int64
	lossProb    float64
	deliveryLog []delivery
}

type delivery struct {
	from, to string
	at       int64
}

// NewNetwork creates a network driven by sched, with messages delayed
// uniformly in [delayMin, delayMax] and dropped independently with
// probability lossProb.
func NewNetwork(sched *Scheduler, delayMin, delayMax int64, lossProb float64) *Network {
	return &Network{
		sched:    sched,
		handlers: make(map[string]Handler),
		delayMin: delayMin,
		delayMax: delayMax,
		lossProb: lossProb,
	}
}

// RegisterHandler attaches the handler a node uses to receive messages.
func (n *Network) RegisterHandler(node string, h Handler) {
	n.handlers[node] = h
}

// Partition declares that no message may cross between the given set of
// nodes and any node outside it, in either direction, until healed.
func (n *Network) Partition(nodes ...string) {
	set := append([]string(nil), nodes...)
	sort.Strings(set)
	n.partitions = append(n.partitions, set)
}

// HealPartitions removes every partition, restoring full connectivity.
func (n *Network) HealPartitions() {
	n.partitions = nil
}

func (n *Network) separated(a, b string) bool {
	for _, side := range n.partitions {
		aIn := contains(side, a)
		bIn := contains(side, b)
		if aIn != bIn {
			return true
		}
	}
	return false
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// SendMessage drops the message silently if from/to are separated by a
// partition or lost by probability; otherwise it schedules delivery after
// a random delay in [delayMin, delayMax].
func (n *Network) SendMessage(from, to string, payload any) {
	if n.separated(from, to) {
		return
	}
	if n.sched.Rand().Float64() < n.lossProb {
		return
	}
	delay := n.sched.Rand().IntRange(n.delayMin, n.delayMax)
	n.sched.Schedule(delay, 0, func(s *Scheduler, ctx any) {
		d := ctx.(delivery)
		n.deliveryLog = append(n.deliveryLog, d)
		if h, ok := n.handlers[d.to]; ok {
			h(d.from, d.to, payload)
		}
	}, delivery{from: from, to: to, at: n.sched.clock + delay})
}

// DeliveryCount reports how many messages to `to` from `from` have
// actually been handed to a registered handler so far.
func (n *Network) DeliveryCount(from, to string) int {
	count := 0
	for _, d := range n.deliveryLog {
		if d.from == from && d.to == to {
			count++
		}
	}
	return count
}
