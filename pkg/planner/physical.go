package planner

import "github.com/fowlerlee/geeqodb/pkg/sqlparser"

// AccessMethod names the physical strategy chosen to read a table.
type AccessMethod int

const (
	AccessTableScan AccessMethod = iota
	AccessIndexScan
	AccessIndexSeek
	AccessIndexRangeScan
)

func (a AccessMethod) String() string {
	switch a {
	case AccessTableScan:
		return "TableScan"
	case AccessIndexScan:
		return "IndexScan"
	case AccessIndexSeek:
		return "IndexSeek"
	case AccessIndexRangeScan:
		return "IndexRangeScan"
	default:
		return "Unknown"
	}
}

// ParallelFragment describes one slice of a parallelized scan, carried as
// advisory metadata for implementations that actually fan work out across
// goroutines.
type ParallelFragment struct {
	Index int
	Of    int
}

// PhysicalNode is one node of a physical plan: an operator plus the access
// method, optional resolved index, and execution hints chosen by the
// optimizer.
type PhysicalNode interface {
	physicalNode()
	Children() []PhysicalNode
	Meta() *PhysicalMeta
}

// PhysicalMeta is the execution metadata every physical node carries,
// regardless of operator kind.
type PhysicalMeta struct {
	Method         AccessMethod
	Index          *IndexInfo
	UseGPU         bool
	ParallelDegree int
	Fragments      []ParallelFragment
}

type basePhysical struct {
	children []PhysicalNode
	meta     PhysicalMeta
}

func (b *basePhysical) Children() []PhysicalNode { return b.children }
func (b *basePhysical) Meta() *PhysicalMeta       { return &b.meta }

type PhysicalTableScan struct {
	basePhysical
	Table string
}

func (*PhysicalTableScan) physicalNode() {}

type PhysicalIndexScan struct {
	basePhysical
	Table string
}

func (*PhysicalIndexScan) physicalNode() {}

type PhysicalIndexSeek struct {
	basePhysical
	Table     string
	Predicate sqlparser.Predicate
}

func (*PhysicalIndexSeek) physicalNode() {}

type PhysicalIndexRangeScan struct {
	basePhysical
	Table     string
	Predicate sqlparser.Predicate
}

func (*PhysicalIndexRangeScan) physicalNode() {}

type PhysicalFilter struct {
	basePhysical
	Predicates []sqlparser.Predicate
}

func (*PhysicalFilter) physicalNode() {}

// NewPhysicalFilter builds a filter node over a single child, the shape
// every Filter in a lowered plan has.
func NewPhysicalFilter(child PhysicalNode, predicates []sqlparser.Predicate) *PhysicalFilter {
	p := &PhysicalFilter{Predicates: predicates}
	p.children = []PhysicalNode{child}
	return p
}

type PhysicalProject struct {
	basePhysical
	Columns []sqlparser.Column
	Star    bool
}

func (*PhysicalProject) physicalNode() {}

// NewPhysicalProject builds a project node over a single child.
func NewPhysicalProject(child PhysicalNode, columns []sqlparser.Column, star bool) *PhysicalProject {
	p := &PhysicalProject{Columns: columns, Star: star}
	p.children = []PhysicalNode{child}
	return p
}

type PhysicalNestedLoopJoin struct {
	basePhysical
	Left, Right PhysicalNode
	Predicates  []sqlparser.Predicate
}

func (*PhysicalNestedLoopJoin) physicalNode() {}

type PhysicalHashJoin struct {
	basePhysical
	Left, Right PhysicalNode
	Predicates  []sqlparser.Predicate
}

func (*PhysicalHashJoin) physicalNode() {}

type PhysicalSort struct {
	basePhysical
	Columns []sqlparser.Column
}

func (*PhysicalSort) physicalNode() {}

type PhysicalLimit struct {
	basePhysical
	Count int64
}

func (*PhysicalLimit) physicalNode() {}

type PhysicalAggregate struct {
	basePhysical
	GroupBy []sqlparser.Column
}

func (*PhysicalAggregate) physicalNode() {}
