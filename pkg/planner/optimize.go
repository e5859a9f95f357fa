package planner

import "github.com/fowlerlee/geeqodb/pkg/sqlparser"

// IndexLookup resolves the index registered over (table, column), if any.
// pkg/database supplies this from the catalog's live index registry so the
// planner package stays free of a catalog import.
type IndexLookup func(table, column string) (*IndexInfo, bool)

// Options bundles everything the optimizer's five stages consult.
type Options struct {
	Statistics        *Statistics
	Indexes           IndexLookup
	ParallelThreshold int64
	MaxParallelDegree int
	GPUAvailable      bool
	GPUForceEnabled   bool
	ShouldUseGPU      func(PhysicalNode) bool
}

// Optimize runs a deterministic five-stage pipeline: predicate pushdown,
// join reordering, physical lowering with index-method selection, optional
// parallelism, and an optional advisory GPU hint.
func Optimize(logical LogicalNode, opts Options) PhysicalNode {
	pushdownPredicates(logical)
	reorderJoins(logical, opts.Statistics)
	phys := lower(logical, opts.Indexes)
	phys = collapseFullyCoveredSeek(phys)
	applyParallelism(phys, opts.Statistics, opts.ParallelThreshold, opts.MaxParallelDegree)
	applyGPUHint(phys, opts)
	return phys
}

// collapseFullyCoveredSeek drops a SELECT *'s Project/Filter wrapper when
// the Filter carries exactly the one equality predicate the lowered scan
// already resolved as an IndexSeek: the seek is an exact-match probe, so
// the wrapping filter is redundant and the star projection changes
// nothing, so such a plan's physical root collapses to the IndexSeek
// itself.
func collapseFullyCoveredSeek(node PhysicalNode) PhysicalNode {
	proj, ok := node.(*PhysicalProject)
	if !ok || !proj.Star || len(proj.Children()) != 1 {
		return node
	}
	filter, ok := proj.Children()[0].(*PhysicalFilter)
	if !ok || len(filter.Predicates) != 1 || len(filter.Children()) != 1 {
		return node
	}
	seek, ok := filter.Children()[0].(*PhysicalIndexSeek)
	if !ok {
		return node
	}
	pred := filter.Predicates[0]
	if pred.Column.Name != seek.Predicate.Column.Name || pred.Op != seek.Predicate.Op {
		return node
	}
	if len(pred.Values) != 1 || len(seek.Predicate.Values) != 1 || !pred.Values[0].Equal(seek.Predicate.Values[0]) {
		return node
	}
	return seek
}

// --- stage 1: predicate pushdown -----------------------------------------

func pushdownPredicates(node LogicalNode) {
	for _, c := range node.Children() {
		pushdownPredicates(c)
	}
	f, ok := node.(*LogicalFilter)
	if !ok {
		return
	}
	scans := collectScans(f)
	for _, pred := range f.Predicates {
		for _, scan := range scans {
			if pred.Column.Table != "" && pred.Column.Table != scan.Table {
				continue
			}
			scan.PushedPredicates = append(scan.PushedPredicates, sqlparser.Predicate{
				Column: sqlparser.Column{Name: pred.Column.Name},
				Op:     pred.Op,
				Values: pred.Values,
			})
		}
	}
}

func collectScans(node LogicalNode) []*LogicalScan {
	var out []*LogicalScan
	var walk func(LogicalNode)
	walk = func(n LogicalNode) {
		if s, ok := n.(*LogicalScan); ok {
			out = append(out, s)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(node)
	return out
}

// --- stage 2: join reordering ---------------------------------------------

func reorderJoins(node LogicalNode, stats *Statistics) {
	for _, c := range node.Children() {
		reorderJoins(c, stats)
	}
	j, ok := node.(*LogicalJoin)
	if !ok {
		return
	}
	if stats.RowCount(primaryTable(j.Right)) < stats.RowCount(primaryTable(j.Left)) {
		j.Left, j.Right = j.Right, j.Left
	}
}

func primaryTable(node LogicalNode) string {
	if scan, ok := node.(*LogicalScan); ok {
		return scan.Table
	}
	for _, c := range node.Children() {
		if t := primaryTable(c); t != "" {
			return t
		}
	}
	return ""
}

// --- stage 3: physical lowering --------------------------------------------

func lower(node LogicalNode, indexes IndexLookup) PhysicalNode {
	switch n := node.(type) {
	case *LogicalScan:
		return lowerScan(n, indexes)
	case *LogicalFilter:
		return NewPhysicalFilter(lower(n.Children()[0], indexes), n.Predicates)
	case *LogicalProject:
		return NewPhysicalProject(lower(n.Children()[0], indexes), n.Columns, n.Star)
	case *LogicalJoin:
		p := &PhysicalNestedLoopJoin{Predicates: n.Predicates}
		p.Left = lower(n.Left, indexes)
		p.Right = lower(n.Right, indexes)
		p.children = []PhysicalNode{p.Left, p.Right}
		return p
	case *LogicalSort:
		p := &PhysicalSort{Columns: n.Columns}
		p.children = []PhysicalNode{lower(n.Children()[0], indexes)}
		return p
	case *LogicalLimit:
		p := &PhysicalLimit{Count: n.Count}
		p.children = []PhysicalNode{lower(n.Children()[0], indexes)}
		return p
	case *LogicalAggregate:
		p := &PhysicalAggregate{GroupBy: n.GroupBy}
		p.children = []PhysicalNode{lower(n.Children()[0], indexes)}
		return p
	default:
		return nil
	}
}

func lowerScan(scan *LogicalScan, indexes IndexLookup) PhysicalNode {
	if indexes != nil {
		for _, pred := range scan.PushedPredicates {
			idx, ok := indexes(scan.Table, pred.Column.Name)
			if !ok {
				continue
			}
			switch pred.Op {
			case sqlparser.OpEq:
				p := &PhysicalIndexSeek{Table: scan.Table, Predicate: pred}
				p.meta.Method = AccessIndexSeek
				p.meta.Index = idx
				return p
			case sqlparser.OpLt, sqlparser.OpLte, sqlparser.OpGt, sqlparser.OpGte, sqlparser.OpBetween:
				p := &PhysicalIndexRangeScan{Table: scan.Table, Predicate: pred}
				p.meta.Method = AccessIndexRangeScan
				p.meta.Index = idx
				return p
			default:
				p := &PhysicalIndexScan{Table: scan.Table}
				p.meta.Method = AccessIndexScan
				p.meta.Index = idx
				return p
			}
		}
	}
	p := &PhysicalTableScan{Table: scan.Table}
	p.meta.Method = AccessTableScan
	return p
}

// --- stage 4: parallelism (optional) ---------------------------------------

func applyParallelism(node PhysicalNode, stats *Statistics, threshold int64, maxDegree int) {
	if node == nil {
		return
	}
	degree := 1
	switch n := node.(type) {
	case *PhysicalTableScan:
		degree = scanDegree(stats.RowCount(n.Table), threshold, maxDegree)
	case *PhysicalIndexScan:
		degree = scanDegree(stats.RowCount(n.Table), threshold, maxDegree)
	case *PhysicalIndexRangeScan:
		degree = scanDegree(stats.RowCount(n.Table), threshold, maxDegree)
	case *PhysicalIndexSeek:
		degree = 1
	}
	node.Meta().ParallelDegree = degree
	if degree > 1 {
		frags := make([]ParallelFragment, degree)
		for i := range frags {
			frags[i] = ParallelFragment{Index: i, Of: degree}
		}
		node.Meta().Fragments = frags
	}
	for _, c := range node.Children() {
		applyParallelism(c, stats, threshold, maxDegree)
		if c.Meta().ParallelDegree > node.Meta().ParallelDegree {
			node.Meta().ParallelDegree = c.Meta().ParallelDegree
		}
	}
}

func scanDegree(rowCount, threshold int64, maxDegree int) int {
	if threshold <= 0 || rowCount <= threshold {
		return 1
	}
	d := int(rowCount / threshold)
	if d < 1 {
		d = 1
	}
	if d > maxDegree {
		d = maxDegree
	}
	return d
}

// --- stage 5: GPU hint (advisory only) --------------------------------------

func applyGPUHint(node PhysicalNode, opts Options) {
	if node == nil || !opts.GPUAvailable {
		return
	}
	use := opts.GPUForceEnabled
	if !use && opts.ShouldUseGPU != nil {
		use = opts.ShouldUseGPU(node)
	}
	markGPU(node, use)
}

func markGPU(node PhysicalNode, use bool) {
	node.Meta().UseGPU = use
	for _, c := range node.Children() {
		markGPU(c, use)
	}
}
