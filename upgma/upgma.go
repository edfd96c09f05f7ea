// Package upgma implements the constrained agglomerative tracer:
// UPGMA-style average-linkage clustering over the column graph,
// constrained so that no cluster ever holds two columns of the same
// constraint and so that the cluster order stays consistent with every
// constraint's column order. Grounded on
// original_source/src/naive_upgma.rs's naive_upgma.
package upgma

import (
	"container/heap"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"gcm/gcmgraph"
	"gcm/state"
	"gcm/trace"
)

// Build runs the constrained UPGMA tracer over g and returns a raw
// trace. It never fails on well-formed input: an infeasible candidate
// merge is simply dropped, not erred.
func Build(st *state.State, g *gcmgraph.Graph) *trace.Trace {
	n := len(g.Labels)
	if n == 0 {
		return &trace.Trace{}
	}

	words := (st.NumConstraints() + 63) / 64

	node2cluster := make([]int, g.Size)
	rows := make([]bitset, n)
	sizes := make([]int, n)
	weightmap := make([]map[int]float64, n)
	for i, label := range g.Labels {
		node2cluster[label] = i
		rows[i] = newBitset(words)
		rows[i].set(g.NodePos[label].Constraint)
		sizes[i] = 1
		weightmap[i] = make(map[int]float64)
	}

	pq := &pairQueue{}
	heap.Init(pq)
	for _, e := range g.AllEdges() {
		if e.U == e.V {
			continue
		}
		l, r := reorder(node2cluster[e.U], node2cluster[e.V])
		if _, ok := weightmap[l][r]; !ok {
			weightmap[l][r] = e.W
			weightmap[r][l] = e.W
		}
		heap.Push(pq, pqItem{weight: weightmap[l][r], l: l, r: r})
	}

	orderOut := make([][]int, n)
	orderIn := make([][]int, n)
	for i := 0; i < n-1; i++ {
		first, second := g.Labels[i], g.Labels[i+1]
		if g.NodePos[first].Constraint == g.NodePos[second].Constraint {
			a, b := node2cluster[first], node2cluster[second]
			orderOut[a] = append(orderOut[a], b)
			orderIn[b] = append(orderIn[b], a)
		}
	}

	absorbed := make([]bool, n)
	invalidated := make(map[[2]int]bool)
	midVisited := make([]bool, n)
	uf := newUnionFind(n)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		l, r := reorder(item.l, item.r)
		if absorbed[l] || absorbed[r] {
			continue
		}
		if invalidated[[2]int{l, r}] {
			continue
		}
		if cur, ok := weightmap[l][r]; !ok || cur != item.weight {
			continue
		}

		visited, feasible := checkOrder(orderOut, l, r, midVisited)
		if !rows[l].disjoint(rows[r]) || !feasible {
			delete(weightmap[l], r)
			delete(weightmap[r], l)
			invalidated[[2]int{l, r}] = true
			continue
		}
		midVisited = visited

		winner := uf.Union(l, r)
		loser := l
		if loser == winner {
			loser = r
		}
		absorbed[loser] = true

		t1 := orderOut[loser]
		orderOut[loser] = nil
		orderOut[winner] = unionSorted(orderOut[winner], t1)
		t2 := orderIn[loser]
		orderIn[loser] = nil
		orderIn[winner] = unionSorted(orderIn[winner], t2)

		for _, innode := range t2 {
			for i, e := range orderOut[innode] {
				if e == loser {
					orderOut[innode][i] = winner
				}
			}
		}
		for _, outnode := range t1 {
			for i, e := range orderIn[outnode] {
				if e == loser {
					orderIn[outnode][i] = winner
				}
			}
		}

		seen := make(map[int]bool)
		for c := range weightmap[l] {
			seen[c] = true
		}
		for c := range weightmap[r] {
			seen[c] = true
		}
		cs := make([]int, 0, len(seen))
		for c := range seen {
			cs = append(cs, c)
		}
		sort.Ints(cs)
		for _, c := range cs {
			v1, ok1 := weightmap[l][c]
			v2, ok2 := weightmap[r][c]
			var v float64
			switch {
			case ok1 && ok2:
				v = (v1*float64(sizes[l]) + v2*float64(sizes[r])) / float64(sizes[l]+sizes[r])
			case ok1:
				v = v1
			default:
				v = v2
			}
			weightmap[winner][c] = v
			weightmap[c][winner] = v
			a, b := reorder(c, winner)
			heap.Push(pq, pqItem{weight: v, l: a, r: b})
		}

		sizes[winner] = sizes[l] + sizes[r]
		rows[winner].orWith(rows[loser])
	}

	order := orderedClusters(absorbed, orderOut, orderIn)

	final := make(map[int][]int)
	for _, label := range g.Labels {
		cid := uf.Find(node2cluster[label])
		final[cid] = append(final[cid], label)
	}

	clusters := make([]trace.Cluster, 0, len(order))
	for _, cid := range order {
		nodes, ok := final[cid]
		if !ok {
			continue
		}
		c := make(trace.Cluster, len(nodes))
		for i, nodeID := range nodes {
			c[i] = g.NodePos[nodeID]
		}
		clusters = append(clusters, c)
	}

	return &trace.Trace{Clusters: clusters}
}

func reorder(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

// unionSorted merges rhs into lhs as a sorted set with no duplicates,
// mirroring naive_upgma.rs's union helper (BTreeSet-based dedup).
func unionSorted(lhs, rhs []int) []int {
	set := make(map[int]bool, len(lhs)+len(rhs))
	for _, v := range lhs {
		set[v] = true
	}
	for _, v := range rhs {
		set[v] = true
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// pqItem is a candidate merge keyed by current linkage weight, with
// ties broken by (l, r) descending to match the deterministic ordering
// of Rust's BinaryHeap<(NotNan<f64>, usize, usize)>.
type pqItem struct {
	weight float64
	l, r   int
}

type pairQueue []pqItem

func (q pairQueue) Len() int { return len(q) }
func (q pairQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.weight != b.weight {
		return a.weight > b.weight
	}
	if a.l != b.l {
		return a.l > b.l
	}
	return a.r > b.r
}
func (q pairQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *pairQueue) Push(x any)        { *q = append(*q, x.(pqItem)) }
func (q *pairQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// checkOrder reports whether merging clusters l and r is consistent
// with the order-DAG (no l→*→r or r→*→l path), using midVisited from
// the previous successful check to skip a direction when possible. It
// returns the combined visited set for the caller to retain as the new
// midVisited on success.
func checkOrder(out [][]int, l, r int, midVisited []bool) ([]bool, bool) {
	if containsInt(out[l], r) && containsInt(out[r], l) {
		return midVisited, false
	}

	dag := &adjGraph{out: out}
	visited := make([]bool, len(out))

	reach := func(from, to int) bool {
		d := &traverse.DepthFirst{}
		found := d.Walk(dag, simple.Node(int64(from)), func(n graph.Node) bool {
			return n.ID() == int64(to)
		})
		for i := range visited {
			if i != from && d.Visited(simple.Node(int64(i))) {
				visited[i] = true
			}
		}
		return found != nil
	}

	var cycle bool
	switch {
	case midVisited[l] && midVisited[r], !midVisited[l] && !midVisited[r]:
		cycle = reach(l, r) || reach(r, l)
	case midVisited[l] && !midVisited[r]:
		cycle = reach(r, l)
	default:
		cycle = reach(l, r)
	}
	if cycle {
		return midVisited, false
	}
	return visited, true
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// orderedClusters topologically sorts the surviving (non-absorbed)
// cluster ids by the order-DAG, via gonum's topo.Sort.
func orderedClusters(absorbed []bool, out, in [][]int) []int {
	dag := &adjDirected{out: out, in: in}
	sorted, err := topo.Sort(dag)
	if err != nil {
		// The merge loop only ever commits an edge rewrite after
		// checkOrder has certified acyclicity, so a cycle here
		// indicates a tracer bug rather than bad input.
		panic("gcm: internal invariant violated: cluster order contains a cycle: " + err.Error())
	}
	ids := make([]int, 0, len(sorted))
	for _, nd := range sorted {
		id := int(nd.ID())
		if !absorbed[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// adjGraph is a minimal graph.Graph view over a mutable out-adjacency
// slice, letting the order-DAG cycle check reuse gonum's
// graph/traverse.DepthFirst instead of a hand-rolled stack walk.
type adjGraph struct {
	out [][]int
}

func (g *adjGraph) Node(id int64) graph.Node { return simple.Node(id) }
func (g *adjGraph) Nodes() graph.Nodes {
	ids := make([]int64, len(g.out))
	for i := range g.out {
		ids[i] = int64(i)
	}
	return newIDIterator(ids)
}
func (g *adjGraph) From(id int64) graph.Nodes {
	nbrs := g.out[id]
	ids := make([]int64, len(nbrs))
	for i, v := range nbrs {
		ids[i] = int64(v)
	}
	return newIDIterator(ids)
}
func (g *adjGraph) HasEdgeBetween(x, y int64) bool {
	return containsInt(g.out[x], int(y)) || containsInt(g.out[y], int(x))
}
func (g *adjGraph) Edge(u, v int64) graph.Edge {
	if !containsInt(g.out[u], int(v)) {
		return nil
	}
	return simple.Edge{F: simple.Node(u), T: simple.Node(v)}
}

// adjDirected adds the To half needed by topo.Sort's graph.Directed
// requirement.
type adjDirected struct {
	out, in [][]int
}

func (g *adjDirected) Node(id int64) graph.Node { return simple.Node(id) }
func (g *adjDirected) Nodes() graph.Nodes {
	ids := make([]int64, len(g.out))
	for i := range g.out {
		ids[i] = int64(i)
	}
	return newIDIterator(ids)
}
func (g *adjDirected) From(id int64) graph.Nodes {
	nbrs := g.out[id]
	ids := make([]int64, len(nbrs))
	for i, v := range nbrs {
		ids[i] = int64(v)
	}
	return newIDIterator(ids)
}
func (g *adjDirected) To(id int64) graph.Nodes {
	nbrs := g.in[id]
	ids := make([]int64, len(nbrs))
	for i, v := range nbrs {
		ids[i] = int64(v)
	}
	return newIDIterator(ids)
}
func (g *adjDirected) HasEdgeBetween(x, y int64) bool {
	return containsInt(g.out[x], int(y)) || containsInt(g.out[y], int(x))
}
func (g *adjDirected) Edge(u, v int64) graph.Edge {
	if !containsInt(g.out[u], int(v)) {
		return nil
	}
	return simple.Edge{F: simple.Node(u), T: simple.Node(v)}
}

type idIterator struct {
	ids []int64
	idx int
}

func newIDIterator(ids []int64) *idIterator { return &idIterator{ids: ids, idx: -1} }
func (it *idIterator) Next() bool           { it.idx++; return it.idx < len(it.ids) }
func (it *idIterator) Len() int {
	if it.idx >= len(it.ids) {
		return 0
	}
	return len(it.ids) - it.idx
}
func (it *idIterator) Reset()          { it.idx = -1 }
func (it *idIterator) Node() graph.Node { return simple.Node(it.ids[it.idx]) }

// unionFind is a standard path-compressed union-find over dense ids
// 0..n-1, always rooting a merged pair at the smaller id so that the
// "winner" cluster slot is deterministic.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) Find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// Union merges the trees containing a and b and returns the surviving
// representative (always the smaller of the two roots).
func (u *unionFind) Union(a, b int) int {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return ra
	}
	if ra < rb {
		u.parent[rb] = ra
		return ra
	}
	u.parent[ra] = rb
	return rb
}

// bitset is a fixed-width bit vector over constraint indices, used for
// the rows[c] membership test: a cluster may hold at most one column
// per constraint.
type bitset []uint64

func newBitset(words int) bitset { return make(bitset, words) }

func (b bitset) set(i int) { b[i/64] |= 1 << uint(i%64) }

func (b bitset) disjoint(o bitset) bool {
	for i := range b {
		if b[i]&o[i] != 0 {
			return false
		}
	}
	return true
}

func (b bitset) orWith(o bitset) {
	for i := range b {
		b[i] |= o[i]
	}
}
