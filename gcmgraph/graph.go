// Package gcmgraph implements the graph builder: it turns a
// set of glue alignments into one weighted column graph, with an
// implicit per-constraint left-to-right order carried by the dense
// node numbering.
package gcmgraph

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"gcm/internal/fio"
	"gcm/internal/gcmerr"
	"gcm/state"
)

// Edge is a materialized weighted edge between two node ids.
type Edge struct {
	U, V int
	W    float64
}

// Graph is the merged, immutable column graph: Size columns in total,
// a dense NodePos reverse map (node id -> constraint/column), and
// Labels, the sorted set of node ids that participate in at least one
// edge (singletons are reintroduced later by the frame builder).
type Graph struct {
	Size    int
	NodePos []state.Pos
	Labels  []int

	pos2id map[state.Pos]int
	g      *simple.WeightedUndirectedGraph
}

// PosID returns the dense node id for p.
func (g *Graph) PosID(p state.Pos) int { return g.pos2id[p] }

// Weight returns the edge weight between node ids u and v, checking
// both storage directions (the underlying store is undirected, so this
// is really just a convenience accessor).
func (g *Graph) Weight(u, v int) (float64, bool) {
	if u == v {
		return 0, false
	}
	return g.g.Weight(int64(u), int64(v))
}

// WeightByPos is Weight addressed by constraint coordinates.
func (g *Graph) WeightByPos(a, b state.Pos) (float64, bool) {
	return g.Weight(g.pos2id[a], g.pos2id[b])
}

// AllEdges materializes every stored edge exactly once.
func (g *Graph) AllEdges() []Edge {
	it := g.g.Edges()
	out := make([]Edge, 0, it.Len())
	for it.Next() {
		e, ok := it.Edge().(graph.WeightedEdge)
		if !ok {
			gcmerr.InternalInvariant("graph edge is not weighted")
		}
		out = append(out, Edge{U: int(e.From().ID()), V: int(e.To().ID()), W: e.Weight()})
	}
	return out
}

// subgraph is the sparse per-glue accumulation keyed directly by
// constraint coordinates, matching original_source/src/merge.rs's
// SparseGraph (a map of maps keyed by (u32,u32) rather than by dense
// node id, since node ids aren't assigned until all subgraphs are
// built).
type subgraph map[state.Pos]map[state.Pos]float64

func (s subgraph) add(a, b state.Pos, w float64) {
	if b.Constraint < a.Constraint || (b.Constraint == a.Constraint && b.Column < a.Column) {
		a, b = b, a
	}
	row, ok := s[a]
	if !ok {
		row = make(map[state.Pos]float64)
		s[a] = row
	}
	row[b] += w
}

// buildSubgraph implements the column-wise majority-merge accumulation
// for one glue file: for each column, count which constraint
// coordinates appear, then for every unordered pair of distinct
// coordinates in that column add count(p)*count(q) to their edge.
func buildSubgraph(st *state.State, path string) (subgraph, error) {
	var colors []map[state.Pos]int
	width := -1

	err := fio.ScanFasta(path, func(rec fio.Record) error {
		id, ok := st.SequenceID(rec.Name)
		if !ok {
			return fmt.Errorf("%w: %q (in %q)", gcmerr.UnknownSequence, rec.Name, path)
		}
		if width == -1 {
			width = len(rec.Seq)
			colors = make([]map[state.Pos]int, width)
			for i := range colors {
				colors[i] = make(map[state.Pos]int)
			}
		} else if len(rec.Seq) != width {
			return fmt.Errorf("%w: %q: glue columns disagree in width", gcmerr.RaggedAlignment, path)
		}

		coords := st.Coords[id]
		nonGap := 0
		for col, b := range rec.Seq {
			if !fio.IsGap(b) {
				colors[col][coords[nonGap]]++
				nonGap++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sub := make(subgraph)
	for _, col := range colors {
		keys := make([]state.Pos, 0, len(col))
		for p := range col {
			keys = append(keys, p)
		}
		for i := 0; i < len(keys); i++ {
			for j := i + 1; j < len(keys); j++ {
				p, q := keys[i], keys[j]
				sub.add(p, q, float64(col[p])*float64(col[q]))
			}
		}
	}
	return sub, nil
}

// Build constructs the merged Graph from state and a set of glue
// alignment files. Subgraphs are built in parallel, bounded by an
// errgroup, then merged serially: weighted[u][v] = sum_i
// weights[i] * subgraph_i[u][v]. weights may be nil (equivalent to all
// 1.0); otherwise its length must equal len(glueFiles).
func Build(st *state.State, glueFiles []string, weights []float64) (*Graph, error) {
	if weights != nil && len(weights) != len(glueFiles) {
		return nil, fmt.Errorf("%w: %d weights for %d glue files", gcmerr.WeightArityMismatch, len(weights), len(glueFiles))
	}

	subgraphs := make([]subgraph, len(glueFiles))
	eg, _ := errgroup.WithContext(context.Background())
	for i, path := range glueFiles {
		i, path := i, path
		eg.Go(func() error {
			sub, err := buildSubgraph(st, path)
			if err != nil {
				return err
			}
			subgraphs[i] = sub
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	pos2id := make(map[state.Pos]int)
	var nodePos []state.Pos
	id := 0
	for k, width := range st.ColumnCounts {
		for col := 0; col < width; col++ {
			p := state.Pos{Constraint: k, Column: col}
			pos2id[p] = id
			nodePos = append(nodePos, p)
			id++
		}
	}

	underlying := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < id; i++ {
		underlying.AddNode(simple.Node(int64(i)))
	}

	labelSet := make(map[int]bool)
	for i, sub := range subgraphs {
		mult := 1.0
		if weights != nil {
			mult = weights[i]
		}
		for u, row := range sub {
			for v, w := range row {
				ui, vi := pos2id[u], pos2id[v]
				cur, _ := underlying.Weight(int64(ui), int64(vi))
				underlying.SetWeightedEdge(simple.WeightedEdge{
					F: simple.Node(int64(ui)),
					T: simple.Node(int64(vi)),
					W: cur + w*mult,
				})
				labelSet[ui] = true
				labelSet[vi] = true
			}
		}
	}

	labels := make([]int, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	return &Graph{Size: id, NodePos: nodePos, Labels: labels, pos2id: pos2id, g: underlying}, nil
}

// Load reconstructs a Graph from the on-disk triple (nodeCount,
// labelList, edgeList) written by Save. It is the debug/replay
// entry point used by gcm-debug-improve and gcm-debug-score; columnCounts
// must be the same per-constraint widths the state was built with, so
// that the dense node numbering matches what produced the file.
func Load(columnCounts []int, size int, labels []int, edges []Edge) *Graph {
	pos2id := make(map[state.Pos]int)
	var nodePos []state.Pos
	id := 0
	for k, width := range columnCounts {
		for col := 0; col < width; col++ {
			p := state.Pos{Constraint: k, Column: col}
			pos2id[p] = id
			nodePos = append(nodePos, p)
			id++
		}
	}

	underlying := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < id; i++ {
		underlying.AddNode(simple.Node(int64(i)))
	}
	for _, e := range edges {
		underlying.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(int64(e.U)),
			T: simple.Node(int64(e.V)),
			W: e.W,
		})
	}

	sorted := append([]int(nil), labels...)
	sort.Ints(sorted)

	return &Graph{Size: size, NodePos: nodePos, Labels: sorted, pos2id: pos2id, g: underlying}
}
