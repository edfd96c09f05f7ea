// Package scorer implements the MWT-AM objective function: the
// weighted value of a trace against a graph, and the inverse
// operation of reconstructing a trace from a produced alignment (used
// for round-trip testing). Grounded on
// original_source/src/cluster.rs's mwt_am_score and
// original_source/src/scorer.rs's trace_from_alignment.
package scorer

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"gcm/gcmgraph"
	"gcm/internal/fio"
	"gcm/internal/gcmerr"
	"gcm/state"
	"gcm/trace"
)

// Score sums the graph weight of every edge whose endpoints fall in
// the same cluster of t, excluding edges between identical positions.
func Score(t *trace.Trace, g *gcmgraph.Graph) float64 {
	posToCluster := posToClusterID(t)

	var score float64
	for _, e := range g.AllEdges() {
		p1, p2 := g.NodePos[e.U], g.NodePos[e.V]
		if p1 == p2 {
			continue
		}
		c1, ok1 := posToCluster[p1]
		c2, ok2 := posToCluster[p2]
		if ok1 && ok2 && c1 == c2 {
			score += e.W
		}
	}
	return score
}

// ClusterWeightStats reports the mean and variance, across clusters,
// of each cluster's intra-cluster weight contribution to Score — a
// diagnostic for whether the objective is concentrated in a handful of
// clusters or spread evenly across the trace.
func ClusterWeightStats(t *trace.Trace, g *gcmgraph.Graph) (mean, variance float64) {
	posToCluster := posToClusterID(t)
	sums := make([]float64, len(t.Clusters))

	for _, e := range g.AllEdges() {
		p1, p2 := g.NodePos[e.U], g.NodePos[e.V]
		if p1 == p2 {
			continue
		}
		c1, ok1 := posToCluster[p1]
		c2, ok2 := posToCluster[p2]
		if ok1 && ok2 && c1 == c2 {
			sums[c1] += e.W
		}
	}
	if len(sums) < 2 {
		var mean float64
		if len(sums) == 1 {
			mean = sums[0]
		}
		return mean, 0
	}
	return stat.MeanVariance(sums, nil)
}

func posToClusterID(t *trace.Trace) map[state.Pos]int {
	m := make(map[state.Pos]int)
	for ci, c := range t.Clusters {
		for _, p := range c {
			m[p] = ci
		}
	}
	return m
}

// TraceFromAlignment walks a produced merged-alignment FASTA column by
// column, mapping each residue back to its constraint coordinate via
// st.Coords, and returns a trace whose clusters are the non-empty
// column sets. This enables round-trip testing: score(T) should be
// close to Score(TraceFromAlignment(weave(T))).
func TraceFromAlignment(st *state.State, path string) (*trace.Trace, error) {
	var columns []map[state.Pos]bool
	width := -1

	err := fio.ScanFasta(path, func(rec fio.Record) error {
		id, ok := st.SequenceID(rec.Name)
		if !ok {
			return fmt.Errorf("%w: %q (in %q)", gcmerr.UnknownSequence, rec.Name, path)
		}
		if width == -1 {
			width = len(rec.Seq)
			columns = make([]map[state.Pos]bool, width)
			for i := range columns {
				columns[i] = make(map[state.Pos]bool)
			}
		} else if len(rec.Seq) != width {
			return fmt.Errorf("%w: %q: merged alignment rows disagree in width", gcmerr.RaggedAlignment, path)
		}

		coords := st.Coords[id]
		nonGap := 0
		for col, b := range rec.Seq {
			if !fio.IsGap(b) {
				columns[col][coords[nonGap]] = true
				nonGap++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var clusters []trace.Cluster
	for _, col := range columns {
		if len(col) == 0 {
			continue
		}
		c := make(trace.Cluster, 0, len(col))
		for p := range col {
			c = append(c, p)
		}
		sort.Slice(c, func(i, j int) bool { return c[i].Constraint < c[j].Constraint })
		clusters = append(clusters, c)
	}
	return &trace.Trace{Clusters: clusters}, nil
}
