package scorer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcm/gcmgraph"
	"gcm/scorer"
	"gcm/state"
	"gcm/trace"
)

func buildGraph(t *testing.T) (*state.State, *gcmgraph.Graph) {
	t.Helper()
	columnCounts := []int{2, 2}
	labels := []int{0, 1, 2, 3}
	edges := []gcmgraph.Edge{
		{U: 0, V: 2, W: 3},
		{U: 1, V: 3, W: 4},
		{U: 0, V: 3, W: 1},
	}
	g := gcmgraph.Load(columnCounts, 4, labels, edges)
	st := &state.State{ColumnCounts: columnCounts}
	return st, g
}

func TestScoreSumsOnlyIntraClusterEdges(t *testing.T) {
	_, g := buildGraph(t)
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}},
			{{Constraint: 0, Column: 1}, {Constraint: 1, Column: 1}},
		},
	}
	// Intra-cluster: (0,0)-(1,0)=3 and (0,1)-(1,1)=4; the cross edge
	// (0,0)-(1,1)=1 spans two different clusters and must be excluded.
	assert.Equal(t, float64(7), scorer.Score(tr, g))
}

func TestScoreIsZeroWithNoSharedClusters(t *testing.T) {
	_, g := buildGraph(t)
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}},
			{{Constraint: 1, Column: 0}},
		},
	}
	assert.Equal(t, float64(0), scorer.Score(tr, g))
}

func TestClusterWeightStatsSpreadAcrossClusters(t *testing.T) {
	_, g := buildGraph(t)
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}},
			{{Constraint: 0, Column: 1}, {Constraint: 1, Column: 1}},
		},
	}
	// Cluster weights are 3 and 4 (see TestScoreSumsOnlyIntraClusterEdges).
	mean, variance := scorer.ClusterWeightStats(tr, g)
	assert.Equal(t, 3.5, mean)
	assert.Equal(t, 0.5, variance)
}

func TestClusterWeightStatsSingleClusterHasZeroVariance(t *testing.T) {
	_, g := buildGraph(t)
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}},
		},
	}
	mean, variance := scorer.ClusterWeightStats(tr, g)
	assert.Equal(t, float64(3), mean)
	assert.Equal(t, float64(0), variance)
}

func TestTraceFromAlignmentRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merged.fasta")
	require.NoError(t, os.WriteFile(path, []byte(">a\nAC\n>b\nAC\n"), 0o644))

	st := &state.State{
		Names:        []string{"a", "b"},
		NameIDs:      map[string]int{"a": 0, "b": 1},
		Coords:       [][]state.Pos{{{Constraint: 0, Column: 0}, {Constraint: 0, Column: 1}}, {{Constraint: 1, Column: 0}, {Constraint: 1, Column: 1}}},
		ColumnCounts: []int{2, 2},
	}

	tr, err := scorer.TraceFromAlignment(st, path)
	require.NoError(t, err)
	require.Len(t, tr.Clusters, 2)
	for _, c := range tr.Clusters {
		assert.Len(t, c, 2)
	}
}
