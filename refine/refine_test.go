package refine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcm/gcmgraph"
	"gcm/refine"
	"gcm/scorer"
	"gcm/state"
	"gcm/trace"
)

func TestRunNeverDecreasesScore(t *testing.T) {
	columnCounts := []int{2, 2, 2}
	labels := []int{0, 1, 2, 3, 4, 5}
	edges := []gcmgraph.Edge{
		{U: 0, V: 2, W: 5},
		{U: 2, V: 4, W: 5},
		{U: 0, V: 4, W: 5},
		{U: 1, V: 3, W: 2},
		{U: 3, V: 5, W: 2},
	}
	g := gcmgraph.Load(columnCounts, 6, labels, edges)
	st := &state.State{ColumnCounts: columnCounts}

	start := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}},
			{{Constraint: 1, Column: 0}},
			{{Constraint: 2, Column: 0}},
			{{Constraint: 0, Column: 1}},
			{{Constraint: 1, Column: 1}},
			{{Constraint: 2, Column: 1}},
		},
	}
	before := scorer.Score(start, g)

	refined := refine.Run(st, g, start.Clone())
	require.NotNil(t, refined)
	after := scorer.Score(refined, g)

	assert.GreaterOrEqual(t, after, before)
	assert.NotPanics(t, refined.CheckValidity)
}

func TestRunIsNoOpBelowTwoConstraints(t *testing.T) {
	st := &state.State{ColumnCounts: []int{2}}
	g := gcmgraph.Load([]int{2}, 2, nil, nil)
	start := &trace.Trace{Clusters: []trace.Cluster{{{Constraint: 0, Column: 0}}}}

	refined := refine.Run(st, g, start)
	assert.Same(t, start, refined)
}
