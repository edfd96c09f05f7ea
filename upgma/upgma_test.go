package upgma_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcm/gcmgraph"
	"gcm/state"
	"gcm/upgma"
)

func TestBuildMergesStrongestCompatiblePairsInOrder(t *testing.T) {
	// Two constraints of two columns each: node ids 0,1 (constraint 0)
	// and 2,3 (constraint 1). Column 0 of each constraint aligns
	// strongly, as does column 1; the cross pairing (0,3)/(1,2) is
	// weaker and incompatible with ordering if chosen alongside the
	// other two.
	columnCounts := []int{2, 2}
	labels := []int{0, 1, 2, 3}
	edges := []gcmgraph.Edge{
		{U: 0, V: 2, W: 10},
		{U: 1, V: 3, W: 10},
		{U: 0, V: 3, W: 1},
	}
	g := gcmgraph.Load(columnCounts, 4, labels, edges)

	st := &state.State{ColumnCounts: columnCounts}
	tr := upgma.Build(st, g)

	require.NotEmpty(t, tr.Clusters)
	assert.NotPanics(t, tr.CheckValidity)

	// The two strong, order-consistent pairs should have merged: one
	// cluster pairing column 0 of both constraints, another pairing
	// column 1 of both.
	pairedColumns := map[int]bool{}
	for _, c := range tr.Clusters {
		if len(c) == 2 && c[0].Column == c[1].Column {
			pairedColumns[c[0].Column] = true
		}
	}
	assert.True(t, pairedColumns[0])
	assert.True(t, pairedColumns[1])
}

func TestBuildOnSingleConstraintGraphProducesNoMultiMemberClusters(t *testing.T) {
	columnCounts := []int{3}
	g := gcmgraph.Load(columnCounts, 3, nil, nil)
	st := &state.State{ColumnCounts: columnCounts}

	tr := upgma.Build(st, g)
	assert.Empty(t, tr.Clusters)
}

func TestBuildOnEmptyGraph(t *testing.T) {
	st := &state.State{ColumnCounts: nil}
	g := gcmgraph.Load(nil, 0, nil, nil)

	tr := upgma.Build(st, g)
	assert.Empty(t, tr.Clusters)
}
