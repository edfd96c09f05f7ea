package trace_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcm/gcmgraph"
	"gcm/state"
	"gcm/trace"
)

func TestCheckValidityAcceptsOrderedClusters(t *testing.T) {
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}},
			{{Constraint: 0, Column: 1}, {Constraint: 1, Column: 2}},
			{{Constraint: 0, Column: 2}},
		},
	}
	assert.NotPanics(t, tr.CheckValidity)
}

func TestCheckValidityRejectsCrossedClusters(t *testing.T) {
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 1}, {Constraint: 1, Column: 0}},
			{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 1}},
		},
	}
	assert.Panics(t, tr.CheckValidity)
}

func TestCheckValidityRejectsRepeatedConstraint(t *testing.T) {
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}, {Constraint: 0, Column: 1}},
		},
	}
	assert.Panics(t, tr.CheckValidity)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := &state.State{ColumnCounts: []int{2, 2}}
	g, err := gcmgraph.Build(st, nil, nil)
	require.NoError(t, err)

	original := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}},
			{{Constraint: 0, Column: 1}, {Constraint: 1, Column: 1}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, original.Save(&buf, g))

	loaded, err := trace.Load(&buf, g)
	require.NoError(t, err)
	assert.Equal(t, original.Clusters, loaded.Clusters)
}

func TestCloneIsIndependent(t *testing.T) {
	original := &trace.Trace{
		Clusters: []trace.Cluster{{{Constraint: 0, Column: 0}}},
		Score:    3,
	}
	clone := original.Clone()
	clone.Clusters[0][0].Column = 9
	clone.Score = 99

	assert.Equal(t, 0, original.Clusters[0][0].Column)
	assert.Equal(t, float64(3), original.Score)
}

func TestSortClusterColumns(t *testing.T) {
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 2, Column: 0}, {Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}},
		},
	}
	tr.SortClusterColumns()
	want := trace.Cluster{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}, {Constraint: 2, Column: 0}}
	assert.Equal(t, want, tr.Clusters[0])
}
