package frame_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gcm/frame"
	"gcm/state"
	"gcm/trace"
)

func TestBuildProducesOneEntryPerColumnPlusOne(t *testing.T) {
	st := &state.State{ColumnCounts: []int{3, 3}}
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}},
			{{Constraint: 0, Column: 2}, {Constraint: 1, Column: 2}},
		},
	}

	frames := frame.Build(st, tr)
	assert.Len(t, frames, 2)
	assert.Equal(t, 4, len(frames[0]))
	assert.Equal(t, 4, len(frames[1]))
}

func TestBuildMaterializesSingletonsWithCrossConstraintPadding(t *testing.T) {
	st := &state.State{ColumnCounts: []int{2, 1}}
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 1}, {Constraint: 1, Column: 0}},
		},
	}

	frames := frame.Build(st, tr)
	// Constraint 0's column 0 is a singleton never touched by any
	// cluster; constraint 1 has no columns left over, but must absorb
	// one gap to line up with constraint 0's singleton.
	assert.Equal(t, 1, frames[1][0])
}

func TestBuildPadsConstraintsAboveClusterMaxConstraint(t *testing.T) {
	// Constraint 2 is never mentioned by the one cluster below, and its
	// index is higher than any constraint the cluster does touch, so
	// the catch-up loop at the end of each cluster's processing (not
	// just the loop that runs while walking a cluster's own sorted
	// entries) is what has to give it a gap for that merged column.
	st := &state.State{ColumnCounts: []int{1, 1, 1}}
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}},
		},
	}

	frames := frame.Build(st, tr)
	width := func(c int) int {
		total := st.ColumnCounts[c]
		for _, n := range frames[c] {
			total += n
		}
		return total
	}
	assert.Equal(t, width(0), width(1))
	assert.Equal(t, width(0), width(2))
	assert.NotPanics(t, func() { frame.Validate(st, tr) })
}

func TestValidateAcceptsOrderedClusters(t *testing.T) {
	st := &state.State{ColumnCounts: []int{2, 2}}
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 0}, {Constraint: 1, Column: 0}},
			{{Constraint: 0, Column: 1}, {Constraint: 1, Column: 1}},
		},
	}
	assert.NotPanics(t, func() { frame.Validate(st, tr) })
}

func TestValidateRejectsOutOfOrderColumns(t *testing.T) {
	st := &state.State{ColumnCounts: []int{2, 2}}
	tr := &trace.Trace{
		Clusters: []trace.Cluster{
			{{Constraint: 0, Column: 1}},
			{{Constraint: 0, Column: 0}},
		},
	}
	assert.Panics(t, func() { frame.Validate(st, tr) })
}
