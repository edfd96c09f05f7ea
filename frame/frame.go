// Package frame builds, per constraint, the gap schedule the output
// weaver needs to interleave a trace's clusters into one merged
// alignment: how many dash columns to insert immediately before each
// of that constraint's own columns. Grounded on
// original_source/src/merge.rs's build_frames.
package frame

import (
	"fmt"

	"github.com/biogo/store/interval"

	"gcm/internal/gcmerr"
	"gcm/state"
	"gcm/trace"
)

// Build walks tr's clusters in order and returns one gap schedule per
// constraint. Schedule[c] has length st.ColumnCounts[c]+1: entry i
// counts the dash columns to insert before writing constraint c's i-th
// column (for i < ColumnCounts[c]), and the final entry covers any
// trailing gap after the constraint's last column. Columns that no
// cluster ever touches are materialized as their own singleton
// entries, each contributing one extra dash to every other
// constraint's running schedule.
func Build(st *state.State, tr *trace.Trace) [][]int {
	k := st.NumConstraints()
	lastFrontier := make([]int, k)
	frames := make([][]int, k)
	for i := range frames {
		lastFrontier[i] = -1
		frames[i] = []int{0}
	}

	for _, cluster := range tr.Clusters {
		sorted := append(trace.Cluster(nil), cluster...)
		sortByConstraint(sorted)

		c := 0
		for _, e := range sorted {
			for c < e.Constraint && c < k {
				frames[c][len(frames[c])-1]++
				c++
			}
			if c >= k {
				break
			}
			if e.Column <= lastFrontier[c] {
				gcmerr.InternalInvariant(fmt.Sprintf("constraint %d column %d is not past last frontier %d", c, e.Column, lastFrontier[c]))
			}
			fillSingletons(frames, k, c, lastFrontier[c], e.Column)
			lastFrontier[c] = e.Column
			frames[c] = append(frames[c], 0)
			c++
		}
		// Every constraint the cluster didn't touch still gets this
		// merged column as a gap, including those indexed past the
		// cluster's highest-constraint entry.
		for c < k {
			frames[c][len(frames[c])-1]++
			c++
		}
	}

	for c := 0; c < k; c++ {
		fillSingletons(frames, k, c, lastFrontier[c], st.ColumnCounts[c])
	}
	return frames
}

// fillSingletons materializes any columns of constraint c strictly
// between lastSeen and upTo (exclusive) that no cluster touched: each
// gets its own frame entry on c, and pads every other constraint's
// current trailing gap count by the same number of columns.
func fillSingletons(frames [][]int, k, c, lastSeen, upTo int) {
	if lastSeen >= upTo-1 {
		return
	}
	n := upTo - lastSeen - 1
	for j := 0; j < k; j++ {
		if j == c {
			for i := 0; i < n; i++ {
				frames[c] = append(frames[c], 0)
			}
		} else {
			frames[j][len(frames[j])-1] += n
		}
	}
}

func sortByConstraint(c trace.Cluster) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j-1].Constraint > c[j].Constraint; j-- {
			c[j-1], c[j] = c[j], c[j-1]
		}
	}
}

type colInterval struct {
	id         uintptr
	start, end int
}

func (c colInterval) ID() uintptr { return c.id }
func (c colInterval) Range() interval.IntRange {
	return interval.IntRange{Start: c.start, End: c.end}
}
func (c colInterval) Overlap(b interval.IntRange) bool {
	return c.end > b.Start && c.start < b.End
}

// Validate re-derives, for each constraint, the single-column
// intervals touched by successive clusters and confirms via an
// interval tree that they are pairwise disjoint and appear in strictly
// increasing column order — a third-party-backed strengthening of the
// distinctness/ordering invariants trace.CheckValidity already
// enforces combinatorially. It also recomputes each constraint's frame
// schedule and checks that sum(frame[c])+ColumnCounts[c] is the same
// for every constraint, so a builder bug that under- or over-counts
// one constraint's gaps is caught here rather than surfacing later as
// a ragged merged alignment. Panics via gcmerr.InternalInvariant on
// violation. Grounded on cmd/rinse/rinse.go and
// cmd/press-global/press_global.go's use of
// github.com/biogo/store/interval for overlap queries.
func Validate(st *state.State, tr *trace.Trace) {
	k := st.NumConstraints()
	trees := make([]*interval.IntTree, k)
	lastCol := make([]int, k)
	for i := range trees {
		trees[i] = &interval.IntTree{}
		lastCol[i] = -1
	}

	var nextID uintptr
	for _, cluster := range tr.Clusters {
		for _, p := range cluster {
			if p.Column <= lastCol[p.Constraint] {
				gcmerr.InternalInvariant(fmt.Sprintf("constraint %d column %d out of cluster order", p.Constraint, p.Column))
			}
			lastCol[p.Constraint] = p.Column
			trees[p.Constraint].Insert(colInterval{id: nextID, start: p.Column, end: p.Column + 1}, true)
			nextID++
		}
	}
	for _, t := range trees {
		t.AdjustRanges()
	}
	for _, cluster := range tr.Clusters {
		for _, p := range cluster {
			hits := trees[p.Constraint].Get(colInterval{start: p.Column, end: p.Column + 1})
			if len(hits) != 1 {
				gcmerr.InternalInvariant(fmt.Sprintf("constraint %d column %d overlaps %d other cluster columns", p.Constraint, p.Column, len(hits)-1))
			}
		}
	}

	frames := Build(st, tr)
	width := -1
	for c, f := range frames {
		w := sum(f) + st.ColumnCounts[c]
		if width == -1 {
			width = w
		} else if w != width {
			gcmerr.InternalInvariant(fmt.Sprintf("constraint %d frame width %d disagrees with %d", c, w, width))
		}
	}
}

func sum(xs []int) int {
	var total int
	for _, x := range xs {
		total += x
	}
	return total
}
