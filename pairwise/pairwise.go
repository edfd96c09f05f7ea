// Package pairwise implements the Needleman-Wunsch-shaped DP shared by
// the exact two-row tracer and the inter-partition re-pairing step
// inside iterative refinement. Grounded on
// original_source/src/exact_solver.rs's sw_algorithm (not
// its bitset-memoized two_case_mwt alternative) and
// original_source/src/progressive.rs's inline DP.
package pairwise

import (
	"gcm/gcmgraph"
	"gcm/state"
	"gcm/trace"
)

// Step identifies one backtracking move.
type Step int

const (
	Diagonal Step = iota
	Up
	Left
)

// Align runs the zero-floored DP over an n×m matrix and returns the
// full traceback, in forward order, from (0,0) to (n,m) — one Step per
// emitted row or column, covering every row and every column exactly
// once. weight(i, j) is the pairing score between row i and column j
// (0-based). admissible(w) gates whether a diagonal step may be taken
// at a cell whose diagonal weight is w: the exact tracer passes an
// always-true predicate and keeps only the Diagonal steps, while
// iterative refinement passes func(w float64) bool { return w > 0 }
// and keeps every step, since it can never drop a cluster from the
// trace. Tie-break is diagonal > up > left, matching the
// initialization order of the underlying recurrence's max search.
func Align(n, m int, weight func(i, j int) float64, admissible func(w float64) bool) []Step {
	s := make([][]float64, n+1)
	back := make([][]Step, n+1)
	for i := range s {
		s[i] = make([]float64, m+1)
		back[i] = make([]Step, m+1)
	}

	for i := 0; i <= n; i++ {
		for j := 0; j <= m; j++ {
			switch {
			case i == 0 && j == 0:
				// unused by traceback; left zero-valued.
			case i == 0:
				back[i][j] = Left
			case j == 0:
				back[i][j] = Up
			default:
				w := weight(i-1, j-1)
				diagOK := admissible(w)

				best := 0.0
				bestStep := Diagonal
				if !diagOK {
					bestStep = Up
				}
				if diagOK {
					if v := s[i-1][j-1] + w; v > best {
						best, bestStep = v, Diagonal
					}
				}
				if v := s[i-1][j]; v > best {
					best, bestStep = v, Up
				}
				if v := s[i][j-1]; v > best {
					best, bestStep = v, Left
				}
				s[i][j] = best
				back[i][j] = bestStep
			}
		}
	}

	steps := make([]Step, 0, n+m)
	i, j := n, m
	for i > 0 || j > 0 {
		pt := back[i][j]
		steps = append(steps, pt)
		switch pt {
		case Diagonal:
			i--
			j--
		case Up:
			i--
		case Left:
			j--
		}
	}
	for l, r := 0, len(steps)-1; l < r; l, r = l+1, r-1 {
		steps[l], steps[r] = steps[r], steps[l]
	}
	return steps
}

// Solve implements the exact two-constraint tracer: used when
// exactly two constraints are being merged. Only diagonal (matched)
// steps are emitted as clusters; unmatched rows/columns are left for
// the frame builder's singleton pass.
func Solve(st *state.State, g *gcmgraph.Graph) *trace.Trace {
	n := st.ColumnCounts[0]
	m := st.ColumnCounts[1]

	weight := func(i, j int) float64 {
		w, ok := g.WeightByPos(
			state.Pos{Constraint: 0, Column: i},
			state.Pos{Constraint: 1, Column: j},
		)
		if !ok {
			return 0
		}
		return w
	}
	always := func(float64) bool { return true }

	steps := Align(n, m, weight, always)

	var clusters []trace.Cluster
	i, j := 0, 0
	for _, step := range steps {
		switch step {
		case Diagonal:
			clusters = append(clusters, trace.Cluster{
				{Constraint: 0, Column: i},
				{Constraint: 1, Column: j},
			})
			i++
			j++
		case Up:
			i++
		case Left:
			j++
		}
	}
	return &trace.Trace{Clusters: clusters}
}
