// Package refine implements the iterative refinement loop:
// repeatedly bipartition a trace by constraint-index subset,
// rebuild the inter-partition weight matrix, and re-run the shared
// pairwise DP to merge it back, keeping only strict improvements.
// Concurrency model grounded on
// IrdiZ-pgfp/align/parallel_smith_waterman.go (mutex-guarded shared
// state, sync.WaitGroup fan-out); the split/rebuild algorithm grounded
// on original_source/src/progressive.rs's iterative_refinement and
// iterative_refinement_step.
package refine

import (
	"math/rand"
	"sync"

	"gcm/gcmgraph"
	"gcm/pairwise"
	"gcm/scorer"
	"gcm/state"
	"gcm/trace"
)

const (
	slotCount        = 2
	workersPerSlot   = 8
	epochsPerWorker  = 100
	randomStepsPerEpoch = 50
	frustrationLimit = 3
)

// Run performs the full two-slot/eight-worker-per-slot refinement
// schedule over start and returns the higher-scoring slot's result,
// with every cluster's entries sorted by constraint ID.
func Run(st *state.State, g *gcmgraph.Graph, start *trace.Trace) *trace.Trace {
	k := st.NumConstraints()
	if k < 2 {
		return start
	}

	start.Score = scorer.Score(start, g)

	slots := make([]*slot, slotCount)
	for i := range slots {
		slots[i] = &slot{trace: start.Clone()}
	}

	var wg sync.WaitGroup
	for gi, sl := range slots {
		for wi := 0; wi < workersPerSlot; wi++ {
			wg.Add(1)
			seed := int64(gi*workersPerSlot+wi) + 1
			go func(sl *slot, seed int64) {
				defer wg.Done()
				worker(st, g, sl, k, rand.New(rand.NewSource(seed)))
			}(sl, seed)
		}
	}
	wg.Wait()

	best := slots[0]
	for _, sl := range slots[1:] {
		sl.mu.Lock()
		if sl.trace.Score > best.trace.Score {
			best = sl
		}
		sl.mu.Unlock()
	}
	best.mu.Lock()
	defer best.mu.Unlock()
	best.trace.SortClusterColumns()
	return best.trace
}

type slot struct {
	mu    sync.Mutex
	trace *trace.Trace
}

func worker(st *state.State, g *gcmgraph.Graph, sl *slot, k int, rng *rand.Rand) {
	frustration := -1
	part := make([]bool, k)

	for epoch := 0; epoch < epochsPerWorker; epoch++ {
		sl.mu.Lock()
		local := sl.trace.Clone()
		sl.mu.Unlock()

		if frustration == frustrationLimit || frustration == -1 {
			passes := 2
			if frustration == frustrationLimit {
				passes = 1
			}
			for p := 0; p < passes; p++ {
				order := rng.Perm(k)
				for _, c := range order {
					clearPartition(part)
					part[c] = true
					tryStep(st, g, local, part)
				}
			}
		} else {
			for i := 0; i < randomStepsPerEpoch; i++ {
				clearPartition(part)
				randomPartition(rng, k, part)
				tryStep(st, g, local, part)
			}
		}

		sl.mu.Lock()
		if local.Score > sl.trace.Score {
			sl.trace = local
			frustration = 0
		} else {
			frustration++
		}
		sl.mu.Unlock()
	}
}

func clearPartition(part []bool) {
	for i := range part {
		part[i] = false
	}
}

// randomPartition chooses a size p in [1, k-1] uniformly, then a
// uniform p-subset of constraint indices, mirroring
// progressive.rs's random_partition.
func randomPartition(rng *rand.Rand, k int, part []bool) {
	if k < 2 {
		return
	}
	p := 1 + rng.Intn(k-1)
	idx := rng.Perm(k)[:p]
	for _, i := range idx {
		part[i] = true
	}
}

// tryStep splits local's trace by part, re-merges it via the shared
// pairwise DP, and keeps the result only if it strictly improves the
// score.
func tryStep(st *state.State, g *gcmgraph.Graph, local *trace.Trace, part []bool) {
	candidate := step(g, local, part)
	candidate.Score = scorer.Score(candidate, g)
	if candidate.Score > local.Score {
		*local = *candidate
	}
}

// step partitions the trace's clusters into
// two ordered sequences by constraint-side membership, builds the
// dense inter-partition weight matrix, run the shared DP with the
// diagonal-admissibility guard confined to this call site (never the
// exact tracer), and rebuild the trace from the traceback.
func step(g *gcmgraph.Graph, t *trace.Trace, part []bool) *trace.Trace {
	var c1, c2 []trace.Cluster
	pos2cid := make(map[state.Pos]int)

	for _, cluster := range t.Clusters {
		var buf1, buf2 trace.Cluster
		for _, p := range cluster {
			if part[p.Constraint] {
				buf1 = append(buf1, p)
				pos2cid[p] = len(c1)
			} else {
				buf2 = append(buf2, p)
				pos2cid[p] = len(c2)
			}
		}
		if len(buf1) > 0 {
			c1 = append(c1, buf1)
		}
		if len(buf2) > 0 {
			c2 = append(c2, buf2)
		}
	}

	n, m := len(c1), len(c2)
	sims := make([][]float64, n)
	for i := range sims {
		sims[i] = make([]float64, m)
	}

	for _, e := range g.AllEdges() {
		p1, p2 := g.NodePos[e.U], g.NodePos[e.V]
		if part[p1.Constraint] == part[p2.Constraint] {
			continue
		}
		a, b := p1, p2
		if !part[a.Constraint] {
			a, b = b, a
		}
		i, ok1 := pos2cid[a]
		j, ok2 := pos2cid[b]
		if !ok1 || !ok2 {
			continue
		}
		sims[i][j] += e.W
	}

	weight := func(i, j int) float64 { return sims[i][j] }
	admissible := func(w float64) bool { return w > 0 }
	steps := pairwise.Align(n, m, weight, admissible)

	clusters := make([]trace.Cluster, 0, len(steps))
	i, j := 0, 0
	for _, s := range steps {
		switch s {
		case pairwise.Diagonal:
			merged := append(trace.Cluster{}, c1[i]...)
			merged = append(merged, c2[j]...)
			clusters = append(clusters, merged)
			i++
			j++
		case pairwise.Up:
			clusters = append(clusters, c1[i])
			i++
		case pairwise.Left:
			clusters = append(clusters, c2[j])
			j++
		}
	}

	return &trace.Trace{Clusters: clusters}
}
