// gcm-debug-score exercises the scorer in isolation: it ingests a
// previously serialized graph and a merged alignment, reconstructs the
// trace that alignment implies, and reports the cluster count, MWT-AM
// score, and the mean/variance of per-cluster weight contribution
// (how evenly the score is spread across clusters, versus
// concentrated in a few). Grounded on original_source/src/scorer.rs's
// oneshot_score_alignment.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"gcm/gcmgraph"
	"gcm/internal/flagutil"
	"gcm/scorer"
	"gcm/state"
)

var (
	inputs        flagutil.StringList
	graphPath     = flag.String("graph", "", "serialized graph file (required)")
	alignmentPath = flag.String("alignment", "", "merged alignment to score (required)")
)

type output struct {
	NumClusters           int     `json:"num_clusters"`
	MWTAM                 float64 `json:"mwt_am"`
	ClusterWeightMean     float64 `json:"cluster_weight_mean"`
	ClusterWeightVariance float64 `json:"cluster_weight_variance"`
}

func main() {
	flag.Var(&inputs, "input", "constraint alignment file (repeatable)")
	flag.Parse()

	if len(inputs) == 0 || *graphPath == "" || *alignmentPath == "" {
		flag.Usage()
		log.Fatalf("gcm-debug-score: --input, --graph, and --alignment are all required")
	}

	st, err := state.Build(inputs)
	if err != nil {
		log.Fatalf("gcm-debug-score: failed to build state: %v", err)
	}
	log.Printf("constructed state from %d constraints", st.NumConstraints())

	gf, err := os.Open(*graphPath)
	if err != nil {
		log.Fatalf("gcm-debug-score: failed to open graph file: %v", err)
	}
	g, err := gcmgraph.LoadFrom(gf, st.ColumnCounts)
	gf.Close()
	if err != nil {
		log.Fatalf("gcm-debug-score: failed to load graph: %v", err)
	}
	log.Printf("loaded graph: %d nodes", g.Size)

	tr, err := scorer.TraceFromAlignment(st, *alignmentPath)
	if err != nil {
		log.Fatalf("gcm-debug-score: failed to reconstruct trace from alignment: %v", err)
	}

	score := scorer.Score(tr, g)
	mean, variance := scorer.ClusterWeightStats(tr, g)
	out := output{
		NumClusters:           len(tr.Clusters),
		MWTAM:                 score,
		ClusterWeightMean:     mean,
		ClusterWeightVariance: variance,
	}
	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		log.Fatalf("gcm-debug-score: failed to write output: %v", err)
	}
}
