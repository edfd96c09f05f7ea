// gcm-debug-improve exercises iterative refinement in isolation: it
// ingests a previously serialized graph and trace, runs refine.Run
// against them, and weaves the improved trace out as a merged
// alignment, reporting the before/after score. Grounded on
// original_source/src/combined.rs's oneshot_optimize_trace.
package main

import (
	"flag"
	"log"
	"os"

	"gcm/frame"
	"gcm/gcmgraph"
	"gcm/internal/flagutil"
	"gcm/refine"
	"gcm/scorer"
	"gcm/state"
	"gcm/trace"
	"gcm/weave"
)

var (
	inputs    flagutil.StringList
	graphPath = flag.String("graph", "", "serialized graph file (required)")
	tracePath = flag.String("trace", "", "serialized trace file (required)")
	output    = flag.String("output", "", "merged alignment output path (required)")
)

func main() {
	flag.Var(&inputs, "input", "constraint alignment file (repeatable)")
	flag.Parse()

	if len(inputs) == 0 || *graphPath == "" || *tracePath == "" || *output == "" {
		flag.Usage()
		log.Fatalf("gcm-debug-improve: --input, --graph, --trace, and --output are all required")
	}

	st, err := state.Build(inputs)
	if err != nil {
		log.Fatalf("gcm-debug-improve: failed to build state: %v", err)
	}
	log.Printf("constructed state from %d constraints", st.NumConstraints())

	gf, err := os.Open(*graphPath)
	if err != nil {
		log.Fatalf("gcm-debug-improve: failed to open graph file: %v", err)
	}
	g, err := gcmgraph.LoadFrom(gf, st.ColumnCounts)
	gf.Close()
	if err != nil {
		log.Fatalf("gcm-debug-improve: failed to load graph: %v", err)
	}
	log.Printf("loaded graph: %d nodes", g.Size)

	tf, err := os.Open(*tracePath)
	if err != nil {
		log.Fatalf("gcm-debug-improve: failed to open trace file: %v", err)
	}
	tr, err := trace.Load(tf, g)
	tf.Close()
	if err != nil {
		log.Fatalf("gcm-debug-improve: failed to load trace: %v", err)
	}

	before := scorer.Score(tr, g)
	tr = refine.Run(st, g, tr)
	after := scorer.Score(tr, g)
	log.Printf("optimized trace: %.2f -> %.2f (%.2f%% increase)", before, after, (after-before)/before*100)

	frames := frame.Build(st, tr)
	frame.Validate(st, tr)

	if err := weave.Write(inputs, frames, *output); err != nil {
		log.Fatalf("gcm-debug-improve: failed to write merged alignment: %v", err)
	}
}
