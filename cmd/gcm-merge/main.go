// gcm-merge runs the full GCM pipeline: build state from constraint
// alignments, build the column graph from glue alignments, trace it
// (exact two-constraint DP, constrained UPGMA, or whichever auto
// picks), refine the trace, and weave the merged alignment to disk.
// Flag shape follows kortschak-loopy's per-tool package-level flag
// vars; the merge/tracer/weights wiring follows
// original_source/src/combined.rs's oneshot_merge_alignments.
package main

import (
	"flag"
	"log"

	"gcm/frame"
	"gcm/gcmgraph"
	"gcm/internal/flagutil"
	"gcm/internal/gcmerr"
	"gcm/pairwise"
	"gcm/refine"
	"gcm/state"
	"gcm/trace"
	"gcm/upgma"
	"gcm/weave"
)

var (
	inputs  flagutil.StringList
	glues   flagutil.StringList
	weights flagutil.FloatList
	tracer  = flag.String("tracer", "auto", "tracer to use: auto, upgma, or pairwise")
	output  = flag.String("output", "", "merged alignment output path (required)")
)

func main() {
	flag.Var(&inputs, "input", "constraint alignment file (repeatable)")
	flag.Var(&glues, "glues", "glue alignment file (repeatable)")
	flag.Var(&weights, "weights", "per-glue weight multiplier (repeatable, must match --glues count if given)")
	flag.Parse()

	if len(inputs) == 0 || *output == "" {
		flag.Usage()
		log.Fatalf("gcm-merge: --input (at least one) and --output are required")
	}
	if *tracer != "auto" && *tracer != "upgma" && *tracer != "pairwise" {
		log.Fatalf("gcm-merge: --tracer must be auto, upgma, or pairwise, got %q", *tracer)
	}

	st, err := state.Build(inputs)
	if err != nil {
		log.Fatalf("gcm-merge: failed to build state: %v", err)
	}
	log.Printf("constructed state from %d constraints", st.NumConstraints())

	var w []float64
	if len(weights) > 0 {
		if len(weights) != len(glues) {
			log.Fatalf("gcm-merge: %v: %d weights for %d glues", gcmerr.WeightArityMismatch, len(weights), len(glues))
		}
		w = weights
	}
	g, err := gcmgraph.Build(st, glues, w)
	if err != nil {
		log.Fatalf("gcm-merge: failed to build graph: %v", err)
	}
	log.Printf("built alignment graph: %d nodes", g.Size)

	var tr = traceWith(*tracer, st, g)
	log.Printf("traced alignment graph: %d clusters", len(tr.Clusters))

	tr = refine.Run(st, g, tr)
	log.Printf("finished iterative refinement: score %.2f", tr.Score)

	frames := frame.Build(st, tr)
	frame.Validate(st, tr)

	if err := weave.Write(inputs, frames, *output); err != nil {
		log.Fatalf("gcm-merge: failed to write merged alignment: %v", err)
	}
}

func traceWith(mode string, st *state.State, g *gcmgraph.Graph) *trace.Trace {
	switch {
	case mode == "pairwise":
		if st.NumConstraints() != 2 {
			log.Fatalf("gcm-merge: --tracer=pairwise requires exactly 2 constraints, got %d", st.NumConstraints())
		}
		log.Printf("running exact two-constraint DP")
		return pairwise.Solve(st, g)
	case mode == "upgma":
		log.Printf("running constrained UPGMA")
		return upgma.Build(st, g)
	case st.NumConstraints() == 2:
		log.Printf("running exact two-constraint DP")
		return pairwise.Solve(st, g)
	default:
		log.Printf("running constrained UPGMA")
		return upgma.Build(st, g)
	}
}
