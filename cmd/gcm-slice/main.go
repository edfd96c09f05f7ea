// gcm-slice is a thin stub for the sequence-decomposition collaborator
// (out of scope here): it keeps only the reservoir-sampling step
// original_source/src/utils.rs's SequenceSampler implements, so a
// caller can cap the size of a glue or constraint file before handing
// it to the rest of the pipeline. The tree-decomposition step the Rust
// prototype wraps it in is not implemented.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"gcm/internal/fio"
)

var (
	input    = flag.String("input", "", "unaligned FASTA input (required)")
	output   = flag.String("output", "", "sampled FASTA output (required)")
	maxCount = flag.Int("max-count", 0, "maximum number of sequences to keep (0 = keep all)")
)

func main() {
	flag.Parse()
	if *input == "" || *output == "" {
		flag.Usage()
		log.Fatalf("gcm-slice: --input and --output are required")
	}

	s := newSampler(*maxCount)
	if err := fio.ScanFasta(*input, func(rec fio.Record) error {
		s.see(rec)
		return nil
	}); err != nil {
		log.Fatalf("gcm-slice: failed to read %q: %v", *input, err)
	}
	log.Printf("sampled %d of %d sequences", len(s.names), s.i)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("gcm-slice: failed to create %q: %v", *output, err)
	}
	defer f.Close()

	fw := fio.NewWriter(f)
	if err := s.dump(fw); err != nil {
		log.Fatalf("gcm-slice: failed to write %q: %v", *output, err)
	}
	if err := fw.Flush(); err != nil {
		log.Fatalf("gcm-slice: failed to flush %q: %v", *output, err)
	}
}

// sampler is Algorithm R (reservoir sampling) over degapped sequences,
// grounded on original_source/src/utils.rs's SequenceSampler: the
// first maxCap records seen fill the reservoir, then each later record i
// replaces a uniformly-random survivor with probability maxCap/(i+1).
// maxCap == 0 means unlimited, keeping every record in order.
type sampler struct {
	rng     *rand.Rand
	names   []string
	records [][]byte
	maxCap  int
	i       int
}

func newSampler(maxCap int) *sampler {
	return &sampler{rng: rand.New(rand.NewSource(1)), maxCap: maxCap}
}

func (s *sampler) see(rec fio.Record) {
	d := degap(rec.Seq)
	switch {
	case s.maxCap == 0, s.i < s.maxCap:
		s.names = append(s.names, rec.Name)
		s.records = append(s.records, d)
	default:
		j := s.rng.Intn(s.i + 1)
		if j < s.maxCap {
			s.names[j] = rec.Name
			s.records[j] = d
		}
	}
	s.i++
}

func (s *sampler) dump(fw *fio.Writer) error {
	for i := range s.names {
		if err := fw.WriteRecord(s.names[i], s.records[i]); err != nil {
			return err
		}
	}
	return nil
}

func degap(seq []byte) []byte {
	out := make([]byte, 0, len(seq))
	for _, b := range seq {
		if !fio.IsGap(b) {
			out = append(out, b)
		}
	}
	return out
}
