// Package weave streams a merged alignment to disk by replaying each
// constraint's FASTA file against the gap schedule frame.Build
// produced, one record at a time. Grounded on
// original_source/src/merge.rs's merge_alignments_from_frames, with
// the streaming 60-column wrap borrowed from kortschak-loopy's
// "%60a" fmt verb pattern via internal/fio.Writer.
package weave

import (
	"fmt"
	"os"

	"gcm/internal/fio"
	"gcm/internal/gcmerr"
)

// Write reads constraints[i] for every i and writes, for each record
// in file order, its sequence interleaved with dashes per
// frames[i] to out, in the order constraints are given. Every
// constraint file is expected to hold the same records in the same
// order with the same gapped width that frames[i] was built against;
// a record longer than its frame allows is reported as
// gcmerr.RaggedAlignment. Record counts and shorter records are not
// checked.
func Write(constraints []string, frames [][]int, out string) error {
	if len(constraints) != len(frames) {
		gcmerr.InternalInvariant("weave: constraint count disagrees with frame count")
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("%w: create %q: %v", gcmerr.IoFailure, out, err)
	}
	defer f.Close()

	fw := fio.NewWriter(f)
	for i, path := range constraints {
		if err := weaveOne(path, frames[i], fw); err != nil {
			return err
		}
	}
	return fw.Flush()
}

// weaveOne streams every record of path, inserting frame[col] dash
// bytes immediately before that record's col-th byte, then flushes any
// trailing gap recorded in frame's last entry.
func weaveOne(path string, frame []int, fw *fio.Writer) error {
	return fio.ScanFasta(path, func(rec fio.Record) error {
		buf := make([]byte, 0, len(rec.Seq)+sum(frame))
		for col, b := range rec.Seq {
			if col >= len(frame) {
				return fmt.Errorf("%w: %q: record %q longer than its frame", gcmerr.RaggedAlignment, path, rec.Name)
			}
			buf = appendGaps(buf, frame[col])
			buf = append(buf, b)
		}
		if len(rec.Seq) < len(frame) {
			buf = appendGaps(buf, frame[len(frame)-1])
		}
		return fw.WriteRecord(rec.Name, buf)
	})
}

func appendGaps(buf []byte, n int) []byte {
	for i := 0; i < n; i++ {
		buf = append(buf, '-')
	}
	return buf
}

func sum(xs []int) int {
	var total int
	for _, x := range xs {
		total += x
	}
	return total
}
