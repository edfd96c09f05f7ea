// Package fio holds the FASTA streaming helpers shared by the state
// builder, the graph builder and the output weaver. It exists because
// all three stream constraint/glue FASTA files one record at a time
// through biogo and need the same open/scan/close ceremony, the way
// kortschak-loopy's blasr package is shared plumbing used by loopy.go's
// two independent streaming passes (reads, then left/right flanks).
package fio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"gcm/internal/gcmerr"
)

// Record is a single named sequence read from a FASTA file. Gap bytes
// ('-' and '.') are preserved verbatim in Seq; callers decide what to
// do with them.
type Record struct {
	Name string
	Seq  []byte
}

// IsGap reports whether b is a gap character under the FASTA
// convention used throughout this package: '-' and '.' are gaps, any
// other byte is a residue.
func IsGap(b byte) bool {
	return b == '-' || b == '.'
}

// ScanFasta opens path and calls fn once per record in file order. It
// closes the file before returning. fn's error, if non-nil, aborts the
// scan and is returned unwrapped so that callers can attach their own
// per-record context.
func ScanFasta(path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %q: %v", gcmerr.IoFailure, path, err)
	}
	defer f.Close()

	r := fasta.NewReader(bufio.NewReader(f), linear.NewSeq("", nil, alphabet.DNA))
	sc := seqio.NewScanner(r)
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok {
			return fmt.Errorf("%w: %q: unexpected sequence type", gcmerr.MalformedFasta, path)
		}
		if err := fn(Record{Name: s.Name(), Seq: lettersToBytes(s.Seq)}); err != nil {
			return err
		}
	}
	if err := sc.Error(); err != nil {
		return fmt.Errorf("%w: %q: %v", gcmerr.MalformedFasta, path, err)
	}
	return nil
}

// Writer streams one record at a time to an underlying io.Writer,
// wrapping sequence bodies at 60 columns the way biogo's "%60a" format
// verb does. Each record's full sequence is passed in as one byte slice.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

const lineWidth = 60

// WriteRecord emits a complete FASTA record (header + 60-column wrapped
// body) for name/seq.
func (fw *Writer) WriteRecord(name string, seq []byte) error {
	if fw.err != nil {
		return fw.err
	}
	if _, err := fmt.Fprintf(fw.w, ">%s\n", name); err != nil {
		fw.err = err
		return err
	}
	for i := 0; i < len(seq); i += lineWidth {
		end := i + lineWidth
		if end > len(seq) {
			end = len(seq)
		}
		if _, err := fw.w.Write(seq[i:end]); err != nil {
			fw.err = err
			return err
		}
		if err := fw.w.WriteByte('\n'); err != nil {
			fw.err = err
			return err
		}
	}
	return nil
}

// Flush flushes buffered output.
func (fw *Writer) Flush() error {
	if fw.err != nil {
		return fw.err
	}
	return fw.w.Flush()
}

func lettersToBytes(letters alphabet.Letters) []byte {
	out := make([]byte, len(letters))
	for i, l := range letters {
		out[i] = byte(l)
	}
	return out
}
