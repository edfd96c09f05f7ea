package weave_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gcm/internal/fio"
	"gcm/weave"
)

func TestWriteInterleavesGapsFromFrame(t *testing.T) {
	dir := t.TempDir()
	c0 := filepath.Join(dir, "c0.fasta")
	c1 := filepath.Join(dir, "c1.fasta")
	out := filepath.Join(dir, "merged.fasta")

	require.NoError(t, os.WriteFile(c0, []byte(">a\nAC\n"), 0o644))
	require.NoError(t, os.WriteFile(c1, []byte(">b\nGT\n"), 0o644))

	// Constraint 0 gets one gap before its second column; constraint 1
	// gets a trailing gap after its last column.
	frames := [][]int{{0, 1, 0}, {0, 0, 1}}

	require.NoError(t, weave.Write([]string{c0, c1}, frames, out))

	var records []fio.Record
	require.NoError(t, fio.ScanFasta(out, func(r fio.Record) error {
		records = append(records, r)
		return nil
	}))
	require.Len(t, records, 2)
	require.Equal(t, "A-C", string(records[0].Seq))
	require.Equal(t, "GT-", string(records[1].Seq))
}
