package external_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcm/external"
)

func TestBuildCommandSetsFixedMafftFlags(t *testing.T) {
	a := external.Default("in.fasta")
	cmd, err := a.BuildCommand()
	require.NoError(t, err)

	args := cmd.Args
	assert.Contains(t, args, "--localpair")
	assert.Contains(t, args, "--quiet")
	assert.Contains(t, args, "in.fasta")

	var sawMaxIterate, sawThread bool
	for i, a := range args {
		if a == "--maxiterate" && i+1 < len(args) {
			sawMaxIterate = args[i+1] == "1000"
		}
		if a == "--thread" && i+1 < len(args) {
			sawThread = args[i+1] == "2"
		}
	}
	assert.True(t, sawMaxIterate)
	assert.True(t, sawThread)
}
