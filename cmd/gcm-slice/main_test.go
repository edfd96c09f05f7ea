package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gcm/internal/fio"
)

func TestSamplerKeepsEverythingBelowCapacity(t *testing.T) {
	s := newSampler(0)
	for i := 0; i < 5; i++ {
		s.see(fio.Record{Name: string(rune('a' + i)), Seq: []byte("AC-GT")})
	}
	assert.Len(t, s.names, 5)
	assert.Equal(t, []byte("ACGT"), s.records[0])
}

func TestSamplerCapsAtMaxCount(t *testing.T) {
	s := newSampler(3)
	for i := 0; i < 100; i++ {
		s.see(fio.Record{Name: string(rune('a' + i%26)), Seq: []byte("AC")})
	}
	assert.Len(t, s.names, 3)
	assert.Equal(t, 100, s.i)
}

func TestDegapStripsBothGapBytes(t *testing.T) {
	assert.Equal(t, []byte("ACGT"), degap([]byte("A-C.GT")))
}
