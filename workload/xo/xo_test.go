package xo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerframe/txscheduler/workload/xo"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	require := require.New(t)

	a := xo.NewGenerator([]byte("seed-1"))
	b := xo.NewGenerator([]byte("seed-1"))

	for i := 0; i < 12; i++ {
		ta, err := a.NextTransaction()
		require.NoError(err)
		tb, err := b.NextTransaction()
		require.NoError(err)
		require.Equal(ta.HeaderSignature(), tb.HeaderSignature())
		require.Equal(ta.Payload(), tb.Payload())
	}
}

func TestGeneratorDiffersByseed(t *testing.T) {
	require := require.New(t)

	a := xo.NewGenerator([]byte("seed-1"))
	b := xo.NewGenerator([]byte("seed-2"))

	ta, err := a.NextTransaction()
	require.NoError(err)
	tb, err := b.NextTransaction()
	require.NoError(err)
	require.NotEqual(ta.HeaderSignature(), tb.HeaderSignature())
}

func TestBatchGeneratorProducesFixedSize(t *testing.T) {
	require := require.New(t)

	g := xo.NewBatchGenerator([]byte("seed-1"), 4)
	b, err := g.NextBatch()
	require.NoError(err)
	require.Len(b.Transactions(), 4)

	b2, err := g.NextBatch()
	require.NoError(err)
	require.NotEqual(b.HeaderSignature(), b2.HeaderSignature())
}
