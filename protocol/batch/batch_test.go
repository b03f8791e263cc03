package batch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerframe/txscheduler/protocol/batch"
	"github.com/ledgerframe/txscheduler/protocol/transaction"
)

func TestPairIsDefensivelyCopied(t *testing.T) {
	require := require.New(t)

	txns := []transaction.Pair{
		transaction.New(transaction.Header{}, []byte("p1"), "t1"),
	}
	b := batch.New(txns, "sig")

	txns[0] = transaction.New(transaction.Header{}, []byte("mutated"), "mutated")
	require.Equal("t1", b.Transactions()[0].HeaderSignature())
}

func TestEqual(t *testing.T) {
	require := require.New(t)

	a := batch.New(nil, "sig-A")
	b := batch.New([]transaction.Pair{transaction.New(transaction.Header{}, []byte("p"), "t1")}, "sig-A")
	c := batch.New(nil, "sig-B")

	require.True(a.Equal(b))
	require.False(a.Equal(c))
}
