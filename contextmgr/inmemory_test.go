package contextmgr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerframe/txscheduler/contextmgr"
)

func TestInMemoryLifecycle(t *testing.T) {
	require := require.New(t)

	m := contextmgr.NewInMemory()

	root := m.CreateContext(nil, "state-root")
	child := m.CreateContext([]contextmgr.ContextID{root}, "state-root")
	require.Equal(uint64(2), m.Created())

	receipt, err := m.GetTransactionReceipt(child, "txn-1")
	require.NoError(err)
	require.Equal("txn-1", receipt.TransactionID)
	require.Len(receipt.StateChanges, 1)
	require.Equal("state-root", receipt.StateChanges[0].Address)
	require.NotEmpty(receipt.StateChanges[0].Value)

	// Two contexts with different dependency sets must fingerprint
	// differently even though they share a state id.
	otherReceipt, err := m.GetTransactionReceipt(root, "txn-2")
	require.NoError(err)
	require.NotEqual(receipt.StateChanges[0].Value, otherReceipt.StateChanges[0].Value)

	m.DropContext(root)
	m.DropContext(child)
	require.Equal(uint64(2), m.Dropped())

	// Dropping an already-dropped (or never-created) context is tolerated.
	m.DropContext(root)
	require.Equal(uint64(2), m.Dropped())
}

func TestInMemoryUnknownContext(t *testing.T) {
	require := require.New(t)

	m := contextmgr.NewInMemory()
	_, err := m.GetTransactionReceipt(contextmgr.ContextID{}, "txn-1")
	require.Error(err)
}
