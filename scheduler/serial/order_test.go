package serial

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerframe/txscheduler/contextmgr"
	"github.com/ledgerframe/txscheduler/protocol/batch"
	"github.com/ledgerframe/txscheduler/protocol/transaction"
	"github.com/ledgerframe/txscheduler/scheduler"
)

// TestNoSecondTaskBeforeAcknowledgement is a white-box check of the
// serial ordering property: with a two-transaction batch submitted, a
// second pull on the task iterator must not yield anything until the
// first task's completion has been notified.
func TestNoSecondTaskBeforeAcknowledgement(t *testing.T) {
	require := require.New(t)

	sched, err := New(contextmgr.NewInMemory(), "state-1")
	require.NoError(err)
	defer sched.Shutdown()

	txns := []transaction.Pair{
		transaction.New(transaction.Header{}, []byte("p1"), "t1"),
		transaction.New(transaction.Header{}, []byte("p2"), "t2"),
	}
	require.NoError(sched.AddBatch(batch.New(txns, "sig-order")))

	it, err := sched.TakeTaskIterator()
	require.NoError(err)
	notifier, err := sched.NewNotifier()
	require.NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	first, ok := it.Next(ctx)
	require.True(ok)
	require.Equal("t1", first.Pair().HeaderSignature())

	shortCtx, shortCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer shortCancel()
	_, ok = it.Next(shortCtx)
	require.False(ok, "second task must not be dispatched before the first is acknowledged")

	notifier.Notify(scheduler.ValidNotification(first.ContextID(), "t1"))

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	second, ok := it.Next(ctx2)
	require.True(ok)
	require.Equal("t2", second.Pair().HeaderSignature())
}
