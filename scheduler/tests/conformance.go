// Package tests is a collection of scheduler implementation test cases,
// shared across every scheduler variant (serial, and in time parallel
// and multi) so that each only needs to plug in its own constructor.
package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerframe/txscheduler/contextmgr"
	"github.com/ledgerframe/txscheduler/protocol/batch"
	"github.com/ledgerframe/txscheduler/protocol/transaction"
	"github.com/ledgerframe/txscheduler/scheduler"
)

const recvTimeout = 5 * time.Second

// Constructor matches the shape every scheduler variant's New function is
// expected to share: a ContextLifecycle collaborator and a state tree id.
type Constructor func(ctxLifecycle contextmgr.ContextLifecycle, stateID string) (scheduler.Scheduler, error)

// shutdownable is implemented by every variant's facade; it is not part
// of the scheduler.Scheduler contract because not all hypothetical
// executor-side consumers need to shut a scheduler down.
type shutdownable interface {
	Shutdown()
}

func newTxn(t *testing.T, sig string) transaction.Pair {
	t.Helper()
	return transaction.New(transaction.Header{FamilyName: "test"}, []byte("payload:"+sig), sig)
}

func pullTask(t *testing.T, it *scheduler.TaskIterator) (scheduler.ExecutionTask, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), recvTimeout)
	defer cancel()
	return it.Next(ctx)
}

// SchedulerImplementationTests exercises every testable property named
// for the scheduler contract against a concrete variant built by newFn.
// It is not itself a *testing.T test function; call it from one.
func SchedulerImplementationTests(t *testing.T, newFn Constructor) {
	t.Run("DuplicateSubmission", func(t *testing.T) { testDuplicateSubmission(t, newFn) })
	t.Run("CancelDrain", func(t *testing.T) { testCancelDrain(t, newFn) })
	t.Run("FinalizeTerminal", func(t *testing.T) { testFinalizeTerminal(t, newFn) })
	t.Run("SingleTransactionInvalidFlow", func(t *testing.T) { testSingleTransactionInvalidFlow(t, newFn) })
	t.Run("ThreeTransactionValidFlow", func(t *testing.T) { testThreeTransactionValidFlow(t, newFn) })
	t.Run("UnexpectedNotification", func(t *testing.T) { testUnexpectedNotification(t, newFn) })
	t.Run("SingleIterator", func(t *testing.T) { testSingleIterator(t, newFn) })
	t.Run("ContextLifecycleBalance", func(t *testing.T) { testContextLifecycleBalance(t, newFn) })
}

// testDuplicateSubmission is concrete end-to-end scenario 1: submitting
// the same batch signature twice yields DuplicateBatch on the second
// call.
func testDuplicateSubmission(t *testing.T, newFn Constructor) {
	require := require.New(t)
	sched, err := newFn(contextmgr.NewInMemory(), "state-1")
	require.NoError(err)
	defer sched.(shutdownable).Shutdown()

	b := batch.New([]transaction.Pair{newTxn(t, "t1")}, "sig-A")

	require.NoError(sched.AddBatch(b))

	err = sched.AddBatch(b)
	require.Error(err)
	var schedErr *scheduler.Error
	require.ErrorAs(err, &schedErr)
	require.Equal(scheduler.ErrCodeDuplicateBatch, schedErr.Code)
	require.Equal("sig-A", schedErr.BatchID)
}

// testCancelDrain is concrete end-to-end scenario 2.
func testCancelDrain(t *testing.T, newFn Constructor) {
	require := require.New(t)
	sched, err := newFn(contextmgr.NewInMemory(), "state-1")
	require.NoError(err)
	defer sched.(shutdownable).Shutdown()

	b1 := batch.New([]transaction.Pair{newTxn(t, "t1")}, "sig-B1")
	b2 := batch.New([]transaction.Pair{newTxn(t, "t2")}, "sig-B2")
	require.NoError(sched.AddBatch(b1))
	require.NoError(sched.AddBatch(b2))

	drained, err := sched.Cancel()
	require.NoError(err)
	require.Len(drained, 2)
	signatures := map[string]bool{}
	for _, b := range drained {
		signatures[b.HeaderSignature()] = true
	}
	require.True(signatures["sig-B1"])
	require.True(signatures["sig-B2"])

	drained, err = sched.Cancel()
	require.NoError(err)
	require.Empty(drained)
}

// testFinalizeTerminal is concrete end-to-end scenario 3, and also
// verifies the Terminal sentinel and Finalize rejection properties.
func testFinalizeTerminal(t *testing.T, newFn Constructor) {
	require := require.New(t)
	sched, err := newFn(contextmgr.NewInMemory(), "state-1")
	require.NoError(err)
	defer sched.(shutdownable).Shutdown()

	var mu sync.Mutex
	var sentinelCount int
	done := make(chan struct{})
	require.NoError(sched.SetResultCallback(func(result *scheduler.BatchExecutionResult) {
		mu.Lock()
		defer mu.Unlock()
		require.Nil(result)
		sentinelCount++
		close(done)
	}))

	require.NoError(sched.Finalize())

	select {
	case <-done:
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for terminal sentinel")
	}

	mu.Lock()
	require.Equal(1, sentinelCount)
	mu.Unlock()

	b := batch.New([]transaction.Pair{newTxn(t, "t1")}, "sig-late")
	err = sched.AddBatch(b)
	require.Error(err)
	var schedErr *scheduler.Error
	require.ErrorAs(err, &schedErr)
	require.Equal(scheduler.ErrCodeSchedulerFinalized, schedErr.Code)
}

// testSingleTransactionInvalidFlow is concrete end-to-end scenario 4, and
// verifies the Batch atomicity property for N=1.
func testSingleTransactionInvalidFlow(t *testing.T, newFn Constructor) {
	require := require.New(t)
	sched, err := newFn(contextmgr.NewInMemory(), "state-1")
	require.NoError(err)
	defer sched.(shutdownable).Shutdown()

	results := make(chan *scheduler.BatchExecutionResult, 1)
	require.NoError(sched.SetResultCallback(func(result *scheduler.BatchExecutionResult) {
		if result != nil {
			results <- result
		}
	}))

	b := batch.New([]transaction.Pair{newTxn(t, "t1")}, "sig-C")
	require.NoError(sched.AddBatch(b))

	it, err := sched.TakeTaskIterator()
	require.NoError(err)
	notifier, err := sched.NewNotifier()
	require.NoError(err)

	task, ok := pullTask(t, it)
	require.True(ok)
	require.Equal("t1", task.Pair().HeaderSignature())

	notifier.Notify(scheduler.InvalidNotification(task.ContextID(), transaction.InvalidResult{
		TransactionID: "t1",
		ErrorMessage:  "",
		ErrorData:     []byte{},
	}))

	select {
	case result := <-results:
		require.True(b.Equal(result.Batch))
		require.Len(result.Results, 1)
		require.False(result.Results[0].IsValid())
		require.Equal("t1", result.Results[0].Invalid().TransactionID)
		require.Equal("", result.Results[0].Invalid().ErrorMessage)
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for batch result")
	}
}

// testThreeTransactionValidFlow is concrete end-to-end scenario 5, and
// verifies Order within batch.
func testThreeTransactionValidFlow(t *testing.T, newFn Constructor) {
	require := require.New(t)
	ctxMgr := contextmgr.NewInMemory()
	sched, err := newFn(ctxMgr, "state-1")
	require.NoError(err)
	defer sched.(shutdownable).Shutdown()

	results := make(chan *scheduler.BatchExecutionResult, 1)
	require.NoError(sched.SetResultCallback(func(result *scheduler.BatchExecutionResult) {
		if result != nil {
			results <- result
		}
	}))

	txns := []transaction.Pair{newTxn(t, "t1"), newTxn(t, "t2"), newTxn(t, "t3")}
	b := batch.New(txns, "sig-D")
	require.NoError(sched.AddBatch(b))

	it, err := sched.TakeTaskIterator()
	require.NoError(err)
	notifier, err := sched.NewNotifier()
	require.NoError(err)

	var seen []string
	for i := 0; i < 3; i++ {
		task, ok := pullTask(t, it)
		require.True(ok)
		seen = append(seen, task.Pair().HeaderSignature())
		notifier.Notify(scheduler.ValidNotification(task.ContextID(), task.Pair().HeaderSignature()))
	}
	require.Equal([]string{"t1", "t2", "t3"}, seen)

	select {
	case result := <-results:
		require.Len(result.Results, 3)
		var ids []string
		for _, r := range result.Results {
			require.True(r.IsValid())
			ids = append(ids, r.Receipt().TransactionID)
		}
		require.ElementsMatch([]string{"t1", "t2", "t3"}, ids)
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for batch result")
	}
}

// testUnexpectedNotification is concrete end-to-end scenario 6.
func testUnexpectedNotification(t *testing.T, newFn Constructor) {
	require := require.New(t)
	sched, err := newFn(contextmgr.NewInMemory(), "state-1")
	require.NoError(err)
	defer sched.(shutdownable).Shutdown()

	errs := make(chan *scheduler.Error, 1)
	require.NoError(sched.SetErrorCallback(func(err *scheduler.Error) {
		errs <- err
	}))

	notifier, err := sched.NewNotifier()
	require.NoError(err)
	notifier.Notify(scheduler.ValidNotification(uuid.New(), "ghost"))

	select {
	case err := <-errs:
		require.Equal(scheduler.ErrCodeUnexpectedNotification, err.Code)
		require.Equal("ghost", err.TxnID)
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for error callback")
	}
}

func testSingleIterator(t *testing.T, newFn Constructor) {
	require := require.New(t)
	sched, err := newFn(contextmgr.NewInMemory(), "state-1")
	require.NoError(err)
	defer sched.(shutdownable).Shutdown()

	_, err = sched.TakeTaskIterator()
	require.NoError(err)

	_, err = sched.TakeTaskIterator()
	require.Error(err)
	var schedErr *scheduler.Error
	require.ErrorAs(err, &schedErr)
	require.Equal(scheduler.ErrCodeNoTaskIterator, schedErr.Code)
}

// testContextLifecycleBalance verifies every context created over a
// batch's lifetime is dropped exactly once by the time the scheduler has
// shut down after delivering the batch's result.
func testContextLifecycleBalance(t *testing.T, newFn Constructor) {
	require := require.New(t)
	ctxMgr := contextmgr.NewInMemory()
	sched, err := newFn(ctxMgr, "state-1")
	require.NoError(err)

	results := make(chan *scheduler.BatchExecutionResult, 1)
	require.NoError(sched.SetResultCallback(func(result *scheduler.BatchExecutionResult) {
		if result != nil {
			results <- result
		}
	}))

	txns := []transaction.Pair{newTxn(t, "t1"), newTxn(t, "t2")}
	b := batch.New(txns, "sig-E")
	require.NoError(sched.AddBatch(b))

	it, err := sched.TakeTaskIterator()
	require.NoError(err)
	notifier, err := sched.NewNotifier()
	require.NoError(err)

	for i := 0; i < 2; i++ {
		task, ok := pullTask(t, it)
		require.True(ok)
		notifier.Notify(scheduler.ValidNotification(task.ContextID(), task.Pair().HeaderSignature()))
	}

	select {
	case <-results:
	case <-time.After(recvTimeout):
		t.Fatal("timed out waiting for batch result")
	}

	sched.(shutdownable).Shutdown()

	require.Equal(uint64(2), ctxMgr.Created())
	require.Equal(uint64(2), ctxMgr.Dropped())
}
