package serial

import (
	"time"

	"github.com/ledgerframe/txscheduler/contextmgr"
	"github.com/ledgerframe/txscheduler/logging"
	"github.com/ledgerframe/txscheduler/protocol/transaction"
	"github.com/ledgerframe/txscheduler/scheduler"
)

// coreWorker is the single goroutine that owns every state transition of
// a serial scheduler instance: activating queued batches, dispatching
// one ExecutionTask at a time, ingesting completion notifications, and
// emitting BatchExecutionResults (and the terminal nil sentinel) through
// the result/error callbacks. Everything in this file runs on exactly
// one goroutine per scheduler instance; cur is therefore never guarded
// by shared's mutex.
type coreWorker struct {
	shared  *shared
	control *controlChannel
	taskCh  chan scheduler.ExecutionTask
	ctxmgr  contextmgr.ContextLifecycle
	stateID string
	logger  *logging.Logger

	cur          *currentBatch
	terminalSent bool
}

func newCoreWorker(s *shared, ctrl *controlChannel, taskCh chan scheduler.ExecutionTask, ctxmgr contextmgr.ContextLifecycle, stateID string) *coreWorker {
	return &coreWorker{
		shared:  s,
		control: ctrl,
		taskCh:  taskCh,
		ctxmgr:  ctxmgr,
		stateID: stateID,
		logger:  getPackageLogger(),
	}
}

// run is the worker's main loop. It returns once a shutdownMessage is
// processed or the control channel is closed out from under it.
func (w *coreWorker) run() {
	defer close(w.taskCh)
	for {
		msg, ok := w.control.recv()
		if !ok {
			return
		}
		switch m := msg.(type) {
		case batchAddedMessage:
			w.handleBatchAdded()
		case finalizedMessage:
			w.handleFinalized()
		case executionResultMessage:
			w.handleExecutionResult(m.notification)
		case shutdownMessage:
			return
		default:
			w.logger.Warn("dropping unrecognised control message")
		}
	}
}

// handleBatchAdded activates the oldest unscheduled batch if the active
// slot is free, and attempts to dispatch its first transaction.
func (w *coreWorker) handleBatchAdded() {
	if w.cur != nil {
		return
	}
	b, ok := w.shared.activateNext()
	if !ok {
		return
	}
	batchesActivatedCount.Inc()
	unscheduledQueueDepth.Set(float64(w.shared.queueDepth()))
	w.cur = newCurrentBatch(b)
	w.cur.activatedAt = time.Now()
	w.tryDispatchNext()
}

// handleFinalized records that no further batches will be submitted and,
// if the scheduler is already idle, emits the terminal sentinel.
func (w *coreWorker) handleFinalized() {
	w.shared.setFinalized(true)
	w.maybeSignalTerminal()
}

// maybeSignalTerminal emits the nil BatchExecutionResult exactly once,
// the instant the scheduler is both finalized and idle.
func (w *coreWorker) maybeSignalTerminal() {
	if w.terminalSent || w.cur != nil || !w.shared.isFinalized() || !w.shared.isIdle() {
		return
	}
	w.terminalSent = true
	w.shared.resultCallback(nil)
}

// tryDispatchNext dispatches the next undispatched transaction of the
// active batch, if any, onto the task channel. It is a no-op unless all
// of: a batch is active, nothing is presently dispatched, the batch
// hasn't been invalidated, and transactions remain.
func (w *coreWorker) tryDispatchNext() {
	cur := w.cur
	if cur == nil || cur.dispatchedTxnID != nil || cur.invalidated {
		return
	}
	txns := cur.batch.Transactions()
	if cur.nextIndex >= len(txns) {
		return
	}
	txn := txns[cur.nextIndex]

	var deps []scheduler.ContextID
	if cur.previousContextID != nil {
		deps = []scheduler.ContextID{*cur.previousContextID}
	}
	contextID := w.ctxmgr.CreateContext(deps, w.stateID)
	contextsCreatedCount.Inc()
	cur.createdContexts = append(cur.createdContexts, contextID)

	sig := txn.HeaderSignature()
	cur.dispatchedTxnID = &sig
	cur.dispatchedContextID = contextID
	cur.dispatchedResultSlot = cur.nextIndex
	cur.nextIndex++

	// The task channel's single buffer slot is always free here: the
	// previous occupant, if any, can only have been consumed by the
	// time a completion notification cleared dispatchedTxnID, which is
	// the sole path that leads back to this call.
	w.taskCh <- scheduler.NewExecutionTask(txn, contextID)
	tasksDispatchedCount.Inc()
}

// handleExecutionResult ingests a completion notification. Anything
// that doesn't match the single outstanding dispatched transaction is
// reported via the error callback and otherwise ignored, per the
// scheduler's tolerance contract for stray or duplicate notifications.
func (w *coreWorker) handleExecutionResult(n scheduler.ExecutionTaskCompletionNotification) {
	cur := w.cur
	if cur == nil || cur.dispatchedTxnID == nil || n.TransactionID() != *cur.dispatchedTxnID {
		unexpectedNotificationCount.Inc()
		w.shared.errorCallback(scheduler.UnexpectedNotificationError(n.TransactionID()))
		return
	}

	if n.IsValid() {
		w.handleValidCompletion(cur, n)
	} else {
		w.handleInvalidCompletion(cur, n)
	}
}

func (w *coreWorker) handleValidCompletion(cur *currentBatch, n scheduler.ExecutionTaskCompletionNotification) {
	receipt, err := w.ctxmgr.GetTransactionReceipt(cur.dispatchedContextID, n.TransactionID())
	if err != nil {
		// The context manager failed to materialise a receipt for a
		// transaction the executor itself reported as valid. There is
		// no way to recover a per-transaction result from this, so the
		// whole batch is abandoned the same way an Invalid notification
		// would abandon it, with the context error surfaced separately
		// through the error callback.
		w.shared.errorCallback(scheduler.InternalError(err))
		w.abandonBatch(cur, transaction.InvalidResult{
			TransactionID: n.TransactionID(),
			ErrorMessage:  "context manager failed to produce a receipt: " + err.Error(),
		})
		return
	}

	cur.results[cur.dispatchedResultSlot] = scheduler.ValidResult(receipt)
	cur.previousContextID = &cur.dispatchedContextID
	cur.dispatchedTxnID = nil

	if cur.nextIndex < len(cur.batch.Transactions()) {
		w.tryDispatchNext()
		return
	}
	w.completeBatch(cur, "valid")
}

func (w *coreWorker) handleInvalidCompletion(cur *currentBatch, n scheduler.ExecutionTaskCompletionNotification) {
	cur.invalidated = true
	cur.dispatchedTxnID = nil

	for i, txn := range cur.batch.Transactions() {
		if i == cur.dispatchedResultSlot {
			cur.results[i] = scheduler.InvalidResult(n.Invalid())
			continue
		}
		cur.results[i] = scheduler.InvalidResult(transaction.InvalidResult{
			TransactionID: txn.HeaderSignature(),
		})
	}
	w.completeBatch(cur, "invalid")
}

// abandonBatch fills every result slot with a uniform invalid result and
// completes the batch. Unlike handleInvalidCompletion's spec-mandated
// empty error_message for non-failing transactions, this path has no
// per-transaction fault to distinguish from the rest: every transaction
// shares the same internal-error reason, so the message is not blanked.
func (w *coreWorker) abandonBatch(cur *currentBatch, reason transaction.InvalidResult) {
	cur.invalidated = true
	cur.dispatchedTxnID = nil
	for i, txn := range cur.batch.Transactions() {
		r := reason
		r.TransactionID = txn.HeaderSignature()
		cur.results[i] = scheduler.InvalidResult(r)
	}
	w.completeBatch(cur, "internal_error")
}

// completeBatch emits the batch's result, drops every context created
// while dispatching it, clears the active slot, and either activates the
// next queued batch or signals the terminal sentinel.
func (w *coreWorker) completeBatch(cur *currentBatch, outcome string) {
	batchesCompletedCount.WithLabelValues(outcome).Inc()
	if !cur.activatedAt.IsZero() {
		batchProcessingTime.Observe(time.Since(cur.activatedAt).Seconds())
	}

	result := &scheduler.BatchExecutionResult{
		Batch:   cur.batch,
		Results: cur.results,
	}
	w.shared.resultCallback(result)

	for _, id := range cur.createdContexts {
		w.ctxmgr.DropContext(id)
		contextsDroppedCount.Inc()
	}

	w.shared.clearCurrent(cur.batch.HeaderSignature())
	w.cur = nil

	// Always try to activate a still-queued batch first, finalized or
	// not: a batch submitted before Finalize() but not yet activated
	// when this one completed has no other way to ever get picked up,
	// since AddBatch rejects everything once finalized and so no further
	// batchAddedMessage will arrive. Only once the queue is confirmed
	// empty can the terminal sentinel be considered.
	w.handleBatchAdded()
	if w.shared.isFinalized() {
		w.maybeSignalTerminal()
	}
}
