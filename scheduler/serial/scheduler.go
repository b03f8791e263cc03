// Package serial implements the single-active-transaction scheduler
// variant: at most one transaction is ever in flight, dispatched to the
// sole TaskIterator consumer, before the next is considered.
package serial

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/ledgerframe/txscheduler/contextmgr"
	"github.com/ledgerframe/txscheduler/logging"
	"github.com/ledgerframe/txscheduler/protocol/batch"
	"github.com/ledgerframe/txscheduler/scheduler"
)

// SerialScheduler is the public facade: submit/cancel/finalize/iterator/
// notifier, with input validation and error translation, fronting a
// single core worker goroutine that owns all state transitions.
type SerialScheduler struct {
	shared  *shared
	control *controlChannel
	taskCh  chan scheduler.ExecutionTask
	logger  *logging.Logger

	iteratorTaken atomic.Bool
	wg            sync.WaitGroup
}

// New builds a SerialScheduler. ctxLifecycle manages the per-transaction
// state-isolation contexts the core creates and drops; stateID names the
// state tree transactions in this scheduler's batches apply against.
func New(ctxLifecycle contextmgr.ContextLifecycle, stateID string) (*SerialScheduler, error) {
	var result *multierror.Error
	if ctxLifecycle == nil {
		result = multierror.Append(result, errors.New("serial scheduler: context lifecycle must not be nil"))
	}
	if stateID == "" {
		result = multierror.Append(result, errors.New("serial scheduler: state id must not be empty"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	registerMetrics()

	sch := &SerialScheduler{
		shared:  newShared(),
		control: newControlChannel(),
		// Buffered by exactly one: at most one ExecutionTask is ever
		// outstanding in the serial variant, so a single slot suffices
		// and the core worker's dispatch send never blocks (see
		// tryDispatchNext in core.go).
		taskCh: make(chan scheduler.ExecutionTask, 1),
		logger: logging.GetLogger("scheduler/serial"),
	}

	core := newCoreWorker(sch.shared, sch.control, sch.taskCh, ctxLifecycle, stateID)
	sch.wg.Add(1)
	go func() {
		defer sch.wg.Done()
		core.run()
	}()

	sch.logger.Debug("serial scheduler started", "state_id", stateID)
	return sch, nil
}

// SetResultCallback implements scheduler.Scheduler.
func (sch *SerialScheduler) SetResultCallback(cb scheduler.ResultCallback) error {
	if cb == nil {
		return scheduler.InternalError(errors.New("result callback must not be nil"))
	}
	sch.shared.setResultCallback(cb)
	return nil
}

// SetErrorCallback implements scheduler.Scheduler.
func (sch *SerialScheduler) SetErrorCallback(cb scheduler.ErrorCallback) error {
	if cb == nil {
		return scheduler.InternalError(errors.New("error callback must not be nil"))
	}
	sch.shared.setErrorCallback(cb)
	return nil
}

// AddBatch implements scheduler.Scheduler.
func (sch *SerialScheduler) AddBatch(b batch.Pair) error {
	if sch.shared.isFinalized() {
		return scheduler.SchedulerFinalizedError()
	}
	if !sch.shared.addIfNotQueued(b) {
		return scheduler.DuplicateBatchError(b.HeaderSignature())
	}
	sch.control.send(batchAddedMessage{})
	return nil
}

// Cancel implements scheduler.Scheduler.
func (sch *SerialScheduler) Cancel() ([]batch.Pair, error) {
	return sch.shared.drainUnscheduledBatches(), nil
}

// Finalize implements scheduler.Scheduler. It is idempotent: calling it
// more than once, or after the scheduler has already gone idle, is safe.
func (sch *SerialScheduler) Finalize() error {
	sch.shared.setFinalized(true)
	sch.control.send(finalizedMessage{})
	return nil
}

// TakeTaskIterator implements scheduler.Scheduler.
func (sch *SerialScheduler) TakeTaskIterator() (*scheduler.TaskIterator, error) {
	if !sch.iteratorTaken.CompareAndSwap(false, true) {
		return nil, scheduler.NoTaskIteratorError()
	}
	return scheduler.NewTaskIterator(sch.taskCh), nil
}

// NewNotifier implements scheduler.Scheduler.
func (sch *SerialScheduler) NewNotifier() (scheduler.ExecutionTaskCompletionNotifier, error) {
	return newNotifier(sch.control), nil
}

// Shutdown stops the core worker and releases its control channel. It
// blocks until the worker goroutine has exited; any task already sitting
// in the task channel's single buffer slot remains available to a
// consumer that hasn't yet called TaskIterator.Next for it, but the
// iterator will report no further tasks once it is drained.
func (sch *SerialScheduler) Shutdown() {
	sch.control.send(shutdownMessage{})
	sch.wg.Wait()
	sch.control.close()
	sch.logger.Debug("serial scheduler stopped")
}

var _ scheduler.Scheduler = (*SerialScheduler)(nil)
