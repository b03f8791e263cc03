package serial

import (
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/ledgerframe/txscheduler/protocol/batch"
	"github.com/ledgerframe/txscheduler/scheduler"
)

// signatureItem is a btree.Item wrapping a header signature, used by
// shared to detect duplicate batches in O(log n) instead of scanning the
// unscheduled queue and the current batch slot linearly.
type signatureItem string

func (s signatureItem) Less(other btree.Item) bool {
	return s < other.(signatureItem)
}

// currentBatch is the mutable state of the batch presently occupying the
// single active slot. It is owned exclusively by the core worker
// goroutine and is never reached through shared's mutex: nothing outside
// core.go ever dereferences it. results is pre-sized to
// len(batch.Transactions()) and filled in dispatch order as transactions
// complete.
type currentBatch struct {
	batch   batch.Pair
	results []scheduler.TransactionExecutionResult

	nextIndex         int // index of the next transaction in batch.Transactions() to dispatch
	previousContextID *scheduler.ContextID

	// createdContexts accumulates every context id created while
	// dispatching this batch's transactions, in creation order, so that
	// all of them can be dropped together once the batch's result has
	// been emitted (valid or invalid) without tracking drops per-step.
	createdContexts []scheduler.ContextID

	dispatchedTxnID      *string
	dispatchedContextID  scheduler.ContextID
	dispatchedResultSlot int

	invalidated bool
	activatedAt time.Time
}

func newCurrentBatch(b batch.Pair) *currentBatch {
	return &currentBatch{
		batch:   b,
		results: make([]scheduler.TransactionExecutionResult, len(b.Transactions())),
	}
}

// shared is the guarded state record: the unscheduled-batches queue, the
// finalize flag, a hasCurrent flag mirroring whether the core's active
// slot is occupied, and the result/error callback slots. Every datum
// touched by more than one goroutine lives here, behind a single mutex.
// The current batch's own working state (currentBatch, above) is
// deliberately kept out of this struct: only the core worker goroutine
// ever reads or writes it, so guarding it here would just add lock
// contention between AddBatch/Cancel/Finalize callers and the worker for
// no correctness benefit. Holding the lock across a callback invocation
// is forbidden.
type shared struct {
	mu sync.Mutex

	unscheduled []batch.Pair
	hasCurrent  bool
	finalized   bool

	knownSignatures *btree.BTree

	resultCallback scheduler.ResultCallback
	errorCallback  scheduler.ErrorCallback
}

func defaultResultCallback(result *scheduler.BatchExecutionResult) {
	logger := getPackageLogger()
	if result == nil {
		logger.Warn("no result callback set; dropping terminal sentinel")
		return
	}
	logger.Warn("no result callback set; dropping batch execution result", "batch", result.Batch.HeaderSignature())
}

func defaultErrorCallback(err *scheduler.Error) {
	getPackageLogger().Error("no error callback set", "err", err)
}

func newShared() *shared {
	return &shared{
		knownSignatures: btree.New(32),
		resultCallback:  defaultResultCallback,
		errorCallback:   defaultErrorCallback,
	}
}

func (s *shared) setResultCallback(cb scheduler.ResultCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultCallback = cb
}

func (s *shared) setErrorCallback(cb scheduler.ErrorCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCallback = cb
}

// drainUnscheduledBatches atomically empties the unscheduled queue,
// forgetting each drained batch's signature so it may be resubmitted,
// and returns the drained batches in FIFO order.
func (s *shared) drainUnscheduledBatches() []batch.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	drained := s.unscheduled
	s.unscheduled = nil
	for _, b := range drained {
		s.knownSignatures.Delete(signatureItem(b.HeaderSignature()))
	}
	return drained
}

func (s *shared) setFinalized(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = v
}

func (s *shared) isFinalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// activateNext pops the oldest unscheduled batch, marks the active slot
// occupied, and returns it. ok is false if the queue was empty or the
// slot was already occupied.
func (s *shared) activateNext() (b batch.Pair, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasCurrent || len(s.unscheduled) == 0 {
		return batch.Pair{}, false
	}
	b = s.unscheduled[0]
	s.unscheduled = s.unscheduled[1:]
	s.hasCurrent = true
	return b, true
}

// clearCurrent marks the active slot empty and forgets sig so a later
// resubmission of the same batch is no longer rejected as a duplicate.
func (s *shared) clearCurrent(sig string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasCurrent = false
	s.knownSignatures.Delete(signatureItem(sig))
}

// isIdle reports whether there is neither an active batch nor anything
// waiting in the unscheduled queue.
func (s *shared) isIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.hasCurrent && len(s.unscheduled) == 0
}

// queueDepth returns the current unscheduled-queue length, for metrics.
func (s *shared) queueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unscheduled)
}

// addIfNotQueued atomically checks b's signature against the known-batch
// index and, if absent, enqueues it. It reports whether b was added,
// letting AddBatch perform the duplicate check and the enqueue as one
// atomic step, so a concurrent AddBatch or activateNext cannot slip in
// between them.
func (s *shared) addIfNotQueued(b batch.Pair) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := signatureItem(b.HeaderSignature())
	if s.knownSignatures.Has(sig) {
		return false
	}
	s.unscheduled = append(s.unscheduled, b)
	s.knownSignatures.ReplaceOrInsert(sig)
	return true
}
