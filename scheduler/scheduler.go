// Package scheduler defines the contract shared by every batch scheduler
// variant (serial, parallel, multi): the types that flow between a
// submitter, the scheduler, and an external executor, and the Scheduler
// interface itself. See the scheduler/serial subpackage for the
// single-active-transaction implementation.
package scheduler

import (
	"github.com/google/uuid"

	"github.com/ledgerframe/txscheduler/protocol/batch"
	"github.com/ledgerframe/txscheduler/protocol/transaction"
)

// ContextID names a state-isolation context handed out by a
// ContextLifecycle collaborator. It is a 16-byte value, identical in
// shape to a UUID, which is exactly what it is built from.
type ContextID = uuid.UUID

// ExecutionTask pairs a transaction with the context it should execute
// against. It is exclusively owned by whoever currently holds it:
// produced by the core, consumed by the executor, never referenced twice.
type ExecutionTask struct {
	pair      transaction.Pair
	contextID ContextID
}

// NewExecutionTask creates a new ExecutionTask.
func NewExecutionTask(pair transaction.Pair, contextID ContextID) ExecutionTask {
	return ExecutionTask{pair: pair, contextID: contextID}
}

// Pair is the transaction to be executed.
func (t ExecutionTask) Pair() transaction.Pair { return t.pair }

// ContextID is the identifier of the context to use when accessing state.
func (t ExecutionTask) ContextID() ContextID { return t.contextID }

// TransactionExecutionResult is a tagged union: either a successfully
// executed transaction's receipt, or the reason it was invalid. Exactly
// one of the two accessors is meaningful; IsValid reports which.
type TransactionExecutionResult struct {
	valid   bool
	receipt transaction.Receipt
	invalid transaction.InvalidResult
}

// ValidResult builds a TransactionExecutionResult for a successful execution.
func ValidResult(receipt transaction.Receipt) TransactionExecutionResult {
	return TransactionExecutionResult{valid: true, receipt: receipt}
}

// InvalidResult builds a TransactionExecutionResult for a failed execution.
func InvalidResult(invalid transaction.InvalidResult) TransactionExecutionResult {
	return TransactionExecutionResult{valid: false, invalid: invalid}
}

// IsValid reports whether the transaction executed successfully.
func (r TransactionExecutionResult) IsValid() bool { return r.valid }

// Receipt returns the receipt of a valid result. Only meaningful if IsValid.
func (r TransactionExecutionResult) Receipt() transaction.Receipt { return r.receipt }

// Invalid returns the invalid-transaction detail. Only meaningful if !IsValid.
func (r TransactionExecutionResult) Invalid() transaction.InvalidResult { return r.invalid }

// BatchExecutionResult is the consolidated outcome of executing a batch,
// emitted at most once per successfully accepted batch.
type BatchExecutionResult struct {
	Batch   batch.Pair
	Results []TransactionExecutionResult
}

// ExecutionTaskCompletionNotification reports the outcome of a single
// dispatched ExecutionTask back to the scheduler.
type ExecutionTaskCompletionNotification struct {
	valid     bool
	contextID ContextID
	txnID     string
	invalid   transaction.InvalidResult
}

// ValidNotification builds a notification reporting a successful execution.
func ValidNotification(contextID ContextID, txnID string) ExecutionTaskCompletionNotification {
	return ExecutionTaskCompletionNotification{valid: true, contextID: contextID, txnID: txnID}
}

// InvalidNotification builds a notification reporting a failed execution.
func InvalidNotification(contextID ContextID, invalid transaction.InvalidResult) ExecutionTaskCompletionNotification {
	return ExecutionTaskCompletionNotification{contextID: contextID, invalid: invalid}
}

// IsValid reports whether the notification describes a successful execution.
func (n ExecutionTaskCompletionNotification) IsValid() bool { return n.valid }

// ContextID is the context the reported transaction executed against.
func (n ExecutionTaskCompletionNotification) ContextID() ContextID { return n.contextID }

// TransactionID is the identifier of the transaction this notification is
// about, regardless of outcome.
func (n ExecutionTaskCompletionNotification) TransactionID() string {
	if n.valid {
		return n.txnID
	}
	return n.invalid.TransactionID
}

// Invalid returns the invalid-transaction detail. Only meaningful if !IsValid.
func (n ExecutionTaskCompletionNotification) Invalid() transaction.InvalidResult { return n.invalid }

// ErrorCode enumerates the scheduler's error taxonomy.
type ErrorCode int

const (
	// ErrCodeDuplicateBatch: add_batch was called with a batch the scheduler
	// already has pending or in progress.
	ErrCodeDuplicateBatch ErrorCode = iota
	// ErrCodeSchedulerFinalized: add_batch was called after finalize.
	ErrCodeSchedulerFinalized
	// ErrCodeNoTaskIterator: take_task_iterator was called more than once.
	ErrCodeNoTaskIterator
	// ErrCodeUnexpectedNotification: a notification arrived for a
	// transaction the scheduler was not expecting.
	ErrCodeUnexpectedNotification
	// ErrCodeInternal: an unrecoverable condition.
	ErrCodeInternal
)

// Error is the error type returned by Scheduler operations and delivered
// to the error callback.
type Error struct {
	Code    ErrorCode
	BatchID string
	TxnID   string
	Err     error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeDuplicateBatch:
		return "duplicate batch added to scheduler: " + e.BatchID
	case ErrCodeSchedulerFinalized:
		return "batch added to finalized scheduler"
	case ErrCodeNoTaskIterator:
		return "task iterator already taken"
	case ErrCodeUnexpectedNotification:
		return "scheduler received an unexpected notification: " + e.TxnID
	case ErrCodeInternal:
		if e.Err != nil {
			return "scheduler encountered an internal error: " + e.Err.Error()
		}
		return "scheduler encountered an internal error"
	default:
		return "unknown scheduler error"
	}
}

// Unwrap supports errors.Is/errors.As against the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// DuplicateBatchError builds an ErrCodeDuplicateBatch error.
func DuplicateBatchError(batchID string) *Error {
	return &Error{Code: ErrCodeDuplicateBatch, BatchID: batchID}
}

// SchedulerFinalizedError builds an ErrCodeSchedulerFinalized error.
func SchedulerFinalizedError() *Error {
	return &Error{Code: ErrCodeSchedulerFinalized}
}

// NoTaskIteratorError builds an ErrCodeNoTaskIterator error.
func NoTaskIteratorError() *Error {
	return &Error{Code: ErrCodeNoTaskIterator}
}

// UnexpectedNotificationError builds an ErrCodeUnexpectedNotification error.
func UnexpectedNotificationError(txnID string) *Error {
	return &Error{Code: ErrCodeUnexpectedNotification, TxnID: txnID}
}

// InternalError builds an ErrCodeInternal error wrapping cause.
func InternalError(cause error) *Error {
	return &Error{Code: ErrCodeInternal, Err: cause}
}

// ResultCallback receives batch execution results. A nil *BatchExecutionResult
// is delivered exactly once, after finalize, once every accepted batch has
// produced its result.
type ResultCallback func(*BatchExecutionResult)

// ErrorCallback receives errors encountered by the scheduler that are not
// tied to a specific, synchronous caller operation.
type ErrorCallback func(*Error)

// Scheduler schedules batches and transactions and returns execution
// results. Implementations must be safe for SetResultCallback,
// SetErrorCallback, AddBatch, Cancel, Finalize, TakeTaskIterator, and
// NewNotifier to be called concurrently from arbitrary goroutines; the
// callbacks and collaborators supplied to an implementation must in turn
// be safe to invoke from the implementation's own worker goroutine.
type Scheduler interface {
	// SetResultCallback installs the callback used to deliver batch
	// results. The order batches are completed in is not guaranteed to
	// match AddBatch order, except where a specific implementation (such
	// as the serial scheduler) documents otherwise.
	SetResultCallback(cb ResultCallback) error

	// SetErrorCallback installs the callback used to deliver scheduler
	// errors that are not synchronous return values.
	SetErrorCallback(cb ErrorCallback) error

	// AddBatch submits a batch for execution.
	AddBatch(b batch.Pair) error

	// Cancel drops any unscheduled batches and returns them. Batches
	// already dispatched for execution are not affected.
	Cancel() ([]batch.Pair, error)

	// Finalize disables further AddBatch calls. Idempotent.
	Finalize() error

	// TakeTaskIterator returns the scheduler's single TaskIterator. A
	// second call returns ErrCodeNoTaskIterator.
	TakeTaskIterator() (*TaskIterator, error)

	// NewNotifier returns a fresh, cloneable notifier for posting
	// execution completions back to the scheduler.
	NewNotifier() (ExecutionTaskCompletionNotifier, error)
}

// ExecutionTaskCompletionNotifier lets an executor report that an
// ExecutionTask has finished.
type ExecutionTaskCompletionNotifier interface {
	// Notify posts a completion notification. Fire-and-forget: posting
	// after the scheduler has shut down is silently dropped.
	Notify(n ExecutionTaskCompletionNotification)

	// Clone returns an independent handle to the same scheduler.
	Clone() ExecutionTaskCompletionNotifier
}
