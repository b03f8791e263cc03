// Package contextmgr defines the ContextLifecycle contract the scheduler
// core consumes to obtain and release state-isolation contexts, and
// provides an in-memory reference implementation used by tests and the
// bench harness.
package contextmgr

import (
	"fmt"

	"github.com/ledgerframe/txscheduler/protocol/transaction"
	"github.com/ledgerframe/txscheduler/scheduler"
)

// ContextID names a state-isolation context.
type ContextID = scheduler.ContextID

// Error is returned by ContextLifecycle operations that can fail.
type Error struct {
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds a context Error.
func NewError(msg string, cause error) *Error { return &Error{msg: msg, cause: cause} }

// ContextLifecycle is the collaborator the scheduler core uses to manage
// state-isolation contexts. Implementations must be safe to call from the
// scheduler's core worker goroutine; they need not be safe for concurrent
// use by multiple callers, since the serial core only ever calls them
// from a single goroutine.
type ContextLifecycle interface {
	// CreateContext returns a fresh ContextID, unique within this
	// scheduler instance, depending on dependentContexts (empty for the
	// first transaction of a batch, a single-element list naming the
	// previous transaction's context otherwise).
	CreateContext(dependentContexts []ContextID, stateID string) ContextID

	// GetTransactionReceipt builds a receipt from the context's
	// accumulated state changes, events, and data.
	GetTransactionReceipt(contextID ContextID, transactionID string) (transaction.Receipt, error)

	// DropContext releases a context. Must tolerate IDs that were
	// created but whose receipt was never requested.
	DropContext(contextID ContextID)
}
