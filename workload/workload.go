// Package workload defines the generator contract used to feed batches
// and transactions into a scheduler for testing and benchmarking,
// independent of any particular transaction family. See workload/xo for
// a concrete generator.
package workload

import (
	"github.com/ledgerframe/txscheduler/protocol/batch"
	"github.com/ledgerframe/txscheduler/protocol/transaction"
)

// Error is returned by a workload that can no longer produce work (a
// malformed seed, an exhausted deterministic sequence, or an encoding
// failure while building a header signature).
type Error struct {
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds a workload Error.
func NewError(msg string, cause error) *Error { return &Error{msg: msg, cause: cause} }

// TransactionWorkload produces an endless sequence of individually
// submittable transactions.
type TransactionWorkload interface {
	NextTransaction() (transaction.Pair, error)
}

// BatchWorkload produces an endless sequence of batches, each containing
// one or more transactions.
type BatchWorkload interface {
	NextBatch() (batch.Pair, error)
}
