// Package batch holds the immutable, ordered group of transactions the
// scheduler core schedules as a unit.
package batch

import "github.com/ledgerframe/txscheduler/protocol/transaction"

// Pair is an immutable, ordered sequence of transaction.Pair with its own
// unique HeaderSignature.
type Pair struct {
	transactions    []transaction.Pair
	headerSignature string
}

// New builds a batch Pair from its ordered transactions and a
// precomputed, unique header signature.
func New(transactions []transaction.Pair, headerSignature string) Pair {
	txns := append([]transaction.Pair(nil), transactions...)
	return Pair{transactions: txns, headerSignature: headerSignature}
}

// Transactions returns the batch's transactions in submission order.
func (b Pair) Transactions() []transaction.Pair { return b.transactions }

// HeaderSignature returns the batch's unique identifier.
func (b Pair) HeaderSignature() string { return b.headerSignature }

// Equal reports whether two batches have the same header signature. Two
// batches built independently from the same logical content compare
// equal under this definition, which is all the scheduler ever needs.
func (b Pair) Equal(other Pair) bool { return b.headerSignature == other.headerSignature }
