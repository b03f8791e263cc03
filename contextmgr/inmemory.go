package contextmgr

import (
	"sync"
	"sync/atomic"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/ledgerframe/txscheduler/logging"
	"github.com/ledgerframe/txscheduler/protocol/transaction"
)

// record is the accumulated state a single context has produced. Real
// context managers would track write sets against a backing state store;
// this reference implementation just remembers a deterministic,
// CBOR-encoded fingerprint of its dependencies so that tests can assert
// receipts are distinguishable and reproducible.
type record struct {
	DependentContexts []ContextID
	StateID           string
}

// InMemory is a ContextLifecycle implementation backed by a sync.Map of
// context id to accumulated record. It is not a production state-access
// layer; it exists so that the scheduler core, its tests, and the bench
// CLI have a concrete collaborator to run against.
type InMemory struct {
	logger *logging.Logger

	contexts sync.Map // ContextID -> *record

	created uint64
	dropped uint64
}

// NewInMemory returns a fresh InMemory context manager.
func NewInMemory() *InMemory {
	return &InMemory{logger: logging.GetLogger("contextmgr/inmemory")}
}

// CreateContext implements ContextLifecycle.
func (m *InMemory) CreateContext(dependentContexts []ContextID, stateID string) ContextID {
	id := uuid.New()
	deps := append([]ContextID(nil), dependentContexts...)
	m.contexts.Store(id, &record{DependentContexts: deps, StateID: stateID})
	atomic.AddUint64(&m.created, 1)
	m.logger.Debug("created context", "context_id", id, "state_id", stateID, "dependent_contexts", deps)
	return id
}

// GetTransactionReceipt implements ContextLifecycle.
func (m *InMemory) GetTransactionReceipt(contextID ContextID, transactionID string) (transaction.Receipt, error) {
	v, ok := m.contexts.Load(contextID)
	if !ok {
		return transaction.Receipt{}, NewError("no such context", nil)
	}
	rec := v.(*record)

	fingerprint, err := cbor.Marshal(rec)
	if err != nil {
		return transaction.Receipt{}, NewError("failed to encode context fingerprint", err)
	}

	return transaction.Receipt{
		TransactionID: transactionID,
		StateChanges: []transaction.StateChange{
			{Address: rec.StateID, Value: fingerprint},
		},
		Data: [][]byte{fingerprint},
	}, nil
}

// DropContext implements ContextLifecycle.
func (m *InMemory) DropContext(contextID ContextID) {
	if _, ok := m.contexts.LoadAndDelete(contextID); !ok {
		// Tolerated: the context was already dropped, or was never
		// created by this manager. A context whose receipt was never
		// requested (the invalid-batch path) is still present and is
		// dropped normally above.
		return
	}
	atomic.AddUint64(&m.dropped, 1)
	m.logger.Debug("dropped context", "context_id", contextID)
}

// Created returns the number of contexts created so far.
func (m *InMemory) Created() uint64 { return atomic.LoadUint64(&m.created) }

// Dropped returns the number of contexts dropped so far.
func (m *InMemory) Dropped() uint64 { return atomic.LoadUint64(&m.dropped) }
