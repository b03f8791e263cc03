// Package transaction holds the opaque, immutable value types the
// scheduler core exchanges with its collaborators: transaction payloads,
// their headers, and the results of executing them. The scheduler never
// interprets the payload; it is identified only by its header signature.
package transaction

// Header carries the parsed metadata of a transaction. The scheduler
// treats it as opaque beyond HeaderSignature.
type Header struct {
	// FamilyName identifies the transaction family that can interpret
	// Payload (e.g. "xo"). Opaque to the scheduler.
	FamilyName string
	// Inputs and Outputs are the state addresses this transaction reads
	// and writes. Opaque to the scheduler: the serial core builds context
	// dependency lists from the previous transaction's context, not from
	// these fields.
	Inputs  []string
	Outputs []string
}

// Pair is an immutable transaction payload together with its parsed
// header. Identified by its HeaderSignature, which must be unique across
// the scheduler's lifetime.
type Pair struct {
	header          Header
	payload         []byte
	headerSignature string
}

// New builds a transaction Pair from its header, payload, and a
// precomputed, unique header signature (for example the content hash of
// the payload that the xo workload generator computes).
func New(header Header, payload []byte, headerSignature string) Pair {
	return Pair{header: header, payload: append([]byte(nil), payload...), headerSignature: headerSignature}
}

// Header returns the transaction's parsed header.
func (p Pair) Header() Header { return p.header }

// Payload returns the opaque transaction payload.
func (p Pair) Payload() []byte { return p.payload }

// HeaderSignature returns the transaction's unique identifier.
func (p Pair) HeaderSignature() string { return p.headerSignature }

// InvalidResult is the result of executing an invalid transaction.
type InvalidResult struct {
	TransactionID string
	ErrorMessage  string
	ErrorData     []byte
}

// Receipt is produced by a ContextLifecycle collaborator for a
// successfully executed transaction.
type Receipt struct {
	TransactionID string
	StateChanges  []StateChange
	Events        []Event
	Data          [][]byte
}

// StateChange is a single state-address write recorded by a context
// during execution.
type StateChange struct {
	Address string
	Value   []byte
}

// Event is a structured event emitted by a transaction during execution.
type Event struct {
	Type       string
	Attributes map[string]string
	Data       []byte
}
