// Package xo implements a deterministic, seeded workload.TransactionWorkload
// and workload.BatchWorkload modeled on the classic tic-tac-toe ("xo")
// transaction family used throughout the Sawtooth/Hyperledger benchmarking
// ecosystem: a "create" transaction starts a named game, followed by up
// to nine "take" transactions claiming board spaces alternating between
// players X and O.
package xo

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/ledgerframe/txscheduler/protocol/batch"
	"github.com/ledgerframe/txscheduler/protocol/transaction"
	"github.com/ledgerframe/txscheduler/workload"
)

const familyName = "xo"

const maxSpaces = 9

// Payload is the CBOR-encoded body of an xo transaction.
type Payload struct {
	Verb  string // "create" or "take"
	Name  string // game name
	Space int    // board space, 1-9; meaningful only for "take"
	Value string // "X" or "O"; meaningful only for "take"
}

// Generator deterministically produces a sequence of xo transactions
// (and fixed-size batches of them) from a seed. Two Generators built
// from the same seed produce byte-identical output; this is what makes
// it suitable for reproducible benchmarks and conformance tests.
type Generator struct {
	seed        []byte
	counter     uint64
	gameName    string
	spacesTaken int
	nextPlayer  string
}

// NewGenerator builds a Generator from a seed. An empty seed is valid
// and still produces a deterministic (if unvaried) sequence.
func NewGenerator(seed []byte) *Generator {
	g := &Generator{seed: append([]byte(nil), seed...), nextPlayer: "X"}
	g.gameName = g.newGameName()
	return g
}

func (g *Generator) newGameName() string {
	h := g.nextHash()
	return "game-" + hex.EncodeToString(h[:4])
}

// nextHash mixes the seed with a monotonic counter through blake2b-256,
// giving every call a distinct, reproducible 32-byte value.
func (g *Generator) nextHash() [32]byte {
	g.counter++
	n := g.counter
	buf := make([]byte, 0, len(g.seed)+8)
	buf = append(buf, g.seed...)
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(n>>(8*i)))
	}
	return blake2b.Sum256(buf)
}

func (g *Generator) headerSignature(payload Payload) (string, error) {
	encoded, err := cbor.Marshal(payload)
	if err != nil {
		return "", workload.NewError("failed to encode xo payload", err)
	}
	sum := blake2b.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// NextTransaction implements workload.TransactionWorkload. It emits one
// "create" transaction per game followed by up to nine "take"
// transactions, then starts a fresh game.
func (g *Generator) NextTransaction() (transaction.Pair, error) {
	var p Payload
	if g.spacesTaken == 0 {
		p = Payload{Verb: "create", Name: g.gameName}
	} else {
		p = Payload{
			Verb:  "take",
			Name:  g.gameName,
			Space: g.spacesTaken,
			Value: g.nextPlayer,
		}
		if g.nextPlayer == "X" {
			g.nextPlayer = "O"
		} else {
			g.nextPlayer = "X"
		}
	}
	g.spacesTaken++
	if g.spacesTaken > maxSpaces {
		g.spacesTaken = 0
		g.gameName = g.newGameName()
	}

	encoded, err := cbor.Marshal(p)
	if err != nil {
		return transaction.Pair{}, workload.NewError("failed to encode xo payload", err)
	}
	sig, err := g.headerSignature(p)
	if err != nil {
		return transaction.Pair{}, err
	}

	header := transaction.Header{
		FamilyName: familyName,
		Inputs:     []string{p.Name},
		Outputs:    []string{p.Name},
	}
	return transaction.New(header, encoded, sig), nil
}

// BatchGenerator wraps a Generator to emit fixed-size batches of
// transactions. Each batch's header signature is the next value of the
// generator's seeded hash sequence, not a hash of the batch's content.
type BatchGenerator struct {
	txns      *Generator
	batchSize int
}

// NewBatchGenerator builds a BatchGenerator producing batches of
// batchSize transactions drawn from a Generator seeded with seed.
func NewBatchGenerator(seed []byte, batchSize int) *BatchGenerator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchGenerator{txns: NewGenerator(seed), batchSize: batchSize}
}

// NextBatch implements workload.BatchWorkload.
func (g *BatchGenerator) NextBatch() (batch.Pair, error) {
	txns := make([]transaction.Pair, 0, g.batchSize)
	for i := 0; i < g.batchSize; i++ {
		txn, err := g.txns.NextTransaction()
		if err != nil {
			return batch.Pair{}, err
		}
		txns = append(txns, txn)
	}

	h := g.txns.nextHash()
	sig := hex.EncodeToString(h[:])
	return batch.New(txns, sig), nil
}

var (
	_ workload.TransactionWorkload = (*Generator)(nil)
	_ workload.BatchWorkload       = (*BatchGenerator)(nil)
)
