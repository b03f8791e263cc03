package transaction_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerframe/txscheduler/protocol/transaction"
)

func TestPayloadIsDefensivelyCopied(t *testing.T) {
	require := require.New(t)

	payload := []byte("original")
	p := transaction.New(transaction.Header{FamilyName: "xo"}, payload, "sig")

	payload[0] = 'X'
	require.Equal("original", string(p.Payload()))
}
