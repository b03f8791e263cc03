package serial_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerframe/txscheduler/contextmgr"
	"github.com/ledgerframe/txscheduler/scheduler/serial"
)

// TestShutdownWithoutBatchClosesTaskChannel exercises the "thread
// cleanup" property: shutting down a scheduler that never received a
// batch still terminates the core goroutine and closes the task
// channel, so the iterator's Next returns promptly with ok=false rather
// than hanging forever.
func TestShutdownWithoutBatchClosesTaskChannel(t *testing.T) {
	require := require.New(t)

	sched, err := serial.New(contextmgr.NewInMemory(), "state-1")
	require.NoError(err)

	it, err := sched.TakeTaskIterator()
	require.NoError(err)

	sched.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, ok := it.Next(ctx)
	require.False(ok)
}
