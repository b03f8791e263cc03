package serial

import "github.com/eapache/channels"

// controlChannel is a multi-producer, single-consumer conduit carrying
// coreMessage events to the core worker. It is backed by
// channels.InfiniteChannel (github.com/eapache/channels), which never
// blocks a producer and never drops a queued value — unlike a
// fixed-capacity ring buffer, which would risk silently coalescing two
// distinct control events (e.g. two ExecutionResult notifications) and
// breaking the scheduler's exactly-once result-delivery guarantee.
type controlChannel struct {
	inner *channels.InfiniteChannel
}

func newControlChannel() *controlChannel {
	return &controlChannel{inner: channels.NewInfiniteChannel()}
}

// send enqueues msg. Safe to call after close; sends to a closed channel
// are silently dropped, matching the spec's "posting to a closed control
// channel is silently dropped" contract for the completion notifier.
func (c *controlChannel) send(msg coreMessage) {
	defer func() {
		// The channel was already closed by a concurrent shutdown; treat
		// the send as a no-op rather than letting the panic escape.
		_ = recover()
	}()
	c.inner.In() <- msg
}

// recv blocks until a message is available or the channel is closed.
func (c *controlChannel) recv() (coreMessage, bool) {
	v, ok := <-c.inner.Out()
	if !ok {
		return nil, false
	}
	return v.(coreMessage), true
}

// close shuts the channel down; any buffered messages are discarded.
func (c *controlChannel) close() {
	c.inner.Close()
}
