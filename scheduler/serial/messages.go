package serial

import "github.com/ledgerframe/txscheduler/scheduler"

// coreMessage is a control event posted to the core worker's control
// channel. Exactly one of the concrete message types below is boxed per
// send.
type coreMessage interface {
	isCoreMessage()
}

// batchAddedMessage announces that a batch is available in the
// unscheduled queue.
type batchAddedMessage struct{}

func (batchAddedMessage) isCoreMessage() {}

// finalizedMessage announces that the scheduler has been finalized.
type finalizedMessage struct{}

func (finalizedMessage) isCoreMessage() {}

// executionResultMessage carries a completion notification posted by an
// executor through a notifier.
type executionResultMessage struct {
	notification scheduler.ExecutionTaskCompletionNotification
}

func (executionResultMessage) isCoreMessage() {}

// shutdownMessage requests that the core worker stop.
type shutdownMessage struct{}

func (shutdownMessage) isCoreMessage() {}
