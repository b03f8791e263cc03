package serial

import "github.com/ledgerframe/txscheduler/scheduler"

// notifier is the concrete ExecutionTaskCompletionNotifier handed to
// executors. It holds nothing but a reference to the control channel, so
// Clone is simply a struct copy: every clone posts to the same core
// worker, and posting after shutdown is a silent no-op because
// controlChannel.send recovers from sending on a closed channel.
type notifier struct {
	control *controlChannel
}

func newNotifier(ctrl *controlChannel) *notifier {
	return &notifier{control: ctrl}
}

// Notify implements scheduler.ExecutionTaskCompletionNotifier.
func (n *notifier) Notify(notification scheduler.ExecutionTaskCompletionNotification) {
	n.control.send(executionResultMessage{notification: notification})
}

// Clone implements scheduler.ExecutionTaskCompletionNotifier.
func (n *notifier) Clone() scheduler.ExecutionTaskCompletionNotifier {
	return &notifier{control: n.control}
}
