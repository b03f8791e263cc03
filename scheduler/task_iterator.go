package scheduler

import "context"

// TaskIterator is a lazy, finite, non-restartable sequence of
// ExecutionTasks. It is the idiomatic Go substitute for a Rust
// `Iterator<Item = ExecutionTask>`: callers pull with Next, which blocks
// until a task is available or the scheduler has shut down.
type TaskIterator struct {
	tasks <-chan ExecutionTask
}

// NewTaskIterator wraps a channel of ready tasks. The channel is expected
// to be closed by the scheduler's core worker on shutdown.
func NewTaskIterator(tasks <-chan ExecutionTask) *TaskIterator {
	return &TaskIterator{tasks: tasks}
}

// Next blocks until a task is available, the scheduler shuts down, or ctx
// is done. The second return value is false when ctx is done, or once the
// scheduler has shut down and no further tasks will be produced. A false
// caused by ctx does not end the sequence: a later call may still yield
// tasks.
func (it *TaskIterator) Next(ctx context.Context) (ExecutionTask, bool) {
	select {
	case task, ok := <-it.tasks:
		return task, ok
	case <-ctx.Done():
		return ExecutionTask{}, false
	}
}
