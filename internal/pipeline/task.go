package pipeline

import "context"

// Outcome is what an edit produced.
type Outcome struct {
	Frame  Frame
	Stale  bool
	Source Source
}

// Task is the future for one Edit. Edits served without a classifier call
// return a task that is already done.
type Task struct {
	done chan struct{}
	out  Outcome
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func doneTask(out Outcome) *Task {
	t := newTask()
	t.finish(out, nil)
	return t
}

func (t *Task) finish(out Outcome, err error) {
	t.out, t.err = out, err
	close(t.done)
}

// Done is closed once the edit has been fully handled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task is done or ctx ends. The error is the
// classifier failure, if any; it is reported even when the pipeline
// rendered an empty frame in its place.
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.out, t.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
