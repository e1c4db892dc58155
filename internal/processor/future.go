package processor

import "context"

// Future is the one-shot result of a posted task.
type Future[T any] struct {
	done     chan struct{}
	value    T
	panicked bool
	reason   any
}

// Post schedules fn on the worker and returns immediately. Tasks run in the
// order they were enqueued, across all posting goroutines.
func Post[T any](p *Processor, fn func() T) *Future[T] {
	f, ok := TryPost(p, fn)
	if !ok {
		panic("processor: post after Close")
	}
	return f
}

// TryPost is like Post but reports false instead of panicking once Close has
// begun. fn is not run in that case.
func TryPost[T any](p *Processor, fn func() T) (*Future[T], bool) {
	f := &Future[T]{done: make(chan struct{})}

	ok := p.tryEnqueue(func() {
		defer p.recoverTask(func(r any) {
			f.panicked = true
			f.reason = r
			close(f.done)
		})

		f.value = fn()
		close(f.done)
	})
	if !ok {
		return nil, false
	}

	return f, true
}

// Wait blocks until the task ran and returns its result. If the task
// panicked, Wait panics with the same value.
func (f *Future[T]) Wait() T {
	<-f.done
	if f.panicked {
		panic(f.reason)
	}
	return f.value
}

// WaitContext is like Wait but gives up when ctx is done. The task itself is
// not cancelled and still runs.
func (f *Future[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Wait(), nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the task ran.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
