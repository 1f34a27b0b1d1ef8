package reactive

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nimburion/asyncrepo/pkg/observability/logger"
)

// Disposable is a handle on work started by RunAsync.
type Disposable struct {
	id     string
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
	err    error
}

// RunAsync runs task on a new goroutine and returns immediately. Failures are
// logged. Dispose cancels the context passed to task.
//
//	reactive.RunAsync(ctx, log, svc.Save(&user).Run)
func RunAsync(ctx context.Context, log logger.Logger, task func(ctx context.Context) error) *Disposable {
	if log == nil {
		log = logger.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(ctx)
	d := &Disposable{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(d.done)
		defer cancel()
		if err := task(ctx); err != nil {
			d.err = err
			log.WithContext(ctx).Error("async task failed", "task_id", d.id, "error", err)
		}
	}()

	return d
}

// ID identifies the task in logs.
func (d *Disposable) ID() string {
	return d.id
}

// Dispose cancels the task. A blocking call already in flight is not interrupted.
func (d *Disposable) Dispose() {
	d.once.Do(d.cancel)
}

// Done is closed when the task has returned.
func (d *Disposable) Done() <-chan struct{} {
	return d.done
}

// Err waits for the task and returns its error.
func (d *Disposable) Err() error {
	<-d.done
	return d.err
}

// RunBlock waits for m on another goroutine and returns its value. An empty
// Mono yields the zero value and no error.
func RunBlock[T any](ctx context.Context, m Mono[T]) (T, error) {
	r := <-m.Future(ctx)
	return r.Value, r.Err
}

// Run awaits m and discards its value.
func (m Mono[T]) Run(ctx context.Context) error {
	_, _, err := m.Await(ctx)
	return err
}

// Run consumes f and discards its items.
func (f Flux[T]) Run(ctx context.Context) error {
	return f.Each(ctx, func(T) error { return nil })
}
