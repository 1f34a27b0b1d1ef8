package reactive

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/google/uuid"
)

var errStopped = errors.New("consumer stopped")

// Emitter hands one item to the consumer. A non-nil error means the consumer
// is gone and the source must stop and return it.
type Emitter[T any] func(T) error

// Flux is a deferred, ordered stream. The source runs once per subscription
// and pushes items through emit; its return value is the terminal signal.
// The zero value completes empty.
type Flux[T any] struct {
	source func(ctx context.Context, emit Emitter[T]) error
}

// Create builds a Flux from a source function.
func Create[T any](source func(ctx context.Context, emit Emitter[T]) error) Flux[T] {
	return Flux[T]{source: source}
}

// FromSlice emits items in order.
func FromSlice[T any](items []T) Flux[T] {
	return Create(func(_ context.Context, emit Emitter[T]) error {
		for _, item := range items {
			if err := emit(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// FluxError fails with err without emitting.
func FluxError[T any](err error) Flux[T] {
	return Create(func(context.Context, Emitter[T]) error { return err })
}

// Each runs the source on the calling goroutine and calls fn for every item.
// An error from fn stops the source and is returned.
func (f Flux[T]) Each(ctx context.Context, fn func(T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.source == nil {
		return nil
	}
	return f.source(ctx, func(v T) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(v)
	})
}

// All returns the stream as a range-over-func sequence. The terminal error, if
// any, is yielded last with a zero value. Breaking out of the loop stops the source.
func (f Flux[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		err := f.Each(ctx, func(v T) error {
			if !yield(v, nil) {
				stopped = true
				cancel()
				return errStopped
			}
			return nil
		})
		if err != nil && !stopped {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect gathers every item. On error the items received so far are returned with it.
func (f Flux[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	err := f.Each(ctx, func(v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// MapFlux transforms every item of f. An error from fn ends the stream.
func MapFlux[T, R any](f Flux[T], fn func(T) (R, error)) Flux[R] {
	return Create(func(ctx context.Context, emit Emitter[R]) error {
		return f.Each(ctx, func(v T) error {
			r, err := fn(v)
			if err != nil {
				return err
			}
			return emit(r)
		})
	})
}

// Subscription is a running Flux consumed through a channel.
type Subscription[T any] struct {
	id     string
	items  chan T
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
	err    error
}

// Subscribe runs the source on its own goroutine. Items are handed over an
// unbuffered channel, so the source waits for the consumer between items.
// The consumer must drain C or call Cancel.
func (f Flux[T]) Subscribe(ctx context.Context) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		id:     uuid.NewString(),
		items:  make(chan T),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(s.items)
		defer cancel()
		err := f.Each(ctx, func(v T) error {
			select {
			case s.items <- v:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		s.err = err
		close(s.done)
	}()

	return s
}

// ID identifies the subscription in logs.
func (s *Subscription[T]) ID() string {
	return s.id
}

// C delivers the items. It is closed when the stream terminates.
func (s *Subscription[T]) C() <-chan T {
	return s.items
}

// Done is closed once the source has returned.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Err waits for the source to return and reports its terminal error. After
// Cancel it reports context.Canceled unless the source finished first.
func (s *Subscription[T]) Err() error {
	<-s.done
	return s.err
}

// Cancel stops the source. No item is requested from the source afterwards.
func (s *Subscription[T]) Cancel() {
	s.once.Do(s.cancel)
}
