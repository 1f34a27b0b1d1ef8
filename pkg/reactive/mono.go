package reactive

import (
	"context"
	"errors"
)

// ErrEmpty is returned by Block when a Mono completes without a value.
var ErrEmpty = errors.New("mono completed without a value")

// Mono is a deferred computation resolving to at most one value.
// The zero value completes empty.
type Mono[T any] struct {
	supply func(ctx context.Context) (T, bool, error)
}

// Result is the outcome of a Mono delivered by Future.
type Result[T any] struct {
	Value T
	OK    bool
	Err   error
}

// MonoFromCallable builds a Mono that always resolves to fn's value or error.
func MonoFromCallable[T any](fn func(ctx context.Context) (T, error)) Mono[T] {
	return Mono[T]{supply: func(ctx context.Context) (T, bool, error) {
		v, err := fn(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		return v, true, nil
	}}
}

// MonoFromOptional builds a Mono that completes empty when fn returns nil.
func MonoFromOptional[T any](fn func(ctx context.Context) (*T, error)) Mono[T] {
	return Mono[T]{supply: func(ctx context.Context) (T, bool, error) {
		var zero T
		v, err := fn(ctx)
		if err != nil || v == nil {
			return zero, false, err
		}
		return *v, true, nil
	}}
}

// Just resolves to v.
func Just[T any](v T) Mono[T] {
	return Mono[T]{supply: func(context.Context) (T, bool, error) {
		return v, true, nil
	}}
}

// Empty completes without a value.
func Empty[T any]() Mono[T] {
	return Mono[T]{}
}

// MonoError fails with err.
func MonoError[T any](err error) Mono[T] {
	return Mono[T]{supply: func(context.Context) (T, bool, error) {
		var zero T
		return zero, false, err
	}}
}

// Await runs the computation on the calling goroutine. ok is false when the
// Mono completed empty. A done ctx prevents the call; a call already running
// is not interrupted.
func (m Mono[T]) Await(ctx context.Context) (value T, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return value, false, err
	}
	if m.supply == nil {
		return value, false, nil
	}
	return m.supply(ctx)
}

// Block is Await that reports an empty completion as ErrEmpty.
func (m Mono[T]) Block(ctx context.Context) (T, error) {
	v, ok, err := m.Await(ctx)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, ErrEmpty
	}
	return v, nil
}

// Future runs the computation on a new goroutine. The channel receives exactly
// one Result and is then closed.
func (m Mono[T]) Future(ctx context.Context) <-chan Result[T] {
	out := make(chan Result[T], 1)
	go func() {
		defer close(out)
		v, ok, err := m.Await(ctx)
		out <- Result[T]{Value: v, OK: ok, Err: err}
	}()
	return out
}

// Flux turns the Mono into a stream of zero or one item.
func (m Mono[T]) Flux() Flux[T] {
	return Create(func(ctx context.Context, emit Emitter[T]) error {
		v, ok, err := m.Await(ctx)
		if err != nil || !ok {
			return err
		}
		return emit(v)
	})
}

// MapMono transforms the value of m. Empty and failed Monos pass through.
func MapMono[T, R any](m Mono[T], fn func(T) (R, error)) Mono[R] {
	return Mono[R]{supply: func(ctx context.Context) (R, bool, error) {
		var zero R
		v, ok, err := m.Await(ctx)
		if err != nil || !ok {
			return zero, false, err
		}
		r, err := fn(v)
		if err != nil {
			return zero, false, err
		}
		return r, true, nil
	}}
}
