package reactive

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

func TestMono_Await(t *testing.T) {
	tests := []struct {
		name    string
		mono    Mono[int]
		want    int
		wantOK  bool
		wantErr error
	}{
		{name: "just", mono: Just(7), want: 7, wantOK: true},
		{name: "empty", mono: Empty[int]()},
		{name: "zero value", mono: Mono[int]{}},
		{name: "error", mono: MonoError[int](errBoom), wantErr: errBoom},
		{
			name: "optional nil",
			mono: MonoFromOptional(func(context.Context) (*int, error) { return nil, nil }),
		},
		{
			name: "optional value",
			mono: MonoFromOptional(func(context.Context) (*int, error) {
				v := 3
				return &v, nil
			}),
			want:   3,
			wantOK: true,
		},
		{
			name:   "callable",
			mono:   MonoFromCallable(func(context.Context) (int, error) { return 0, nil }),
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := tt.mono.Await(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Await() error = %v, want %v", err, tt.wantErr)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("Await() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMono_IsDeferred(t *testing.T) {
	calls := 0
	m := MonoFromCallable(func(context.Context) (int, error) {
		calls++
		return calls, nil
	})
	if calls != 0 {
		t.Fatal("building a Mono must not run it")
	}

	first, _ := m.Block(context.Background())
	second, _ := m.Block(context.Background())
	if first != 1 || second != 2 {
		t.Fatalf("every Await re-runs the call, got %d then %d", first, second)
	}
}

func TestMono_DoneContextPreventsCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, _, err := MonoFromCallable(func(context.Context) (int, error) {
		called = true
		return 1, nil
	}).Await(ctx)
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
}

func TestMono_Block(t *testing.T) {
	if _, err := Empty[string]().Block(context.Background()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Block() on empty = %v, want ErrEmpty", err)
	}
	if v, err := Just("x").Block(context.Background()); err != nil || v != "x" {
		t.Fatalf("Block() = %q, %v", v, err)
	}
}

func TestMono_Future(t *testing.T) {
	r := <-Just(5).Future(context.Background())
	if !r.OK || r.Value != 5 || r.Err != nil {
		t.Fatalf("Future() = %+v", r)
	}
	r = <-MonoError[int](errBoom).Future(context.Background())
	if !errors.Is(r.Err, errBoom) {
		t.Fatalf("Future() err = %v", r.Err)
	}
}

func TestMapMono(t *testing.T) {
	m := MapMono(Just(42), func(v int) (string, error) { return strconv.Itoa(v), nil })
	if v, err := m.Block(context.Background()); err != nil || v != "42" {
		t.Fatalf("MapMono() = %q, %v", v, err)
	}

	called := false
	empty := MapMono(Empty[int](), func(int) (string, error) {
		called = true
		return "", nil
	})
	if _, ok, _ := empty.Await(context.Background()); ok || called {
		t.Fatal("MapMono must pass an empty Mono through")
	}

	failing := MapMono(Just(1), func(int) (string, error) { return "", errBoom })
	if _, err := failing.Block(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("MapMono() err = %v", err)
	}
}

func TestMono_Flux(t *testing.T) {
	got, err := Just(1).Flux().Collect(context.Background())
	if err != nil || len(got) != 1 || got[0] != 1 {
		t.Fatalf("Just.Flux() = %v, %v", got, err)
	}
	got, err = Empty[int]().Flux().Collect(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("Empty.Flux() = %v, %v", got, err)
	}
}
