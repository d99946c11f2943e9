package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ntscvhs/internal/errs"
)

func TestRunDeliversFieldsInOrder(t *testing.T) {
	const n = 50
	var mu sync.Mutex
	var got []int64

	produce := func(ctx context.Context, index int64) (Field, bool, error) {
		if index >= n {
			return Field{}, false, nil
		}
		return Field{Index: index, RGB: []byte{byte(index)}}, true, nil
	}
	consume := func(ctx context.Context, f Field) error {
		mu.Lock()
		got = append(got, f.Index)
		mu.Unlock()
		return nil
	}

	p := New(produce, consume, 1)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(got) != n {
		t.Fatalf("len(got) = %d, want %d", len(got), n)
	}
	for i, idx := range got {
		if idx != int64(i) {
			t.Fatalf("got[%d] = %d, want %d (ordering violated)", i, idx, i)
		}
	}
}

func TestRunPropagatesConsumerError(t *testing.T) {
	sentinel := errors.New("encoder died")
	produce := func(ctx context.Context, index int64) (Field, bool, error) {
		if index >= 3 {
			return Field{}, false, nil
		}
		return Field{Index: index}, true, nil
	}
	consume := func(ctx context.Context, f Field) error {
		if f.Index == 1 {
			return sentinel
		}
		return nil
	}

	p := New(produce, consume, 1)
	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run: want error, got nil")
	}
	if !errs.OfKind(err, errs.EncodeError) {
		t.Errorf("Run error kind = %v, want EncodeError", err)
	}
}

func TestRunDiscardsRecoverableDecodeErrorsAndContinues(t *testing.T) {
	var produced []int64
	produce := func(ctx context.Context, index int64) (Field, bool, error) {
		if index >= 5 {
			return Field{}, false, nil
		}
		if index == 2 {
			return Field{}, false, errs.New(errs.DecodeError, "test", errors.New("corrupt frame"))
		}
		return Field{Index: index}, true, nil
	}
	consume := func(ctx context.Context, f Field) error {
		produced = append(produced, f.Index)
		return nil
	}

	p := New(produce, consume, 1)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []int64{0, 1, 3, 4}
	if len(produced) != len(want) {
		t.Fatalf("produced = %v, want %v", produced, want)
	}
	for i, idx := range produced {
		if idx != want[i] {
			t.Fatalf("produced = %v, want %v", produced, want)
		}
	}
}

func TestRunStopsOnFatalProducerError(t *testing.T) {
	sentinel := errs.New(errs.OpenInput, "test", errors.New("input vanished"))
	produce := func(ctx context.Context, index int64) (Field, bool, error) {
		if index == 1 {
			return Field{}, false, sentinel
		}
		return Field{Index: index}, true, nil
	}
	consume := func(ctx context.Context, f Field) error { return nil }

	p := New(produce, consume, 1)
	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run: want error, got nil")
	}
}

func TestRunWithDeeperDelayBufferStillDeliversAllFieldsInOrder(t *testing.T) {
	const n = 40
	var mu sync.Mutex
	var got []int64

	produce := func(ctx context.Context, index int64) (Field, bool, error) {
		if index >= n {
			return Field{}, false, nil
		}
		return Field{Index: index}, true, nil
	}
	consume := func(ctx context.Context, f Field) error {
		mu.Lock()
		got = append(got, f.Index)
		mu.Unlock()
		return nil
	}

	p := New(produce, consume, 16)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(got) != n {
		t.Fatalf("len(got) = %d, want %d", len(got), n)
	}
	for i, idx := range got {
		if idx != int64(i) {
			t.Fatalf("got[%d] = %d, want %d (ordering violated)", i, idx, i)
		}
	}
}

func TestRunWithNoFieldsCompletesCleanly(t *testing.T) {
	produce := func(ctx context.Context, index int64) (Field, bool, error) {
		return Field{}, false, nil
	}
	called := false
	consume := func(ctx context.Context, f Field) error {
		called = true
		return nil
	}

	p := New(produce, consume, 1)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if called {
		t.Error("consume called with no fields produced")
	}
}
