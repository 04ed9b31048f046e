package markov

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestStreamMatchesGenerate(t *testing.T) {
	m := Build(exampleMelodies, true)
	ctx := context.Background()

	for seed := uint64(0); seed < 10; seed++ {
		expected := NewSeededSampler(m, seed).Generate(StartToken, WithMaxLength(15))

		var got []string
		for token := range NewSeededSampler(m, seed).Stream(ctx, StartToken, WithMaxLength(15)) {
			got = append(got, token)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("seed %d: Stream() = %v, Generate() = %v", seed, got, expected)
		}
	}
}

func TestStreamUnseenStart(t *testing.T) {
	m := Build(exampleMelodies, true)
	ch := NewSeededSampler(m, 1).Stream(context.Background(), "nothing")

	select {
	case token, ok := <-ch:
		if ok {
			t.Errorf("expected closed channel, got token %q", token)
		}
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
}

func TestStreamCancellation(t *testing.T) {
	// A self loop that would run until maxLength.
	m := Build([][]string{{"A", "A"}}, false)
	ctx, cancel := context.WithCancel(context.Background())

	ch := NewSeededSampler(m, 1).Stream(ctx, "A", WithMaxLength(100000))
	if _, ok := <-ch; !ok {
		t.Fatal("expected at least one token before cancelling")
	}
	cancel()

	done := make(chan int)
	go func() {
		n := 0
		for range ch {
			n++
		}
		done <- n
	}()

	select {
	case n := <-done:
		if n >= 100000 {
			t.Errorf("stream produced %d tokens after cancellation", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close after cancellation")
	}
}

func TestStreamCancelledBeforeStart(t *testing.T) {
	m := Build([][]string{{"A", "A"}}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for seed := uint64(0); seed < 50; seed++ {
		n := 0
		for range NewSeededSampler(m, seed).Stream(ctx, "A", WithMaxLength(100)) {
			n++
		}
		if n != 0 {
			t.Fatalf("seed %d: stream produced %d tokens on a cancelled context", seed, n)
		}
	}
}
