package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestExecutorRunsInOrder(t *testing.T) {
	e := NewExecutor(nil)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		e.Post(func() { got = append(got, i) })
	}
	if e.Len() != 5 {
		t.Fatalf("Len = %d", e.Len())
	}
	if n := e.Drain(); n != 5 {
		t.Errorf("Drain ran %d actions", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v", got)
		}
	}
	if e.Len() != 0 {
		t.Error("queue should be empty")
	}
}

func TestExecutorDefersActionsPostedWhileDraining(t *testing.T) {
	e := NewExecutor(nil)

	ran := 0
	e.Post(func() {
		ran++
		e.Post(func() { ran++ })
	})

	if n := e.Drain(); n != 1 {
		t.Errorf("first drain ran %d", n)
	}
	if ran != 1 {
		t.Fatalf("ran = %d after first drain", ran)
	}
	e.Drain()
	if ran != 2 {
		t.Errorf("ran = %d after second drain", ran)
	}
}

func TestExecutorRecoversPanics(t *testing.T) {
	e := NewExecutor(nil)

	after := false
	e.Post(func() { panic("observer bug") })
	e.Post(func() { after = true })
	e.Drain()

	if !after {
		t.Error("action after a panic should still run")
	}
}

func TestExecutorConcurrentPost(t *testing.T) {
	e := NewExecutor(nil)

	var wg sync.WaitGroup
	count := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Post(func() { count++ })
		}()
	}
	wg.Wait()
	e.Drain()

	if count != 50 {
		t.Errorf("count = %d", count)
	}
}

func TestExecutorRun(t *testing.T) {
	e := NewExecutor(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		e.Run(ctx, time.Millisecond)
		close(done)
	}()

	ran := make(chan struct{})
	e.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("action not drained by Run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
