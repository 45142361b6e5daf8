package capture

import (
	"testing"
	"time"
)

func TestQueuePreservesFIFOOrder(t *testing.T) {
	q := NewQueue[int]()
	for i := 1; i <= 5; i++ {
		q.Push(i)
	}
	for want := 1; want <= 5; want++ {
		got, ok := q.Pop(time.Second)
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly empty", want)
		}
		if got != want {
			t.Fatalf("pop order broken: got %d want %d", got, want)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, len=%d", q.Len())
	}
}

func TestQueuePushFrontJumpsAhead(t *testing.T) {
	q := NewQueue[string]()
	q.Push("second")
	q.PushFront("first")

	got, ok := q.Pop(time.Second)
	if !ok || got != "first" {
		t.Fatalf("expected retried item first, got %q ok=%v", got, ok)
	}
}

func TestQueuePopTimesOutWhenEmpty(t *testing.T) {
	q := NewQueue[int]()
	start := time.Now()
	_, ok := q.Pop(30 * time.Millisecond)
	if ok {
		t.Fatal("pop should fail on empty queue")
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("pop returned too early: %v", elapsed)
	}
}

func TestQueuePopWakesOnPush(t *testing.T) {
	q := NewQueue[int]()
	done := make(chan int, 1)
	go func() {
		v, ok := q.Pop(2 * time.Second)
		if ok {
			done <- v
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push(42)

	select {
	case v := <-done:
		if v != 42 {
			t.Fatalf("got %d want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("pop did not wake on push")
	}
}

func TestDrainedCoversPoppedItems(t *testing.T) {
	q := NewQueue[int]()
	if !q.Drained() {
		t.Fatal("new queue should be drained")
	}

	q.Push(1)
	if q.Drained() {
		t.Fatal("queued item should count as outstanding")
	}
	if _, ok := q.TryPop(); !ok {
		t.Fatal("TryPop failed")
	}
	if q.Drained() {
		t.Fatal("popped but unacknowledged item should count as outstanding")
	}
	q.Done()
	if !q.Drained() {
		t.Fatal("acknowledged item should not count as outstanding")
	}
}

func TestDrainedSurvivesRetryRequeue(t *testing.T) {
	q := NewQueue[int]()
	q.Push(1)
	if _, ok := q.TryPop(); !ok {
		t.Fatal("TryPop failed")
	}

	// A failed download goes back to the front before the pop is
	// acknowledged; the item must stay outstanding through the cycle.
	q.PushFront(1)
	q.Done()
	if q.Drained() {
		t.Fatal("requeued item should still count as outstanding")
	}
	if _, ok := q.TryPop(); !ok {
		t.Fatal("TryPop failed")
	}
	q.Done()
	if !q.Drained() {
		t.Fatal("expected drained queue after retry completes")
	}
}

func TestTryPop(t *testing.T) {
	q := NewQueue[int]()
	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop on empty queue should fail")
	}
	q.Push(7)
	if v, ok := q.TryPop(); !ok || v != 7 {
		t.Fatalf("TryPop got %d ok=%v", v, ok)
	}
}
