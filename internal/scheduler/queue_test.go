package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTasksExecuteInFIFOOrder(t *testing.T) {
	q := newTestQueue(t, time.Minute, time.Minute)
	var mu sync.Mutex
	var order []int
	const n = 50
	for i := 0; i < n; i++ {
		i := i
		q.Enqueue(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}, fmt.Sprintf("req-%d", i))
	}
	waitFor(t, 2*time.Second, "all tasks to run", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == n
	})
	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Fatalf("order[%d] = %d, want %d", i, got, i)
		}
	}
}

func TestCancelBeforeDequeueSkipsExecution(t *testing.T) {
	q := newTestQueue(t, time.Minute, time.Minute)
	var mu sync.Mutex
	var ran []string
	record := func(id string) func() {
		return func() {
			mu.Lock()
			ran = append(ran, id)
			mu.Unlock()
		}
	}
	started := make(chan struct{})
	release := make(chan struct{})
	q.Enqueue(func() {
		record("t1")()
		close(started)
		<-release
	}, "t1")
	<-started
	// Worker is pinned inside t1; queue t2..t5 behind it and cancel two.
	for _, id := range []string{"t2", "t3", "t4", "t5"} {
		q.Enqueue(record(id), id)
	}
	q.Cancel("t2")
	q.Cancel("t4")
	close(release)

	waitFor(t, 2*time.Second, "surviving tasks to run", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) == 3
	})
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	want := []string{"t1", "t3", "t5"}
	if len(ran) != len(want) {
		t.Fatalf("ran %v, want %v", ran, want)
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Fatalf("ran %v, want %v", ran, want)
		}
	}
}

func TestCancellationFlagClearedAtDequeue(t *testing.T) {
	q := newTestQueue(t, time.Minute, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	q.Enqueue(func() {
		close(started)
		<-release
	}, "blocker")
	<-started
	q.Enqueue(func() {}, "victim")
	q.Cancel("victim")
	if !q.IsCancelled("victim") {
		t.Fatalf("expected cancellation flag set before dequeue")
	}
	close(release)
	waitFor(t, 2*time.Second, "flag cleared", func() bool {
		return !q.IsCancelled("victim")
	})
}

func TestCancelUnknownIDIsHarmless(t *testing.T) {
	q := newTestQueue(t, time.Minute, time.Minute)
	q.Cancel("never-enqueued")
	done := make(chan struct{})
	q.Enqueue(func() { close(done) }, "real")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task did not run")
	}
}

func TestWorkerSurvivesPanickingTask(t *testing.T) {
	q := newTestQueue(t, time.Minute, time.Minute)
	q.Enqueue(func() { panic("boom") }, "bad")
	done := make(chan struct{})
	q.Enqueue(func() { close(done) }, "good")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker died after panicking task")
	}
}

func TestEventsPublished(t *testing.T) {
	pub := NewMemoryPublisher()
	q := New(Config{IdleTimeout: time.Minute, SweepInterval: time.Minute, Publisher: pub})
	t.Cleanup(q.Close)

	started := make(chan struct{})
	release := make(chan struct{})
	q.Enqueue(func() { close(started); <-release }, "e1")
	<-started
	q.Enqueue(func() {}, "e2")
	q.Cancel("e2")
	close(release)
	waitFor(t, 2*time.Second, "events", func() bool {
		names := map[string]int{}
		for _, e := range pub.Events() {
			names[e.Name]++
		}
		return names[EventTaskExecuted] >= 1 && names[EventTaskDiscarded] >= 1
	})
	for _, e := range pub.Events() {
		if e.Name == EventTaskDiscarded && e.RequestID != "e2" {
			t.Fatalf("discarded event for %q, want e2", e.RequestID)
		}
	}
}
