package sim

import (
	"testing"
)

func TestWaitQueue_Peek_NonEmpty_ReturnsFront(t *testing.T) {
	// GIVEN a queue with entries [A, B]
	wq := &WaitQueue{}
	a := &QueueEntry{TruckID: "A"}
	b := &QueueEntry{TruckID: "B"}
	wq.Enqueue(a)
	wq.Enqueue(b)

	// WHEN Peek() is called
	got := wq.Peek()

	// THEN it returns the front element without removing it
	if got != a {
		t.Errorf("Peek: got %v, want %v", got.TruckID, a.TruckID)
	}
	if wq.Len() != 2 {
		t.Errorf("Peek modified queue length: got %d, want 2", wq.Len())
	}
}

func TestWaitQueue_Peek_Empty_ReturnsNil(t *testing.T) {
	wq := &WaitQueue{}
	if got := wq.Peek(); got != nil {
		t.Errorf("Peek on empty queue: got %v, want nil", got)
	}
}

func TestWaitQueue_DequeueFront_FIFO(t *testing.T) {
	wq := &WaitQueue{}
	for _, id := range []string{"A", "B", "C"} {
		wq.Enqueue(&QueueEntry{TruckID: id})
	}

	ids := make([]string, 0, 3)
	for wq.Len() > 0 {
		ids = append(ids, wq.DequeueFront().TruckID)
	}
	want := []string{"A", "B", "C"}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("order[%d]: got %s, want %s", i, id, want[i])
		}
	}
	if wq.DequeueFront() != nil {
		t.Error("DequeueFront on empty queue should return nil")
	}
}

func TestWaitQueue_SortByArrival_StableForTies(t *testing.T) {
	// GIVEN entries with a tie on arrival tick 3
	wq := &WaitQueue{}
	wq.Enqueue(&QueueEntry{TruckID: "X", ArrivalTick: 5})
	wq.Enqueue(&QueueEntry{TruckID: "A", ArrivalTick: 3})
	wq.Enqueue(&QueueEntry{TruckID: "B", ArrivalTick: 3})
	wq.Enqueue(&QueueEntry{TruckID: "Z", ArrivalTick: 1})

	// WHEN sorted
	wq.SortByArrival()

	// THEN oldest first, ties keep insertion order
	want := []string{"Z", "A", "B", "X"}
	for i, e := range wq.Items() {
		if e.TruckID != want[i] {
			t.Errorf("order[%d]: got %s, want %s", i, e.TruckID, want[i])
		}
	}
}

func TestWaitQueue_Contains(t *testing.T) {
	wq := &WaitQueue{}
	wq.Enqueue(&QueueEntry{TruckID: "A"})
	if !wq.Contains("A") {
		t.Error("Contains(A) = false, want true")
	}
	if wq.Contains("B") {
		t.Error("Contains(B) = true, want false")
	}
}

func TestWaitQueue_String(t *testing.T) {
	wq := &WaitQueue{}
	wq.Enqueue(&QueueEntry{TruckID: "A", ArrivalTick: 1})
	wq.Enqueue(&QueueEntry{TruckID: "B", ArrivalTick: 2, StartTick: 3, Done: true})
	want := "[A(arrived:1, start:0, done:false) B(arrived:2, start:3, done:true)]"
	if got := wq.String(); got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}
