// Implements the WaitQueue, which holds the trucks queued at one unload station.
// Trucks are enqueued when the scheduler binds them to the station.

package sim

import (
	"fmt"
	"sort"
	"strings"
)

// QueueEntry is one truck queued at a station.
// StartTick is zero until the truck starts unloading.
type QueueEntry struct {
	TruckID     string
	ArrivalTick int64
	StartTick   int64
	Done        bool
}

// Started reports whether unloading of this entry has begun.
func (e QueueEntry) Started() bool { return e.StartTick > 0 }

func (e QueueEntry) String() string {
	return fmt.Sprintf("%s(arrived:%d, start:%d, done:%t)", e.TruckID, e.ArrivalTick, e.StartTick, e.Done)
}

// WaitQueue is the ordered waiting queue of a station.
// Insertion order is arrival order; SortByArrival re-establishes dispatch order.
type WaitQueue struct {
	queue []*QueueEntry
}

// Enqueue adds an entry to the back of the queue.
func (wq *WaitQueue) Enqueue(e *QueueEntry) {
	wq.queue = append(wq.queue, e)
}

// Len returns the number of queued entries.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Peek returns the head of the queue without removing it.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Peek() *QueueEntry {
	if len(wq.queue) == 0 {
		return nil
	}
	return wq.queue[0]
}

// Contains reports whether a truck id is anywhere in the queue.
func (wq *WaitQueue) Contains(truckID string) bool {
	for _, e := range wq.queue {
		if e.TruckID == truckID {
			return true
		}
	}
	return false
}

// SortByArrival orders the queue by arrival tick, oldest first.
// The sort is stable: trucks that arrived on the same tick keep insertion order.
func (wq *WaitQueue) SortByArrival() {
	sort.SliceStable(wq.queue, func(i, j int) bool {
		return wq.queue[i].ArrivalTick < wq.queue[j].ArrivalTick
	})
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage -- callers within the
// sim package may iterate over it but MUST NOT append to or reslice it.
func (wq *WaitQueue) Items() []*QueueEntry {
	return wq.queue
}

// DequeueFront removes and returns the head of the queue, or nil if empty.
func (wq *WaitQueue) DequeueFront() *QueueEntry {
	if len(wq.queue) == 0 {
		return nil
	}
	head := wq.queue[0]
	wq.queue[0] = nil
	wq.queue = wq.queue[1:]
	return head
}

// Clear drops every entry.
func (wq *WaitQueue) Clear() {
	wq.queue = nil
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range wq.queue {
		sb.WriteString(val.String())
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
