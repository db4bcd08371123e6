/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package reactor

import (
	"container/heap"
	"sync"
	"time"
)

// TimerID identifies an armed timer for later cancellation.
type TimerID uint64

// TimerCallback fires once a timer's deadline is reached.
type TimerCallback func(id TimerID, arg interface{})

type timerEntry struct {
	id       TimerID
	deadline time.Time
	cb       TimerCallback
	arg      interface{}
	index    int // heap.Interface bookkeeping
	canceled bool
}

// timerHeap is a min-heap ordered by deadline, giving O(log n) insert
// and O(1) amortized cancel (mark-and-skip rather than a heap removal),
// per spec.md §4.1's "integrated per-thread timer list".
type timerHeap []*timerEntry

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x interface{}) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

type timerList struct {
	mu     sync.Mutex
	heap   timerHeap
	byID   map[TimerID]*timerEntry
	nextID TimerID
}

func newTimerList() *timerList {
	return &timerList{byID: make(map[TimerID]*timerEntry)}
}

// insert arms a new timer firing at deadline.
func (t *timerList) insert(deadline time.Time, cb TimerCallback, arg interface{}) TimerID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	e := &timerEntry{id: t.nextID, deadline: deadline, cb: cb, arg: arg}
	heap.Push(&t.heap, e)
	t.byID[e.id] = e
	return e.id
}

// cancel marks id canceled. The entry is skipped when it reaches the
// head of the heap rather than removed immediately, which keeps cancel
// O(1) amortized instead of O(log n) with a heap.Fix/Remove call.
func (t *timerList) cancel(id TimerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.byID[id]
	if !ok || e.canceled {
		return false
	}
	e.canceled = true
	delete(t.byID, id)
	return true
}

// nextDeadline returns the next live deadline, discarding canceled
// entries at the head, and whether any timer remains armed.
func (t *timerList) nextDeadline() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.heap.Len() > 0 {
		top := t.heap[0]
		if top.canceled {
			heap.Pop(&t.heap)
			continue
		}
		return top.deadline, true
	}
	return time.Time{}, false
}

// fireExpired pops and invokes every timer whose deadline is <= now,
// returning the invoked callbacks so the caller can run them without
// holding the timer mutex (callbacks may themselves insert or cancel
// timers, which would otherwise deadlock against this lock).
func (t *timerList) fireExpired(now time.Time) []*timerEntry {
	t.mu.Lock()
	var due []*timerEntry
	for t.heap.Len() > 0 {
		top := t.heap[0]
		if top.canceled {
			heap.Pop(&t.heap)
			continue
		}
		if top.deadline.After(now) {
			break
		}
		heap.Pop(&t.heap)
		delete(t.byID, top.id)
		due = append(due, top)
	}
	t.mu.Unlock()
	return due
}

func (t *timerList) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
